package service

import (
	"context"
	"time"

	"auctionhouse/events"
	"auctionhouse/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username, nil if absent
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByUsernameForUpdate retrieves a user and locks the row until the transaction ends
	GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error)

	// ExistsByUsernameOrEmail reports whether either identifier is already taken
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create inserts a new user and fills in generated fields
	Create(ctx context.Context, user *models.User) error

	// AddBalance credits a user's balance atomically and returns the new balance
	AddBalance(ctx context.Context, userID int64, amount int64) (int64, error)

	// DeductBalance debits a user's balance atomically, failing with ErrInsufficientFunds
	// instead of going negative. Returns the new balance.
	DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error)

	// UpdateLockout persists the failed attempt counter and lock state
	UpdateLockout(ctx context.Context, user *models.User) error

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// LotRepository defines the interface for lot data access
type LotRepository interface {
	// Create inserts a new lot and fills in generated fields
	Create(ctx context.Context, lot *models.Lot) error

	// GetByID retrieves a lot by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Lot, error)

	// GetByIDForUpdate retrieves a lot and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Lot, error)

	// Update overwrites every mutable column of the lot
	Update(ctx context.Context, lot *models.Lot) error

	// UpdateStatus writes only the status column
	UpdateStatus(ctx context.Context, id int64, status models.LotStatus) error

	// Delete removes the lot row. Bids and follows must be removed first.
	Delete(ctx context.Context, id int64) error

	// GetDetail returns the lot joined with owner, leader and category names
	GetDetail(ctx context.Context, id int64) (*models.LotDetail, error)

	// ListByCategories returns a page of lots in any of the categories, every lot when categoryIDs is empty
	ListByCategories(ctx context.Context, categoryIDs []int64, limit, offset int) ([]*models.LotDetail, error)

	// CountByCategories counts lots in any of the categories, every lot when categoryIDs is empty
	CountByCategories(ctx context.Context, categoryIDs []int64) (int64, error)

	// ListLatest returns the most recently created lots
	ListLatest(ctx context.Context, limit int) ([]*models.LotDetail, error)

	// ListByOwner returns all lots owned by a user
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.LotDetail, error)

	// ListFollowedBy returns lots a user follows, soonest ending first then highest price
	ListFollowedBy(ctx context.Context, userID int64) ([]*models.LotDetail, error)

	// ListIDsDueForRefresh returns lots whose stored status is behind the clock:
	// running lots past their end date and pending lots past their start date
	ListIDsDueForRefresh(ctx context.Context, now time.Time) ([]int64, error)

	// ListIDsEndedBefore returns lots in one of the statuses whose end date is before cutoff
	ListIDsEndedBefore(ctx context.Context, statuses []models.LotStatus, cutoff time.Time) ([]int64, error)
}

// BidRepository defines the interface for bid data access
type BidRepository interface {
	// Create appends a bid
	Create(ctx context.Context, bid *models.Bid) error

	// ListByLot returns bids on a lot, highest first
	ListByLot(ctx context.Context, lotID int64) ([]*models.Bid, error)

	// DeleteByLot removes every bid on a lot and returns how many were removed
	DeleteByLot(ctx context.Context, lotID int64) (int64, error)
}

// LedgerRepository defines the interface for the balance ledger
type LedgerRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// ListByUser returns a user's entries, newest first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error)

	// SumByUser returns the sum of a user's entry amounts and the entry count
	SumByUser(ctx context.Context, userID int64) (sum int64, count int64, err error)
}

// FollowRepository defines the interface for follow membership
type FollowRepository interface {
	// Exists reports whether the user follows the lot
	Exists(ctx context.Context, userID, lotID int64) (bool, error)

	// Add records the follow, returning false when it already existed
	Add(ctx context.Context, userID, lotID int64) (bool, error)

	// DeleteByLot removes every follow of a lot
	DeleteByLot(ctx context.Context, lotID int64) (int64, error)
}

// CategoryRepository defines the interface for category lookup
type CategoryRepository interface {
	// GetByID retrieves a category, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Category, error)

	// ListChildren returns the direct children of a category
	ListChildren(ctx context.Context, parentID int64) ([]*models.Category, error)

	// List returns every category
	List(ctx context.Context) ([]*models.Category, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repositories to one database transaction.
// Events published through EventBus are delivered only after Commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	LotRepository() LotRepository
	BidRepository() BidRepository
	LedgerRepository() LedgerRepository
	FollowRepository() FollowRepository
	CategoryRepository() CategoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LotService defines owner actions and read views on lots
type LotService interface {
	// CreateLot lists a new lot owned by the acting user
	CreateLot(ctx context.Context, actingUsername string, req *models.LotRequest) (*models.LotDetail, error)

	// CancelLot ends a running auction early, refunding the leader and deleting the lot
	CancelLot(ctx context.Context, actingUsername string, lotID int64) error

	// UpdateLot rewrites a pending or unsold lot and starts a fresh listing
	UpdateLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error)

	// RelistLot rewrites an unsold lot and starts a fresh listing
	RelistLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error)

	// RefreshLotStatus brings a lot's stored status in line with the clock
	RefreshLotStatus(ctx context.Context, lotID int64) (*models.Lot, error)

	// GetLot returns a lot view after refreshing it
	GetLot(ctx context.Context, lotID int64) (*models.LotDetail, error)

	// GetBids returns the bids placed on a lot, highest first
	GetBids(ctx context.Context, lotID int64) ([]*models.Bid, error)

	// ListLots returns a page of lots in a category and its children, or all lots when categoryID is nil
	ListLots(ctx context.Context, categoryID *int64, page, size int) (*models.LotPage, error)

	// LatestLots returns the most recently listed lots
	LatestLots(ctx context.Context, count int) ([]*models.LotDetail, error)

	// UserLots returns the lots owned by a user
	UserLots(ctx context.Context, username string) ([]*models.LotDetail, error)

	// FollowedLots returns the lots a user follows
	FollowedLots(ctx context.Context, username string) ([]*models.LotDetail, error)

	// Categories returns every category
	Categories(ctx context.Context) ([]*models.Category, error)
}

// BidService defines the interface for bidding
type BidService interface {
	// PlaceBid places a bid on behalf of the bidder and reserves the funds
	PlaceBid(ctx context.Context, bidderUsername string, lotID int64, amount int64) (*models.Bid, error)
}

// UserService defines the interface for balance operations
type UserService interface {
	// TopUp credits the user's balance and returns the new balance
	TopUp(ctx context.Context, username string, amount int64) (int64, error)

	// GetHistory returns the user's ledger entries, newest first
	GetHistory(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error)

	// GetProfile returns the user's public profile
	GetProfile(ctx context.Context, username string) (*models.Profile, error)

	// Reconcile compares the cached balance with the ledger
	Reconcile(ctx context.Context, username string) (*models.ReconciliationReport, error)
}

// AuthService defines the interface for registration and login
type AuthService interface {
	// Register creates a new account with a zero balance
	Register(ctx context.Context, username, email, password string) (*models.User, error)

	// Login checks credentials under the lockout policy and returns signed tokens
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)

	// RefreshTokens exchanges a valid refresh token for a new token pair
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)

	// ChangePassword replaces the password after checking the current one
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error

	// ValidateToken returns the username an access token was issued to
	ValidateToken(token string) (string, error)
}

// SettlementService defines the scheduled sweeps
type SettlementService interface {
	// SettleLots refreshes every lot whose stored status is behind the clock
	SettleLots(ctx context.Context) (*models.SweepResult, error)

	// PurgeLots deletes finished lots older than the retention window
	PurgeLots(ctx context.Context) (*models.SweepResult, error)
}
