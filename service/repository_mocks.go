package service

import (
	"context"
	"time"

	"auctionhouse/events"
	"auctionhouse/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// MockLotRepository is a mock implementation of LotRepository
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) Create(ctx context.Context, lot *models.Lot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) GetByID(ctx context.Context, id int64) (*models.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lot), args.Error(1)
}

func (m *MockLotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lot), args.Error(1)
}

func (m *MockLotRepository) Update(ctx context.Context, lot *models.Lot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) UpdateStatus(ctx context.Context, id int64, status models.LotStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockLotRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLotRepository) GetDetail(ctx context.Context, id int64) (*models.LotDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotDetail), args.Error(1)
}

func (m *MockLotRepository) ListByCategories(ctx context.Context, categoryIDs []int64, limit, offset int) ([]*models.LotDetail, error) {
	args := m.Called(ctx, categoryIDs, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LotDetail), args.Error(1)
}

func (m *MockLotRepository) CountByCategories(ctx context.Context, categoryIDs []int64) (int64, error) {
	args := m.Called(ctx, categoryIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLotRepository) ListLatest(ctx context.Context, limit int) ([]*models.LotDetail, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LotDetail), args.Error(1)
}

func (m *MockLotRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.LotDetail, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LotDetail), args.Error(1)
}

func (m *MockLotRepository) ListFollowedBy(ctx context.Context, userID int64) ([]*models.LotDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LotDetail), args.Error(1)
}

func (m *MockLotRepository) ListIDsDueForRefresh(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockLotRepository) ListIDsEndedBefore(ctx context.Context, statuses []models.LotStatus, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, statuses, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockBidRepository is a mock implementation of BidRepository
type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) Create(ctx context.Context, bid *models.Bid) error {
	args := m.Called(ctx, bid)
	return args.Error(0)
}

func (m *MockBidRepository) ListByLot(ctx context.Context, lotID int64) ([]*models.Bid, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}

func (m *MockBidRepository) DeleteByLot(ctx context.Context, lotID int64) (int64, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumByUser(ctx context.Context, userID int64) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockFollowRepository is a mock implementation of FollowRepository
type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) Exists(ctx context.Context, userID, lotID int64) (bool, error) {
	args := m.Called(ctx, userID, lotID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) Add(ctx context.Context, userID, lotID int64) (bool, error) {
	args := m.Called(ctx, userID, lotID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) DeleteByLot(ctx context.Context, lotID int64) (int64, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListChildren(ctx context.Context, parentID int64) ([]*models.Category, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// Published returns the events of the given type in publish order
func (m *MockEventPublisher) Published(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		if ev, ok := call.Arguments.Get(0).(events.Event); ok && ev.Type() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork whose repositories are mocks
type MockUnitOfWork struct {
	mock.Mock
	UserRepo     *MockUserRepository
	LotRepo      *MockLotRepository
	BidRepo      *MockBidRepository
	LedgerRepo   *MockLedgerRepository
	FollowRepo   *MockFollowRepository
	CategoryRepo *MockCategoryRepository
	Publisher    *MockEventPublisher
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks.
// The publisher accepts any event.
func NewMockUnitOfWork() *MockUnitOfWork {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything).Return()

	return &MockUnitOfWork{
		UserRepo:     new(MockUserRepository),
		LotRepo:      new(MockLotRepository),
		BidRepo:      new(MockBidRepository),
		LedgerRepo:   new(MockLedgerRepository),
		FollowRepo:   new(MockFollowRepository),
		CategoryRepo: new(MockCategoryRepository),
		Publisher:    publisher,
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository         { return m.UserRepo }
func (m *MockUnitOfWork) LotRepository() LotRepository           { return m.LotRepo }
func (m *MockUnitOfWork) BidRepository() BidRepository           { return m.BidRepo }
func (m *MockUnitOfWork) LedgerRepository() LedgerRepository     { return m.LedgerRepo }
func (m *MockUnitOfWork) FollowRepository() FollowRepository     { return m.FollowRepo }
func (m *MockUnitOfWork) CategoryRepository() CategoryRepository { return m.CategoryRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher               { return m.Publisher }

// AssertRepositories checks the expectations of every repository mock
func (m *MockUnitOfWork) AssertRepositories(t mock.TestingT) {
	m.UserRepo.AssertExpectations(t)
	m.LotRepo.AssertExpectations(t)
	m.BidRepo.AssertExpectations(t)
	m.LedgerRepo.AssertExpectations(t)
	m.FollowRepo.AssertExpectations(t)
	m.CategoryRepo.AssertExpectations(t)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
