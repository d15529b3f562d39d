package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"auctionhouse/config"
	"auctionhouse/events"
	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultPageSize    = 10
	maxPageSize        = 100
	defaultLatestCount = 8

	// maxListOffset keeps page*size inside the range SQL OFFSET accepts
	maxListOffset = math.MaxInt32
)

type lotService struct {
	uowFactory UnitOfWorkFactory
	lifecycle  lotLifecycle
	now        func() time.Time
}

// NewLotService creates a new lot service
func NewLotService(uowFactory UnitOfWorkFactory, cfg *config.Config) LotService {
	return &lotService{
		uowFactory: uowFactory,
		lifecycle:  lotLifecycle{sellerPayoutEnabled: cfg.SellerPayoutEnabled},
		now:        time.Now,
	}
}

func (s *lotService) CreateLot(ctx context.Context, actingUsername string, req *models.LotRequest) (*models.LotDetail, error) {
	if err := validateLotRequest(req, s.now()); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	owner, err := requireUser(ctx, uow, actingUsername)
	if err != nil {
		return nil, err
	}
	if err := requireCategory(ctx, uow, req.CategoryID); err != nil {
		return nil, err
	}

	lot := &models.Lot{
		OwnerID:      owner.ID,
		Title:        req.Title,
		Description:  req.Description,
		InitialPrice: req.InitialPrice,
		CurrentPrice: req.InitialPrice,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       models.LotStatusPending,
		CategoryID:   req.CategoryID,
	}
	if err := uow.LotRepository().Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to create lot: %w", err)
	}

	detail, err := uow.LotRepository().GetDetail(ctx, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lot: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID": lot.ID,
		"owner": actingUsername,
	}).Info("Lot created")

	return detail, nil
}

func (s *lotService) CancelLot(ctx context.Context, actingUsername string, lotID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByIDForUpdate(ctx, lotID)
	if err != nil {
		return fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	actor, err := requireUser(ctx, uow, actingUsername)
	if err != nil {
		return err
	}
	if !lot.IsOwnedBy(actor.ID) {
		return fmt.Errorf("%w: %s does not own lot %d", ErrUnauthorized, actingUsername, lotID)
	}

	if _, err := s.lifecycle.refresh(ctx, uow, lot, s.now()); err != nil {
		return err
	}
	if lot.Status != models.LotStatusInProgress {
		return fmt.Errorf("%w: only a running auction can be cancelled, lot %d is %s", ErrStateConflict, lotID, lot.Status)
	}

	refundAmount := int64(0)
	if lot.HasLeader() {
		refundAmount = lot.CurrentPrice
		metadata := map[string]any{"reason": "lot_cancelled"}
		if _, err := Credit(ctx, uow, *lot.CurrentLeaderID, refundAmount, models.TransactionTypeBidRefund, &lot.ID, metadata); err != nil {
			return fmt.Errorf("failed to refund leader: %w", err)
		}
	}

	if err := deleteLotCascade(ctx, uow, lot.ID); err != nil {
		return err
	}

	uow.EventBus().Publish(events.LotCancelledEvent{
		LotID:          lot.ID,
		OwnerID:        lot.OwnerID,
		RefundedUserID: lot.CurrentLeaderID,
		RefundAmount:   refundAmount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID":  lotID,
		"owner":  actingUsername,
		"refund": refundAmount,
	}).Info("Lot cancelled")

	return nil
}

func (s *lotService) UpdateLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error) {
	return s.resetListing(ctx, actingUsername, lotID, req, models.LotStatusPending, models.LotStatusUnsold)
}

func (s *lotService) RelistLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error) {
	return s.resetListing(ctx, actingUsername, lotID, req, models.LotStatusUnsold)
}

// resetListing overwrites a lot with fresh listing details when its refreshed status is one of allowed.
// Neither PENDING nor UNSOLD lots can have a leader, so clearing it never strands reserved funds.
func (s *lotService) resetListing(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest, allowed ...models.LotStatus) (*models.LotDetail, error) {
	now := s.now()
	if err := validateLotRequest(req, now); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByIDForUpdate(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	actor, err := requireUser(ctx, uow, actingUsername)
	if err != nil {
		return nil, err
	}
	if !lot.IsOwnedBy(actor.ID) {
		return nil, fmt.Errorf("%w: %s does not own lot %d", ErrUnauthorized, actingUsername, lotID)
	}

	if _, err := s.lifecycle.refresh(ctx, uow, lot, now); err != nil {
		return nil, err
	}
	if !statusIn(lot.Status, allowed) {
		return nil, fmt.Errorf("%w: lot %d is %s, expected one of %v", ErrStateConflict, lotID, lot.Status, allowed)
	}

	if err := requireCategory(ctx, uow, req.CategoryID); err != nil {
		return nil, err
	}

	oldStatus := lot.Status
	lot.Relist(req)
	if err := uow.LotRepository().Update(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to update lot: %w", err)
	}
	if oldStatus != lot.Status {
		uow.EventBus().Publish(events.LotStatusChangedEvent{
			LotID:     lot.ID,
			OldStatus: oldStatus,
			NewStatus: lot.Status,
			Price:     lot.CurrentPrice,
		})
	}

	detail, err := uow.LotRepository().GetDetail(ctx, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lot: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID":     lotID,
		"owner":     actingUsername,
		"oldStatus": oldStatus,
	}).Info("Lot listing reset")

	return detail, nil
}

func (s *lotService) RefreshLotStatus(ctx context.Context, lotID int64) (*models.Lot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := s.lifecycle.lockAndRefresh(ctx, uow, lotID, s.now())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return lot, nil
}

// GetLot takes the row lock only when the stored status is stale
func (s *lotService) GetLot(ctx context.Context, lotID int64) (*models.LotDetail, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	if models.ComputeStatus(now, lot.StartDate, lot.EndDate, lot.HasLeader()) != lot.Status {
		if _, err := s.lifecycle.lockAndRefresh(ctx, uow, lotID, now); err != nil {
			return nil, err
		}
	}

	detail, err := uow.LotRepository().GetDetail(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lot: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detail, nil
}

func (s *lotService) GetBids(ctx context.Context, lotID int64) ([]*models.Bid, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	bids, err := uow.BidRepository().ListByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

func (s *lotService) ListLots(ctx context.Context, categoryID *int64, page, size int) (*models.LotPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page > maxListOffset/size {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrValidation, page)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var categoryIDs []int64
	if categoryID != nil {
		if err := requireCategory(ctx, uow, *categoryID); err != nil {
			return nil, err
		}
		children, err := uow.CategoryRepository().ListChildren(ctx, *categoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to list child categories: %w", err)
		}
		categoryIDs = append(categoryIDs, *categoryID)
		for _, child := range children {
			categoryIDs = append(categoryIDs, child.ID)
		}
	}

	total, err := uow.LotRepository().CountByCategories(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count lots: %w", err)
	}
	lots, err := uow.LotRepository().ListByCategories(ctx, categoryIDs, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}

	return &models.LotPage{
		Lots:  s.withCurrentStatus(lots),
		Page:  page,
		Size:  size,
		Total: total,
	}, nil
}

func (s *lotService) LatestLots(ctx context.Context, count int) ([]*models.LotDetail, error) {
	if count <= 0 || count > maxPageSize {
		count = defaultLatestCount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lots, err := uow.LotRepository().ListLatest(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest lots: %w", err)
	}
	return s.withCurrentStatus(lots), nil
}

func (s *lotService) UserLots(ctx context.Context, username string) ([]*models.LotDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return nil, err
	}

	lots, err := uow.LotRepository().ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots of %s: %w", username, err)
	}
	return s.withCurrentStatus(lots), nil
}

func (s *lotService) FollowedLots(ctx context.Context, username string) ([]*models.LotDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return nil, err
	}

	lots, err := uow.LotRepository().ListFollowedBy(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed lots of %s: %w", username, err)
	}
	return s.withCurrentStatus(lots), nil
}

func (s *lotService) Categories(ctx context.Context) ([]*models.Category, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	categories, err := uow.CategoryRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// withCurrentStatus applies the clock to list views. Stored rows are brought
// up to date by the settlement sweep and by single-lot operations.
func (s *lotService) withCurrentStatus(lots []*models.LotDetail) []*models.LotDetail {
	now := s.now()
	for _, lot := range lots {
		lot.Refresh(now)
	}
	return lots
}

// deleteLotCascade removes a lot and everything that references it
func deleteLotCascade(ctx context.Context, uow UnitOfWork, lotID int64) error {
	if _, err := uow.BidRepository().DeleteByLot(ctx, lotID); err != nil {
		return fmt.Errorf("failed to delete bids of lot %d: %w", lotID, err)
	}
	if _, err := uow.FollowRepository().DeleteByLot(ctx, lotID); err != nil {
		return fmt.Errorf("failed to delete follows of lot %d: %w", lotID, err)
	}
	if err := uow.LotRepository().Delete(ctx, lotID); err != nil {
		return fmt.Errorf("failed to delete lot %d: %w", lotID, err)
	}
	return nil
}

func requireUser(ctx context.Context, uow UnitOfWork, username string) (*models.User, error) {
	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return user, nil
}

func requireCategory(ctx context.Context, uow UnitOfWork, categoryID int64) error {
	category, err := uow.CategoryRepository().GetByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return fmt.Errorf("%w: category %d", ErrNotFound, categoryID)
	}
	return nil
}

func statusIn(status models.LotStatus, allowed []models.LotStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
