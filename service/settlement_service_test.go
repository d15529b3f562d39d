package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auctionhouse/events"
	"auctionhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSettlementService(factory UnitOfWorkFactory, payout bool) *settlementService {
	cfg := testConfig()
	cfg.SellerPayoutEnabled = payout
	svc := NewSettlementService(factory, cfg).(*settlementService)
	svc.now = fixedClock
	return svc
}

// newSequencedFactory hands out the given units of work in order
func newSequencedFactory(ctx context.Context, uows ...*MockUnitOfWork) *MockUnitOfWorkFactory {
	factory := new(MockUnitOfWorkFactory)
	for _, uow := range uows {
		uow.On("Begin", ctx).Return(nil)
		uow.On("Rollback").Return(nil)
		factory.On("Create").Return(uow).Once()
	}
	return factory
}

func expiredLot(id int64, leader *int64, price int64) *models.Lot {
	lot := runningLot(id, 1)
	lot.EndDate = fixedNow.Add(-time.Minute)
	lot.CurrentLeaderID = leader
	lot.CurrentPrice = price
	return lot
}

func TestSettlementService_SettleLots(t *testing.T) {
	ctx := context.Background()
	scan, soldUoW, brokenUoW, unsoldUoW := NewMockUnitOfWork(), NewMockUnitOfWork(), NewMockUnitOfWork(), NewMockUnitOfWork()
	factory := newSequencedFactory(ctx, scan, soldUoW, brokenUoW, unsoldUoW)
	svc := newTestSettlementService(factory, false)

	scan.LotRepo.On("ListIDsDueForRefresh", ctx, fixedNow).Return([]int64{1, 2, 3}, nil)

	soldUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(expiredLot(1, int64Ptr(5), 300), nil)
	soldUoW.LotRepo.On("UpdateStatus", ctx, int64(1), models.LotStatusSold).Return(nil)
	soldUoW.On("Commit").Return(nil)

	brokenUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(nil, errors.New("connection reset"))

	unsoldUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(expiredLot(3, nil, 100), nil)
	unsoldUoW.LotRepo.On("UpdateStatus", ctx, int64(3), models.LotStatusUnsold).Return(nil)
	unsoldUoW.On("Commit").Return(nil)

	result, err := svc.SettleLots(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	factory.AssertExpectations(t)
	soldUoW.AssertExpectations(t)
	unsoldUoW.AssertExpectations(t)
	brokenUoW.AssertNotCalled(t, "Commit")
	soldUoW.UserRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_SettleLots_SellerPayout(t *testing.T) {
	ctx := context.Background()
	scan, lotUoW := NewMockUnitOfWork(), NewMockUnitOfWork()
	factory := newSequencedFactory(ctx, scan, lotUoW)
	svc := newTestSettlementService(factory, true)

	scan.LotRepo.On("ListIDsDueForRefresh", ctx, fixedNow).Return([]int64{1}, nil)
	lotUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(expiredLot(1, int64Ptr(5), 300), nil)
	lotUoW.LotRepo.On("UpdateStatus", ctx, int64(1), models.LotStatusSold).Return(nil)
	lotUoW.UserRepo.On("AddBalance", ctx, int64(1), int64(300)).Return(int64(300), nil)
	lotUoW.LedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.UserID == 1 && e.Amount == 300 && e.TransactionType == models.TransactionTypeSaleProceeds
	})).Return(nil)
	lotUoW.On("Commit").Return(nil)

	result, err := svc.SettleLots(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	lotUoW.AssertRepositories(t)
}

func TestSettlementService_SettleLots_SkipsAlreadySettled(t *testing.T) {
	ctx := context.Background()
	scan, goneUoW, doneUoW := NewMockUnitOfWork(), NewMockUnitOfWork(), NewMockUnitOfWork()
	factory := newSequencedFactory(ctx, scan, goneUoW, doneUoW)
	svc := newTestSettlementService(factory, false)

	settled := expiredLot(2, nil, 100)
	settled.Status = models.LotStatusUnsold

	scan.LotRepo.On("ListIDsDueForRefresh", ctx, fixedNow).Return([]int64{1, 2}, nil)
	goneUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(nil, nil)
	doneUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(settled, nil)

	result, err := svc.SettleLots(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Succeeded)
	doneUoW.LotRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_PurgeLots(t *testing.T) {
	ctx := context.Background()
	scan, purgeUoW, relistedUoW := NewMockUnitOfWork(), NewMockUnitOfWork(), NewMockUnitOfWork()
	factory := newSequencedFactory(ctx, scan, purgeUoW, relistedUoW)
	svc := newTestSettlementService(factory, false)

	cutoff := fixedNow.Add(-7 * 24 * time.Hour)
	old := expiredLot(1, int64Ptr(5), 300)
	old.Status = models.LotStatusSold
	old.EndDate = cutoff.Add(-time.Hour)

	relisted := expiredLot(2, nil, 100)
	relisted.Status = models.LotStatusPending
	relisted.EndDate = fixedNow.Add(24 * time.Hour)

	scan.LotRepo.On("ListIDsEndedBefore", ctx, []models.LotStatus{models.LotStatusSold, models.LotStatusUnsold}, cutoff).
		Return([]int64{1, 2}, nil)

	purgeUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(old, nil)
	purgeUoW.BidRepo.On("DeleteByLot", ctx, int64(1)).Return(int64(3), nil)
	purgeUoW.FollowRepo.On("DeleteByLot", ctx, int64(1)).Return(int64(2), nil)
	purgeUoW.LotRepo.On("Delete", ctx, int64(1)).Return(nil)
	purgeUoW.On("Commit").Return(nil)

	relistedUoW.LotRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(relisted, nil)

	result, err := svc.PurgeLots(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, purgeUoW.Publisher.Published(events.EventTypeLotPurged), 1)
	purgeUoW.AssertRepositories(t)
	relistedUoW.LotRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSettlementService_ScanFailure(t *testing.T) {
	ctx := context.Background()
	scan := NewMockUnitOfWork()
	factory := newSequencedFactory(ctx, scan)
	svc := newTestSettlementService(factory, false)

	scan.LotRepo.On("ListIDsDueForRefresh", ctx, fixedNow).Return(nil, errors.New("timeout"))

	result, err := svc.SettleLots(ctx)

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "timeout")
}
