package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auctionhouse/config"
	"auctionhouse/events"
	"auctionhouse/models"
	"auctionhouse/repository/testutil"
	"auctionhouse/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auctionHarness struct {
	db         *testutil.TestDatabase
	bus        *events.Bus
	factory    service.UnitOfWorkFactory
	auth       service.AuthService
	users      service.UserService
	lots       service.LotService
	bids       service.BidService
	settlement service.SettlementService
}

func newAuctionHarness(t *testing.T, cfg *config.Config) *auctionHarness {
	testDB := testutil.SetupTestDatabase(t)
	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	return &auctionHarness{
		db:         testDB,
		bus:        bus,
		factory:    factory,
		auth:       service.NewAuthService(factory, cfg),
		users:      service.NewUserService(factory, cfg),
		lots:       service.NewLotService(factory, cfg),
		bids:       service.NewBidService(factory, cfg),
		settlement: service.NewSettlementService(factory, cfg),
	}
}

// fundedUser registers a user and tops them up
func (h *auctionHarness) fundedUser(t *testing.T, username string, amount int64) *models.User {
	ctx := context.Background()
	user, err := h.auth.Register(ctx, username, username+"@example.com", "password123")
	require.NoError(t, err)
	if amount > 0 {
		_, err = h.users.TopUp(ctx, username, amount)
		require.NoError(t, err)
	}
	return user
}

func (h *auctionHarness) openLot(t *testing.T, owner string) *models.LotDetail {
	now := time.Now().UTC()
	lot, err := h.lots.CreateLot(context.Background(), owner, &models.LotRequest{
		Title:        "Typewriter",
		Description:  "Working ribbon",
		InitialPrice: 100,
		StartDate:    now.Add(-time.Minute),
		EndDate:      now.Add(time.Hour),
		CategoryID:   testutil.CategoryID(t, h.db.DB, "Collectibles"),
	})
	require.NoError(t, err)
	return lot
}

func (h *auctionHarness) assertReconciled(t *testing.T, usernames ...string) {
	t.Helper()
	for _, username := range usernames {
		report, err := h.users.Reconcile(context.Background(), username)
		require.NoError(t, err)
		assert.True(t, report.Consistent(), "%s balance %d, ledger %d", username, report.Balance, report.LedgerSum)
	}
}

func TestAuction_ConcurrentBids(t *testing.T) {
	t.Parallel()
	h := newAuctionHarness(t, config.NewTestConfig())
	ctx := context.Background()

	h.fundedUser(t, "seller", 0)
	lot := h.openLot(t, "seller")

	const bidders = 10
	const funding = int64(10000)
	usernames := make([]string, bidders)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("bidder%02d", i+1)
		h.fundedUser(t, usernames[i], funding)
	}

	var wg sync.WaitGroup
	errs := make([]error, bidders)
	for i, username := range usernames {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			_, errs[i] = h.bids.PlaceBid(ctx, username, lot.ID, int64(110+10*i))
		}(i, username)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, service.ErrValidation), "unexpected bid error: %v", err)
		}
	}
	require.NoError(t, errs[bidders-1], "the highest bid always wins")

	detail, err := h.lots.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), detail.CurrentPrice)
	require.NotNil(t, detail.CurrentLeaderUsername)
	assert.Equal(t, usernames[bidders-1], *detail.CurrentLeaderUsername)

	// Only the leader has money reserved
	var total int64
	for _, username := range usernames {
		profile, err := h.users.GetProfile(ctx, username)
		require.NoError(t, err)
		total += profile.Balance
		if username == usernames[bidders-1] {
			assert.Equal(t, funding-200, profile.Balance)
		} else {
			assert.Equal(t, funding, profile.Balance)
		}
	}
	assert.Equal(t, int64(bidders)*funding, total+detail.CurrentPrice)

	h.assertReconciled(t, usernames...)

	followed, err := h.lots.FollowedLots(ctx, usernames[bidders-1])
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, lot.ID, followed[0].ID)
}

func TestAuction_OutbidRefundsAndCancel(t *testing.T) {
	t.Parallel()
	h := newAuctionHarness(t, config.NewTestConfig())
	ctx := context.Background()

	h.fundedUser(t, "seller", 0)
	h.fundedUser(t, "ann", 1000)
	h.fundedUser(t, "ben", 1000)
	lot := h.openLot(t, "seller")

	_, err := h.bids.PlaceBid(ctx, "ann", lot.ID, 300)
	require.NoError(t, err)

	_, err = h.bids.PlaceBid(ctx, "ann", lot.ID, 400)
	assert.ErrorIs(t, err, service.ErrValidation, "the leader cannot outbid themselves")

	_, err = h.bids.PlaceBid(ctx, "ben", lot.ID, 300)
	assert.ErrorIs(t, err, service.ErrValidation, "a bid must beat the current price")

	_, err = h.bids.PlaceBid(ctx, "ben", lot.ID, 1001)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	_, err = h.bids.PlaceBid(ctx, "ben", lot.ID, 450)
	require.NoError(t, err)

	ann, err := h.users.GetProfile(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ann.Balance)

	history, err := h.users.GetHistory(ctx, "ann", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionTypeBidRefund, history[0].TransactionType)
	assert.Equal(t, models.TransactionTypeBidReserve, history[1].TransactionType)
	assert.Equal(t, models.TransactionTypeTopUp, history[2].TransactionType)

	bids, err := h.lots.GetBids(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, "ben", bids[0].BidderUsername)

	err = h.lots.CancelLot(ctx, "ann", lot.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, h.lots.CancelLot(ctx, "seller", lot.ID))

	ben, err := h.users.GetProfile(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ben.Balance)

	_, err = h.lots.GetLot(ctx, lot.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	h.assertReconciled(t, "ann", "ben", "seller")
}

func TestAuction_SettlementAndPurge(t *testing.T) {
	t.Parallel()
	cfg := config.NewTestConfig()
	cfg.SellerPayoutEnabled = true
	h := newAuctionHarness(t, cfg)
	ctx := context.Background()

	seller := h.fundedUser(t, "seller", 0)
	winner := h.fundedUser(t, "winner", 1000)
	category := testutil.CategoryID(t, h.db.DB, "Furniture")
	now := time.Now().UTC()

	// Lots written straight to storage so their dates can sit in the past
	lotRepo := NewLotRepository(h.db.DB)

	sold := testutil.CreateRunningLot(seller.ID, category, now)
	sold.StartDate = now.Add(-2 * time.Hour)
	sold.EndDate = now.Add(-time.Minute)
	sold.CurrentLeaderID = &winner.ID
	sold.CurrentPrice = 250
	require.NoError(t, lotRepo.Create(ctx, sold))
	_, err := NewUserRepository(h.db.DB).DeductBalance(ctx, winner.ID, 250)
	require.NoError(t, err)
	require.NoError(t, NewLedgerRepository(h.db.DB).Record(ctx, &models.LedgerEntry{
		UserID:          winner.ID,
		Amount:          -250,
		TransactionType: models.TransactionTypeBidReserve,
		BalanceBefore:   1000,
		BalanceAfter:    750,
		LotID:           &sold.ID,
	}))

	unsold := testutil.CreateRunningLot(seller.ID, category, now)
	unsold.StartDate = now.Add(-3 * time.Hour)
	unsold.EndDate = now.Add(-time.Hour)
	require.NoError(t, lotRepo.Create(ctx, unsold))

	stale := testutil.CreateRunningLot(seller.ID, category, now)
	stale.StartDate = now.Add(-20 * 24 * time.Hour)
	stale.EndDate = now.Add(-10 * 24 * time.Hour)
	stale.Status = models.LotStatusUnsold
	require.NoError(t, lotRepo.Create(ctx, stale))

	result, err := h.settlement.SettleLots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)

	settled, err := lotRepo.GetByID(ctx, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LotStatusSold, settled.Status)

	ended, err := lotRepo.GetByID(ctx, unsold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LotStatusUnsold, ended.Status)

	profile, err := h.users.GetProfile(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(250), profile.Balance)

	// A second sweep finds nothing left to do
	again, err := h.settlement.SettleLots(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Candidates)

	purged, err := h.settlement.PurgeLots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged.Succeeded)

	gone, err := lotRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	h.assertReconciled(t, "seller", "winner")
}

func TestAuction_LoginLockout(t *testing.T) {
	t.Parallel()
	h := newAuctionHarness(t, config.NewTestConfig())
	ctx := context.Background()

	h.fundedUser(t, "locksmith", 0)

	for i := 0; i < 5; i++ {
		_, err := h.auth.Login(ctx, "locksmith", "wrong-password")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	}

	_, err := h.auth.Login(ctx, "locksmith", "password123")
	assert.ErrorIs(t, err, service.ErrAccountLocked)

	user, err := NewUserRepository(h.db.DB).GetByUsername(ctx, "locksmith")
	require.NoError(t, err)
	assert.True(t, user.AccountLocked)
	assert.Equal(t, 5, user.FailedAttempts)
}

func TestAuction_ChangePasswordAndRefresh(t *testing.T) {
	t.Parallel()
	h := newAuctionHarness(t, config.NewTestConfig())
	ctx := context.Background()

	h.fundedUser(t, "rotator", 0)

	tokens, err := h.auth.Login(ctx, "rotator", "password123")
	require.NoError(t, err)

	require.NoError(t, h.auth.ChangePassword(ctx, "rotator", "password123", "rotated-secret"))

	_, err = h.auth.Login(ctx, "rotator", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = h.auth.Login(ctx, "rotator", "rotated-secret")
	require.NoError(t, err)

	refreshed, err := h.auth.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	username, err := h.auth.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "rotator", username)
}
