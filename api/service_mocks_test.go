package api

import (
	"context"

	"auctionhouse/models"

	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *mockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	args := m.Called(ctx, username, oldPassword, newPassword)
	return args.Error(0)
}

func (m *mockAuthService) ValidateToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) TopUp(ctx context.Context, username string, amount int64) (int64, error) {
	args := m.Called(ctx, username, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserService) GetHistory(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *mockUserService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockUserService) Reconcile(ctx context.Context, username string) (*models.ReconciliationReport, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationReport), args.Error(1)
}

type mockLotService struct {
	mock.Mock
}

func (m *mockLotService) detail(args mock.Arguments) (*models.LotDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotDetail), args.Error(1)
}

func (m *mockLotService) details(args mock.Arguments) ([]*models.LotDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LotDetail), args.Error(1)
}

func (m *mockLotService) CreateLot(ctx context.Context, actingUsername string, req *models.LotRequest) (*models.LotDetail, error) {
	return m.detail(m.Called(ctx, actingUsername, req))
}

func (m *mockLotService) CancelLot(ctx context.Context, actingUsername string, lotID int64) error {
	return m.Called(ctx, actingUsername, lotID).Error(0)
}

func (m *mockLotService) UpdateLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error) {
	return m.detail(m.Called(ctx, actingUsername, lotID, req))
}

func (m *mockLotService) RelistLot(ctx context.Context, actingUsername string, lotID int64, req *models.LotRequest) (*models.LotDetail, error) {
	return m.detail(m.Called(ctx, actingUsername, lotID, req))
}

func (m *mockLotService) RefreshLotStatus(ctx context.Context, lotID int64) (*models.Lot, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lot), args.Error(1)
}

func (m *mockLotService) GetLot(ctx context.Context, lotID int64) (*models.LotDetail, error) {
	return m.detail(m.Called(ctx, lotID))
}

func (m *mockLotService) GetBids(ctx context.Context, lotID int64) ([]*models.Bid, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}

func (m *mockLotService) ListLots(ctx context.Context, categoryID *int64, page, size int) (*models.LotPage, error) {
	args := m.Called(ctx, categoryID, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotPage), args.Error(1)
}

func (m *mockLotService) LatestLots(ctx context.Context, count int) ([]*models.LotDetail, error) {
	return m.details(m.Called(ctx, count))
}

func (m *mockLotService) UserLots(ctx context.Context, username string) ([]*models.LotDetail, error) {
	return m.details(m.Called(ctx, username))
}

func (m *mockLotService) FollowedLots(ctx context.Context, username string) ([]*models.LotDetail, error) {
	return m.details(m.Called(ctx, username))
}

func (m *mockLotService) Categories(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

type mockBidService struct {
	mock.Mock
}

func (m *mockBidService) PlaceBid(ctx context.Context, bidderUsername string, lotID int64, amount int64) (*models.Bid, error) {
	args := m.Called(ctx, bidderUsername, lotID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}
