package service

import (
	"context"
	"time"

	"auctionhouse/config"
	"auctionhouse/models"

	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// newTestUoW returns a factory that hands out a single mock unit of work
// which expects Begin and Rollback.
func newTestUoW(ctx context.Context) (*MockUnitOfWorkFactory, *MockUnitOfWork) {
	uow := NewMockUnitOfWork()
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return factory, uow
}

func testConfig() *config.Config {
	return config.NewTestConfig()
}

func int64Ptr(v int64) *int64 { return &v }

func testUser(id int64, username string, balance int64) *models.User {
	return &models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Balance:  balance,
		Roles:    []string{models.RoleUser},
	}
}

// runningLot is a lot mid-auction at fixedNow
func runningLot(id, ownerID int64) *models.Lot {
	return &models.Lot{
		ID:           id,
		OwnerID:      ownerID,
		Title:        "Vintage camera",
		Description:  "Rangefinder, 1950s",
		InitialPrice: 100,
		CurrentPrice: 100,
		StartDate:    fixedNow.Add(-time.Hour),
		EndDate:      fixedNow.Add(time.Hour),
		Status:       models.LotStatusInProgress,
		CategoryID:   1,
	}
}

func validLotRequest() *models.LotRequest {
	return &models.LotRequest{
		Title:        "Vintage camera",
		Description:  "Rangefinder, 1950s",
		InitialPrice: 100,
		StartDate:    fixedNow.Add(time.Hour),
		EndDate:      fixedNow.Add(48 * time.Hour),
		CategoryID:   1,
	}
}

func methodNames(calls []mock.Call) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Method)
	}
	return names
}
