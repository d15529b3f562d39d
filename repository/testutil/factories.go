package testutil

import (
	"context"
	"testing"
	"time"

	"auctionhouse/database"
	"auctionhouse/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a test user with default values. The password hash is
// a placeholder; repository tests never check it.
func CreateTestUser(username string) *models.User {
	return &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		Roles:        []string{models.RoleUser},
	}
}

// CreateTestUserWithBalance creates a test user with a starting balance
func CreateTestUserWithBalance(username string, balance int64) *models.User {
	user := CreateTestUser(username)
	user.Balance = balance
	return user
}

// CreateTestLot creates a pending lot that opens in an hour and runs for a day
func CreateTestLot(ownerID, categoryID int64, now time.Time) *models.Lot {
	return &models.Lot{
		OwnerID:      ownerID,
		Title:        "Pocket watch",
		Description:  "Silver, keeps time",
		InitialPrice: 100,
		CurrentPrice: 100,
		StartDate:    now.Add(time.Hour),
		EndDate:      now.Add(25 * time.Hour),
		Status:       models.LotStatusPending,
		CategoryID:   categoryID,
	}
}

// CreateRunningLot creates a lot that is mid-auction at now
func CreateRunningLot(ownerID, categoryID int64, now time.Time) *models.Lot {
	lot := CreateTestLot(ownerID, categoryID, now)
	lot.StartDate = now.Add(-time.Hour)
	lot.EndDate = now.Add(time.Hour)
	lot.Status = models.LotStatusInProgress
	return lot
}

// CategoryID looks up a seeded category by name
func CategoryID(t *testing.T, db *database.DB, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	require.NoError(t, err, "seeded category %q", name)
	return id
}
