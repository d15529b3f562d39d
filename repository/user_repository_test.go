package repository

import (
	"context"
	"testing"
	"time"

	"auctionhouse/repository/testutil"
	"auctionhouse/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		user := testutil.CreateTestUser("alice")
		require.NoError(t, repo.Create(ctx, user))

		assert.NotZero(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, 0, user.FailedAttempts)

		found, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "alice@example.com", found.Email)
		assert.Equal(t, []string{"ROLE_USER"}, found.Roles)
		assert.Nil(t, found.LockTime)
	})

	t.Run("duplicate username", func(t *testing.T) {
		user := testutil.CreateTestUser("bob")
		require.NoError(t, repo.Create(ctx, user))

		dup := testutil.CreateTestUser("bob")
		dup.Email = "other@example.com"
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("exists by username or email", func(t *testing.T) {
		exists, err := repo.ExistsByUsernameOrEmail(ctx, "nobody", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByUsernameOrEmail(ctx, "nobody", "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing user", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestUserRepository_Balance(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUserWithBalance("carol", 500)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("add", func(t *testing.T) {
		balance, err := repo.AddBalance(ctx, user.ID, 250)
		require.NoError(t, err)
		assert.Equal(t, int64(750), balance)
	})

	t.Run("deduct within balance", func(t *testing.T) {
		balance, err := repo.DeductBalance(ctx, user.ID, 750)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("deduct beyond balance", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, user.ID, 1)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		found, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.Balance)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, 999999, 1)
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = repo.AddBalance(ctx, 999999, 1)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestUserRepository_UpdateLockout(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("dave")
	require.NoError(t, repo.Create(ctx, user))

	lockedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	user.FailedAttempts = 5
	user.AccountLocked = true
	user.LockTime = &lockedAt
	require.NoError(t, repo.UpdateLockout(ctx, user))

	found, err := repo.GetByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 5, found.FailedAttempts)
	assert.True(t, found.AccountLocked)
	require.NotNil(t, found.LockTime)
	assert.True(t, found.LockTime.Equal(lockedAt))

	user.FailedAttempts = 0
	user.AccountLocked = false
	user.LockTime = nil
	require.NoError(t, repo.UpdateLockout(ctx, user))

	found, err = repo.GetByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, found.AccountLocked)
	assert.Nil(t, found.LockTime)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("erin")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))

	found, err := repo.GetByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)

	err = repo.UpdatePassword(ctx, 999999, "new-hash")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
