package repository

import (
	"context"
	"errors"
	"fmt"

	"auctionhouse/database"
	"auctionhouse/models"
	"auctionhouse/service"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, balance, failed_attempts,
	account_locked, lock_time, roles, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Balance,
		&user.FailedAttempts,
		&user.AccountLocked,
		&user.LockTime,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return user, nil
}

// GetByUsernameForUpdate retrieves a user and holds its row lock for the rest of the transaction
func (r *UserRepository) GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", username, err)
	}
	return user, nil
}

// ExistsByUsernameOrEmail reports whether either identifier is taken
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, balance, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, failed_attempts, account_locked, created_at, updated_at
	`

	roles := user.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	err := r.q.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, user.Balance, roles).Scan(
		&user.ID,
		&user.FailedAttempts,
		&user.AccountLocked,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: username or email already registered", service.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}

	user.Roles = roles
	return nil
}

// AddBalance credits the user and returns the new balance
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: user %d", service.ErrNotFound, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// DeductBalance debits the user only when the balance covers the amount
func (r *UserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the user is gone or the guard failed, tell them apart
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("failed to check user %d: %w", userID, err)
		}
		if !exists {
			return 0, fmt.Errorf("%w: user %d", service.ErrNotFound, userID)
		}
		return 0, fmt.Errorf("%w: user %d cannot cover %d", service.ErrInsufficientFunds, userID, amount)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// UpdateLockout persists the failed login counter and lock state
func (r *UserRepository) UpdateLockout(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET failed_attempts = $1, account_locked = $2, lock_time = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, user.FailedAttempts, user.AccountLocked, user.LockTime, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update lockout for user %d: %w", user.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", service.ErrNotFound, user.ID)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", service.ErrNotFound, userID)
	}
	return nil
}
