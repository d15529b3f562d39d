package repository

import (
	"context"
	"fmt"

	"auctionhouse/database"
)

// FollowRepository implements the FollowRepository interface
type FollowRepository struct {
	q queryable
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *database.DB) *FollowRepository {
	return &FollowRepository{q: db.Pool}
}

// newFollowRepositoryWithTx creates a new follow repository with a transaction
func newFollowRepositoryWithTx(tx queryable) *FollowRepository {
	return &FollowRepository{q: tx}
}

// Exists reports whether the user follows the lot
func (r *FollowRepository) Exists(ctx context.Context, userID, lotID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = $1 AND lot_id = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, userID, lotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow of lot %d by user %d: %w", lotID, userID, err)
	}
	return exists, nil
}

// Add records the follow. Following twice is a no-op.
func (r *FollowRepository) Add(ctx context.Context, userID, lotID int64) (bool, error) {
	query := `
		INSERT INTO follows (user_id, lot_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, lot_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, userID, lotID)
	if err != nil {
		return false, fmt.Errorf("failed to follow lot %d for user %d: %w", lotID, userID, err)
	}
	return result.RowsAffected() == 1, nil
}

// DeleteByLot removes every follow of a lot
func (r *FollowRepository) DeleteByLot(ctx context.Context, lotID int64) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM follows WHERE lot_id = $1`, lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete follows of lot %d: %w", lotID, err)
	}
	return result.RowsAffected(), nil
}
