package repository

import (
	"context"
	"fmt"

	"auctionhouse/database"
	"auctionhouse/models"
)

// BidRepository implements the BidRepository interface
type BidRepository struct {
	q queryable
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *database.DB) *BidRepository {
	return &BidRepository{q: db.Pool}
}

// newBidRepositoryWithTx creates a new bid repository with a transaction
func newBidRepositoryWithTx(tx queryable) *BidRepository {
	return &BidRepository{q: tx}
}

// Create appends a bid
func (r *BidRepository) Create(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (lot_id, bidder_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, placed_at
	`

	err := r.q.QueryRow(ctx, query, bid.LotID, bid.BidderID, bid.Amount).Scan(&bid.ID, &bid.PlacedAt)
	if err != nil {
		return fmt.Errorf("failed to create bid on lot %d: %w", bid.LotID, err)
	}
	return nil
}

// ListByLot returns the bids on a lot, highest first
func (r *BidRepository) ListByLot(ctx context.Context, lotID int64) ([]*models.Bid, error) {
	query := `
		SELECT b.id, b.lot_id, b.bidder_id, u.username, b.amount, b.placed_at
		FROM bids b
		JOIN users u ON u.id = b.bidder_id
		WHERE b.lot_id = $1
		ORDER BY b.amount DESC, b.placed_at ASC
	`

	rows, err := r.q.Query(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids on lot %d: %w", lotID, err)
	}
	defer rows.Close()

	var bids []*models.Bid
	for rows.Next() {
		var bid models.Bid
		if err := rows.Scan(&bid.ID, &bid.LotID, &bid.BidderID, &bid.BidderUsername, &bid.Amount, &bid.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}

// DeleteByLot removes every bid on a lot
func (r *BidRepository) DeleteByLot(ctx context.Context, lotID int64) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM bids WHERE lot_id = $1`, lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bids on lot %d: %w", lotID, err)
	}
	return result.RowsAffected(), nil
}
