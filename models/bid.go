package models

import (
	"time"
)

// Bid is an accepted offer on a lot. Bids are never updated.
type Bid struct {
	ID             int64     `db:"id" json:"id"`
	LotID          int64     `db:"lot_id" json:"lotId"`
	BidderID       int64     `db:"bidder_id" json:"-"`
	BidderUsername string    `db:"-" json:"bidderUsername"`
	Amount         int64     `db:"amount" json:"amount"`
	PlacedAt       time.Time `db:"placed_at" json:"placedAt"`
}
