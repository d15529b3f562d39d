package models

import (
	"time"
)

// Follow marks a lot a user is watching
type Follow struct {
	UserID     int64     `db:"user_id"`
	LotID      int64     `db:"lot_id"`
	FollowedAt time.Time `db:"followed_at"`
}
