package models

import (
	"time"
)

// LotStatus represents the auction status of a lot
type LotStatus string

const (
	LotStatusPending    LotStatus = "PENDING"
	LotStatusInProgress LotStatus = "IN_PROGRESS"
	LotStatusSold       LotStatus = "SOLD"
	LotStatusUnsold     LotStatus = "UNSOLD"
)

// IsTerminal reports whether the auction for this status has ended
func (s LotStatus) IsTerminal() bool {
	return s == LotStatusSold || s == LotStatusUnsold
}

// Lot represents an item listed for auction
type Lot struct {
	ID              int64     `db:"id"`
	OwnerID         int64     `db:"owner_id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	InitialPrice    int64     `db:"initial_price"`
	CurrentPrice    int64     `db:"current_price"`
	CurrentLeaderID *int64    `db:"current_leader_id"`
	StartDate       time.Time `db:"start_date"`
	EndDate         time.Time `db:"end_date"`
	Status          LotStatus `db:"status"`
	CategoryID      int64     `db:"category_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ComputeStatus derives the status a lot should have at the given instant.
// Both boundaries belong to IN_PROGRESS.
func ComputeStatus(now, startDate, endDate time.Time, hasLeader bool) LotStatus {
	switch {
	case now.Before(startDate):
		return LotStatusPending
	case now.After(endDate):
		if hasLeader {
			return LotStatusSold
		}
		return LotStatusUnsold
	default:
		return LotStatusInProgress
	}
}

// HasLeader reports whether any bid has been accepted since the lot was last listed
func (l *Lot) HasLeader() bool {
	return l.CurrentLeaderID != nil
}

// IsOwnedBy checks if the given user owns the lot
func (l *Lot) IsOwnedBy(userID int64) bool {
	return l.OwnerID == userID
}

// IsLeader checks if the given user currently holds the highest bid
func (l *Lot) IsLeader(userID int64) bool {
	return l.CurrentLeaderID != nil && *l.CurrentLeaderID == userID
}

// Refresh recomputes the lot's status and reports whether it changed
func (l *Lot) Refresh(now time.Time) bool {
	next := ComputeStatus(now, l.StartDate, l.EndDate, l.HasLeader())
	if next == l.Status {
		return false
	}
	l.Status = next
	return true
}

// Relist resets the lot for a fresh auction epoch using the given listing details
func (l *Lot) Relist(req *LotRequest) {
	l.Title = req.Title
	l.Description = req.Description
	l.InitialPrice = req.InitialPrice
	l.CurrentPrice = req.InitialPrice
	l.StartDate = req.StartDate
	l.EndDate = req.EndDate
	l.CategoryID = req.CategoryID
	l.CurrentLeaderID = nil
	l.Status = LotStatusPending
}

// LotRequest carries the owner-supplied listing details
type LotRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description" binding:"required"`
	InitialPrice int64     `json:"initialPrice"`
	StartDate    time.Time `json:"startDate" binding:"required"`
	EndDate      time.Time `json:"endDate" binding:"required"`
	CategoryID   int64     `json:"categoryId" binding:"required"`
}

// LotDetail is a lot joined with the names a client needs to render it
type LotDetail struct {
	ID                    int64     `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	InitialPrice          int64     `json:"initialPrice"`
	CurrentPrice          int64     `json:"currentPrice"`
	StartDate             time.Time `json:"startDate"`
	EndDate               time.Time `json:"endDate"`
	Status                LotStatus `json:"status"`
	CategoryID            int64     `json:"categoryId"`
	CategoryName          string    `json:"categoryName"`
	OwnerUsername         string    `json:"ownerUsername"`
	CurrentLeaderUsername *string   `json:"currentLeaderUsername,omitempty"`
}

// Refresh recomputes the displayed status from the clock without touching storage
func (d *LotDetail) Refresh(now time.Time) {
	d.Status = ComputeStatus(now, d.StartDate, d.EndDate, d.CurrentLeaderUsername != nil)
}

// LotPage is one page of a lot listing
type LotPage struct {
	Lots  []*LotDetail `json:"lots"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Total int64        `json:"total"`
}
