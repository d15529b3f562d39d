package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeTopUp        TransactionType = "TOP_UP"
	TransactionTypeBidReserve   TransactionType = "BID_RESERVE"
	TransactionTypeBidRefund    TransactionType = "BID_REFUND"
	TransactionTypeSaleProceeds TransactionType = "SALE_PROCEEDS"
)

// LedgerEntry is an immutable record of one change to a user's balance.
// Amount is signed: credits are positive, debits negative.
type LedgerEntry struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              int64           `db:"user_id" json:"-"`
	Amount              int64           `db:"amount" json:"amount"`
	TransactionType     TransactionType `db:"transaction_type" json:"type"`
	BalanceBefore       int64           `db:"balance_before" json:"balanceBefore"`
	BalanceAfter        int64           `db:"balance_after" json:"balanceAfter"`
	LotID               *int64          `db:"lot_id" json:"lotId,omitempty"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"metadata,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"timestamp"`
}

// ReconciliationReport compares a user's cached balance against the ledger
type ReconciliationReport struct {
	Username  string `json:"username"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledgerSum"`
	Entries   int64  `json:"entries"`
}

// Consistent reports whether the cached balance matches the ledger
func (r ReconciliationReport) Consistent() bool {
	return r.Balance == r.LedgerSum
}
