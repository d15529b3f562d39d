package service

import (
	"context"
	"fmt"

	"auctionhouse/events"
	"auctionhouse/models"
)

// RecordBalanceChange records a ledger entry and publishes the matching event.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          entry.UserID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		TransactionType: entry.TransactionType,
		ChangeAmount:    entry.Amount,
		LotID:           entry.LotID,
	})

	return nil
}

// Credit adds amount to the user's balance and records the entry
func Credit(ctx context.Context, uow UnitOfWork, userID, amount int64, txType models.TransactionType, lotID *int64, metadata map[string]any) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrValidation)
	}

	newBalance, err := uow.UserRepository().AddBalance(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit user %d: %w", userID, err)
	}

	entry := &models.LedgerEntry{
		UserID:              userID,
		Amount:              amount,
		TransactionType:     txType,
		BalanceBefore:       newBalance - amount,
		BalanceAfter:        newBalance,
		LotID:               lotID,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit removes amount from the user's balance and records a negative entry.
// Fails with ErrInsufficientFunds rather than overdraw.
func Debit(ctx context.Context, uow UnitOfWork, userID, amount int64, txType models.TransactionType, lotID *int64, metadata map[string]any) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", ErrValidation)
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit user %d: %w", userID, err)
	}

	entry := &models.LedgerEntry{
		UserID:              userID,
		Amount:              -amount,
		TransactionType:     txType,
		BalanceBefore:       newBalance + amount,
		BalanceAfter:        newBalance,
		LotID:               lotID,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
