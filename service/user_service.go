package service

import (
	"context"
	"fmt"

	"auctionhouse/config"
	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// userService implements the UserService interface
type userService struct {
	uowFactory   UnitOfWorkFactory
	topUpMinimum int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cfg *config.Config) UserService {
	return &userService{
		uowFactory:   uowFactory,
		topUpMinimum: cfg.TopUpMinimum,
	}
}

// TopUp credits the user's balance and returns the new balance
func (s *userService) TopUp(ctx context.Context, username string, amount int64) (int64, error) {
	if amount < s.topUpMinimum {
		return 0, fmt.Errorf("%w: minimum top-up is %d", ErrValidation, s.topUpMinimum)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return 0, err
	}

	entry, err := Credit(ctx, uow, user.ID, amount, models.TransactionTypeTopUp, nil, nil)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"username":   username,
		"amount":     amount,
		"newBalance": entry.BalanceAfter,
	}).Info("Balance topped up")

	return entry.BalanceAfter, nil
}

// GetHistory returns the user's ledger entries, newest first
func (s *userService) GetHistory(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return nil, err
	}

	entries, err := uow.LedgerRepository().ListByUser(ctx, user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history of %s: %w", username, err)
	}
	return entries, nil
}

// GetProfile returns the user's public profile
func (s *userService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		Username: user.Username,
		Email:    user.Email,
		Balance:  user.Balance,
	}, nil
}

// Reconcile compares the cached balance with the sum of the user's ledger entries
func (s *userService) Reconcile(ctx context.Context, username string) (*models.ReconciliationReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := requireUser(ctx, uow, username)
	if err != nil {
		return nil, err
	}

	sum, count, err := uow.LedgerRepository().SumByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger of %s: %w", username, err)
	}

	report := &models.ReconciliationReport{
		Username:  user.Username,
		Balance:   user.Balance,
		LedgerSum: sum,
		Entries:   count,
	}
	if !report.Consistent() {
		log.WithFields(log.Fields{
			"username":  username,
			"balance":   user.Balance,
			"ledgerSum": sum,
		}).Error("Balance does not match ledger")
	}
	return report, nil
}
