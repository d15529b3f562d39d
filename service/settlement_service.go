package service

import (
	"context"
	"fmt"
	"time"

	"auctionhouse/config"
	"auctionhouse/events"
	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

// settlementService drives lots through their lifecycle without user action.
// Every lot is handled in its own transaction so one failure never blocks the rest.
type settlementService struct {
	uowFactory     UnitOfWorkFactory
	lifecycle      lotLifecycle
	purgeRetention time.Duration
	now            func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory:     uowFactory,
		lifecycle:      lotLifecycle{sellerPayoutEnabled: cfg.SellerPayoutEnabled},
		purgeRetention: cfg.PurgeRetention,
		now:            time.Now,
	}
}

// SettleLots refreshes every lot whose stored status is behind the clock
func (s *settlementService) SettleLots(ctx context.Context) (*models.SweepResult, error) {
	started := time.Now()
	now := s.now()

	ids, err := s.candidates(ctx, func(repo LotRepository) ([]int64, error) {
		return repo.ListIDsDueForRefresh(ctx, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots due for settlement: %w", err)
	}

	result := &models.SweepResult{Candidates: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		changed, err := s.settleLot(ctx, id, now)
		if err != nil {
			log.WithFields(log.Fields{
				"lotID": id,
				"error": err,
			}).Error("Failed to settle lot")
			result.Failed++
			continue
		}
		if changed {
			result.Succeeded++
		} else {
			result.Skipped++
		}
	}

	result.Duration = time.Since(started)
	return result, ctx.Err()
}

func (s *settlementService) settleLot(ctx context.Context, lotID int64, now time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByIDForUpdate(ctx, lotID)
	if err != nil {
		return false, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		// Cancelled or purged since the candidate scan
		return false, nil
	}

	changed, err := s.lifecycle.refresh(ctx, uow, lot, now)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID":  lotID,
		"status": lot.Status,
		"price":  lot.CurrentPrice,
	}).Info("Lot settled")
	return true, nil
}

// PurgeLots deletes finished lots whose end date is older than the retention window
func (s *settlementService) PurgeLots(ctx context.Context) (*models.SweepResult, error) {
	started := time.Now()
	cutoff := PurgeCutoff(s.now(), s.purgeRetention)
	terminal := []models.LotStatus{models.LotStatusSold, models.LotStatusUnsold}

	ids, err := s.candidates(ctx, func(repo LotRepository) ([]int64, error) {
		return repo.ListIDsEndedBefore(ctx, terminal, cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots due for purge: %w", err)
	}

	result := &models.SweepResult{Candidates: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		purged, err := s.purgeLot(ctx, id, cutoff)
		if err != nil {
			log.WithFields(log.Fields{
				"lotID": id,
				"error": err,
			}).Error("Failed to purge lot")
			result.Failed++
			continue
		}
		if purged {
			result.Succeeded++
		} else {
			result.Skipped++
		}
	}

	result.Duration = time.Since(started)
	return result, ctx.Err()
}

func (s *settlementService) purgeLot(ctx context.Context, lotID int64, cutoff time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lot, err := uow.LotRepository().GetByIDForUpdate(ctx, lotID)
	if err != nil {
		return false, fmt.Errorf("failed to get lot: %w", err)
	}
	// Re-check under the lock: the owner may have relisted since the scan
	if lot == nil || !lot.Status.IsTerminal() || !lot.EndDate.Before(cutoff) {
		return false, nil
	}

	if err := deleteLotCascade(ctx, uow, lot.ID); err != nil {
		return false, err
	}

	uow.EventBus().Publish(events.LotPurgedEvent{
		LotID:  lot.ID,
		Status: lot.Status,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID":  lotID,
		"status": lot.Status,
	}).Info("Lot purged")
	return true, nil
}

// candidates runs a read-only scan in a short transaction of its own
func (s *settlementService) candidates(ctx context.Context, scan func(LotRepository) ([]int64, error)) ([]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return scan(uow.LotRepository())
}
