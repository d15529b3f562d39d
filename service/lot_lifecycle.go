package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auctionhouse/events"
	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

// lotLifecycle is the single write path for status transitions driven by the clock.
// Callers must hold the lot row lock.
type lotLifecycle struct {
	sellerPayoutEnabled bool
}

// refresh recomputes the lot's status and persists it when it changed
func (l lotLifecycle) refresh(ctx context.Context, uow UnitOfWork, lot *models.Lot, now time.Time) (bool, error) {
	oldStatus := lot.Status
	if !lot.Refresh(now) {
		return false, nil
	}

	if err := uow.LotRepository().UpdateStatus(ctx, lot.ID, lot.Status); err != nil {
		return false, fmt.Errorf("failed to update status of lot %d: %w", lot.ID, err)
	}

	if lot.Status == models.LotStatusSold && l.sellerPayoutEnabled {
		metadata := map[string]any{
			"winner_id":   *lot.CurrentLeaderID,
			"final_price": lot.CurrentPrice,
		}
		if _, err := Credit(ctx, uow, lot.OwnerID, lot.CurrentPrice, models.TransactionTypeSaleProceeds, &lot.ID, metadata); err != nil {
			return false, fmt.Errorf("failed to pay out lot %d: %w", lot.ID, err)
		}
	}

	uow.EventBus().Publish(events.LotStatusChangedEvent{
		LotID:     lot.ID,
		OldStatus: oldStatus,
		NewStatus: lot.Status,
		LeaderID:  lot.CurrentLeaderID,
		Price:     lot.CurrentPrice,
	})

	log.WithFields(log.Fields{
		"lotID":     lot.ID,
		"oldStatus": oldStatus,
		"newStatus": lot.Status,
	}).Debug("Lot status refreshed")

	return true, nil
}

// lockAndRefresh loads the lot under a row lock and refreshes it
func (l lotLifecycle) lockAndRefresh(ctx context.Context, uow UnitOfWork, lotID int64, now time.Time) (*models.Lot, error) {
	lot, err := uow.LotRepository().GetByIDForUpdate(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lot %d", ErrNotFound, lotID)
	}

	if _, err := l.refresh(ctx, uow, lot, now); err != nil {
		return nil, err
	}
	return lot, nil
}

// validateLotRequest checks owner-supplied listing details
func validateLotRequest(req *models.LotRequest, now time.Time) error {
	if req == nil {
		return fmt.Errorf("%w: lot details are required", ErrValidation)
	}
	if isBlank(req.Title) {
		return fmt.Errorf("%w: title must not be blank", ErrValidation)
	}
	if isBlank(req.Description) {
		return fmt.Errorf("%w: description must not be blank", ErrValidation)
	}
	if req.InitialPrice < 0 {
		return fmt.Errorf("%w: initial price must not be negative", ErrValidation)
	}
	if !req.EndDate.After(req.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	if !req.EndDate.After(now) {
		return fmt.Errorf("%w: end date must be in the future", ErrValidation)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
