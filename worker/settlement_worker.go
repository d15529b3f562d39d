package worker

import (
	"context"
	"time"

	"auctionhouse/models"
	"auctionhouse/service"

	log "github.com/sirupsen/logrus"
)

// SettlementWorker periodically settles lots whose auctions have ended
type SettlementWorker struct {
	settlement service.SettlementService
	interval   time.Duration
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(settlement service.SettlementService, interval time.Duration) *SettlementWorker {
	return &SettlementWorker{
		settlement: settlement,
		interval:   interval,
	}
}

// Start runs a sweep immediately and then on every tick.
// Returns a cleanup function to stop the worker.
func (w *SettlementWorker) Start(ctx context.Context) func() {
	ticker := time.NewTicker(w.interval)
	stopChan := make(chan struct{})

	go func() {
		defer ticker.Stop()
		log.WithField("interval", w.interval).Info("Settlement worker started")

		w.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Settlement worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Settlement worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (w *SettlementWorker) runOnce(ctx context.Context) {
	result, err := w.settlement.SettleLots(ctx)
	if err != nil {
		log.Errorf("Error settling lots: %v", err)
		return
	}
	logSweep("settlement", result)
}

func logSweep(name string, result *models.SweepResult) {
	entry := log.WithFields(log.Fields{
		"sweep":      name,
		"candidates": result.Candidates,
		"succeeded":  result.Succeeded,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"duration":   result.Duration,
	})
	switch {
	case result.Failed > 0:
		entry.Warn("Sweep completed with failures")
	case result.Candidates > 0:
		entry.Info("Sweep completed")
	default:
		entry.Debug("Sweep found nothing to do")
	}
}
