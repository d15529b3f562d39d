package worker

import (
	"context"
	"time"

	"auctionhouse/service"

	log "github.com/sirupsen/logrus"
)

// PurgeWorker deletes finished lots once a day
type PurgeWorker struct {
	settlement service.SettlementService
	hour       int
	now        func() time.Time
}

// NewPurgeWorker creates a worker that runs at the given hour, UTC
func NewPurgeWorker(settlement service.SettlementService, hour int) *PurgeWorker {
	return &PurgeWorker{
		settlement: settlement,
		hour:       hour,
		now:        time.Now,
	}
}

// Start begins the daily purge loop. Returns a cleanup function to stop the worker.
func (w *PurgeWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("Purge worker started, runs daily at %02d:00 UTC", w.hour)

		for {
			now := w.now()
			waitDuration := service.NextDailyRun(now, w.hour).Sub(now)
			log.Debugf("Purge worker waiting %v until next run", waitDuration)

			timer := time.NewTimer(waitDuration)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info("Purge worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				timer.Stop()
				log.Info("Purge worker shutting down (stop requested)...")
				return
			case <-timer.C:
				w.runOnce(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (w *PurgeWorker) runOnce(ctx context.Context) {
	result, err := w.settlement.PurgeLots(ctx)
	if err != nil {
		log.Errorf("Error purging lots: %v", err)
		return
	}
	logSweep("purge", result)
}
