package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"auctionhouse/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSettlementService signals every sweep on a channel
type mockSettlementService struct {
	mock.Mock
	settled chan struct{}
	purged  chan struct{}
}

func newMockSettlementService() *mockSettlementService {
	return &mockSettlementService{
		settled: make(chan struct{}, 16),
		purged:  make(chan struct{}, 16),
	}
}

func (m *mockSettlementService) SettleLots(ctx context.Context) (*models.SweepResult, error) {
	args := m.Called(ctx)
	m.settled <- struct{}{}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

func (m *mockSettlementService) PurgeLots(ctx context.Context) (*models.SweepResult, error) {
	args := m.Called(ctx)
	m.purged <- struct{}{}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

func waitFor(t *testing.T, ch <-chan struct{}, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			require.FailNow(t, "timed out waiting for sweep", "got %d of %d", i, times)
		}
	}
}

func TestSettlementWorker_RunsImmediatelyAndOnTick(t *testing.T) {
	svc := newMockSettlementService()
	svc.On("SettleLots", mock.Anything).Return(&models.SweepResult{Candidates: 1, Succeeded: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := NewSettlementWorker(svc, 20*time.Millisecond).Start(ctx)
	defer stop()

	waitFor(t, svc.settled, 3)
	svc.AssertCalled(t, "SettleLots", mock.Anything)
}

func TestSettlementWorker_KeepsRunningAfterError(t *testing.T) {
	svc := newMockSettlementService()
	svc.On("SettleLots", mock.Anything).Return(nil, errors.New("database unavailable")).Once()
	svc.On("SettleLots", mock.Anything).Return(&models.SweepResult{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := NewSettlementWorker(svc, 20*time.Millisecond).Start(ctx)
	defer stop()

	waitFor(t, svc.settled, 2)
}

func TestSettlementWorker_StopsOnStop(t *testing.T) {
	svc := newMockSettlementService()
	svc.On("SettleLots", mock.Anything).Return(&models.SweepResult{}, nil)

	stop := NewSettlementWorker(svc, 20*time.Millisecond).Start(context.Background())
	waitFor(t, svc.settled, 1)
	stop()

	// Let an in-flight tick drain, then expect silence
	time.Sleep(50 * time.Millisecond)
	for len(svc.settled) > 0 {
		<-svc.settled
	}
	select {
	case <-svc.settled:
		t.Fatal("worker swept after stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPurgeWorker_RunsAtScheduledHour(t *testing.T) {
	svc := newMockSettlementService()
	svc.On("PurgeLots", mock.Anything).Return(&models.SweepResult{Candidates: 2, Succeeded: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewPurgeWorker(svc, 2)
	// Real time advances, the fake clock keeps the next run 30ms away
	w.now = func() time.Time {
		return time.Date(2026, 6, 1, 1, 59, 59, int(970*time.Millisecond), time.UTC)
	}

	stop := w.Start(ctx)
	defer stop()

	waitFor(t, svc.purged, 1)
	svc.AssertCalled(t, "PurgeLots", mock.Anything)
}

func TestPurgeWorker_StopsOnContextCancel(t *testing.T) {
	svc := newMockSettlementService()

	ctx, cancel := context.WithCancel(context.Background())
	w := NewPurgeWorker(svc, 2)
	w.now = func() time.Time {
		return time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	}

	stop := w.Start(ctx)
	defer stop()
	cancel()

	select {
	case <-svc.purged:
		t.Fatal("purge ran before its hour")
	case <-time.After(100 * time.Millisecond):
	}
	svc.AssertNotCalled(t, "PurgeLots", mock.Anything)
}
