package events

import (
	"context"
	"sync"

	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeUserRegistered   EventType = "user_registered"
	EventTypeBidPlaced        EventType = "bid_placed"
	EventTypeLotStatusChanged EventType = "lot_status_changed"
	EventTypeLotCancelled     EventType = "lot_cancelled"
	EventTypeLotPurged        EventType = "lot_purged"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is published for every ledger entry
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
	LotID           *int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserRegisteredEvent represents a new account
type UserRegisteredEvent struct {
	UserID   int64
	Username string
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// BidPlacedEvent represents an accepted bid
type BidPlacedEvent struct {
	LotID            int64
	BidID            int64
	BidderID         int64
	Amount           int64
	PreviousLeaderID *int64
	PreviousPrice    int64
}

func (e BidPlacedEvent) Type() EventType {
	return EventTypeBidPlaced
}

// LotStatusChangedEvent represents a lifecycle transition of a lot
type LotStatusChangedEvent struct {
	LotID     int64
	OldStatus models.LotStatus
	NewStatus models.LotStatus
	LeaderID  *int64
	Price     int64
}

func (e LotStatusChangedEvent) Type() EventType {
	return EventTypeLotStatusChanged
}

// LotCancelledEvent represents an owner cancelling a running auction
type LotCancelledEvent struct {
	LotID          int64
	OwnerID        int64
	RefundedUserID *int64
	RefundAmount   int64
}

func (e LotCancelledEvent) Type() EventType {
	return EventTypeLotCancelled
}

// LotPurgedEvent represents a finished lot removed by the retention sweep
type LotPurgedEvent struct {
	LotID  int64
	Status models.LotStatus
}

func (e LotPurgedEvent) Type() EventType {
	return EventTypeLotPurged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler")
}

// Emit publishes an event to all registered handlers.
// Handlers run on their own goroutines; a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events waiting for commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful commit.
// Handlers get a background context since the request context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
