package cmd

import (
	"context"

	"auctionhouse/events"

	log "github.com/sirupsen/logrus"
)

// registerAuditSubscribers logs committed domain events
func registerAuditSubscribers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		ev := e.(events.BalanceChangeEvent)
		log.WithFields(log.Fields{
			"event":      ev.Type(),
			"userID":     ev.UserID,
			"type":       ev.TransactionType,
			"change":     ev.ChangeAmount,
			"newBalance": ev.NewBalance,
		}).Debug("Balance changed")
	})

	bus.Subscribe(events.EventTypeBidPlaced, func(ctx context.Context, e events.Event) {
		ev := e.(events.BidPlacedEvent)
		log.WithFields(log.Fields{
			"event":    ev.Type(),
			"lotID":    ev.LotID,
			"bidID":    ev.BidID,
			"bidderID": ev.BidderID,
			"amount":   ev.Amount,
		}).Info("Bid placed")
	})

	bus.Subscribe(events.EventTypeLotStatusChanged, func(ctx context.Context, e events.Event) {
		ev := e.(events.LotStatusChangedEvent)
		log.WithFields(log.Fields{
			"event":     ev.Type(),
			"lotID":     ev.LotID,
			"oldStatus": ev.OldStatus,
			"newStatus": ev.NewStatus,
			"price":     ev.Price,
		}).Info("Lot status changed")
	})

	bus.Subscribe(events.EventTypeLotCancelled, func(ctx context.Context, e events.Event) {
		ev := e.(events.LotCancelledEvent)
		log.WithFields(log.Fields{
			"event":        ev.Type(),
			"lotID":        ev.LotID,
			"ownerID":      ev.OwnerID,
			"refundAmount": ev.RefundAmount,
		}).Info("Lot cancelled")
	})

	bus.Subscribe(events.EventTypeLotPurged, func(ctx context.Context, e events.Event) {
		ev := e.(events.LotPurgedEvent)
		log.WithFields(log.Fields{
			"event":  ev.Type(),
			"lotID":  ev.LotID,
			"status": ev.Status,
		}).Info("Lot purged")
	})

	bus.Subscribe(events.EventTypeUserRegistered, func(ctx context.Context, e events.Event) {
		ev := e.(events.UserRegisteredEvent)
		log.WithFields(log.Fields{
			"event":    ev.Type(),
			"userID":   ev.UserID,
			"username": ev.Username,
		}).Info("User registered")
	})
}
