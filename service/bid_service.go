package service

import (
	"context"
	"fmt"
	"time"

	"auctionhouse/config"
	"auctionhouse/database"
	"auctionhouse/events"
	"auctionhouse/models"

	log "github.com/sirupsen/logrus"
)

// maxBidAttempts bounds retries of a bid that lost a deadlock or serialization race
const maxBidAttempts = 3

type bidService struct {
	uowFactory UnitOfWorkFactory
	lifecycle  lotLifecycle
	now        func() time.Time
}

// NewBidService creates a new bid service
func NewBidService(uowFactory UnitOfWorkFactory, cfg *config.Config) BidService {
	return &bidService{
		uowFactory: uowFactory,
		lifecycle:  lotLifecycle{sellerPayoutEnabled: cfg.SellerPayoutEnabled},
		now:        time.Now,
	}
}

// PlaceBid refunds the previous leader, reserves the bidder's funds and records the bid
// in one transaction. The lot row stays locked from the status check to the commit.
func (s *bidService) PlaceBid(ctx context.Context, bidderUsername string, lotID int64, amount int64) (*models.Bid, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", ErrValidation)
	}

	var err error
	for attempt := 1; attempt <= maxBidAttempts; attempt++ {
		var bid *models.Bid
		bid, err = s.placeBid(ctx, bidderUsername, lotID, amount)
		if err == nil || !database.IsRetryable(err) {
			return bid, err
		}
		log.WithFields(log.Fields{
			"lotID":   lotID,
			"bidder":  bidderUsername,
			"attempt": attempt,
			"error":   err,
		}).Warn("Bid transaction conflicted, retrying")
	}
	return nil, err
}

func (s *bidService) placeBid(ctx context.Context, bidderUsername string, lotID int64, amount int64) (*models.Bid, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bidder, err := requireUser(ctx, uow, bidderUsername)
	if err != nil {
		return nil, err
	}

	lot, err := s.lifecycle.lockAndRefresh(ctx, uow, lotID, now)
	if err != nil {
		return nil, err
	}

	if lot.Status != models.LotStatusInProgress {
		return nil, fmt.Errorf("%w: bids on lot %d are not open (status %s)", ErrStateConflict, lotID, lot.Status)
	}
	if amount <= lot.CurrentPrice {
		return nil, fmt.Errorf("%w: bid of %d must exceed the current price of %d", ErrValidation, amount, lot.CurrentPrice)
	}
	if bidder.Balance < amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, bidder.Balance, amount)
	}
	if lot.IsLeader(bidder.ID) {
		return nil, fmt.Errorf("%w: %s already holds the highest bid on lot %d", ErrValidation, bidderUsername, lotID)
	}

	previousLeader := lot.CurrentLeaderID
	previousPrice := lot.CurrentPrice

	refund := func() error {
		metadata := map[string]any{
			"outbid_by": bidder.ID,
			"new_price": amount,
		}
		_, err := Credit(ctx, uow, *previousLeader, previousPrice, models.TransactionTypeBidRefund, &lot.ID, metadata)
		return err
	}
	reserve := func() error {
		metadata := map[string]any{
			"previous_price": previousPrice,
		}
		_, err := Debit(ctx, uow, bidder.ID, amount, models.TransactionTypeBidReserve, &lot.ID, metadata)
		return err
	}

	// User rows are always updated in ascending id order
	steps := []func() error{reserve}
	if previousLeader != nil {
		if *previousLeader < bidder.ID {
			steps = []func() error{refund, reserve}
		} else {
			steps = []func() error{reserve, refund}
		}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	bid := &models.Bid{
		LotID:          lot.ID,
		BidderID:       bidder.ID,
		BidderUsername: bidder.Username,
		Amount:         amount,
		PlacedAt:       now,
	}
	if err := uow.BidRepository().Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to record bid: %w", err)
	}

	lot.CurrentPrice = amount
	lot.CurrentLeaderID = &bidder.ID
	if err := uow.LotRepository().Update(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to update lot: %w", err)
	}

	following, err := uow.FollowRepository().Exists(ctx, bidder.ID, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}
	if !following {
		if _, err := uow.FollowRepository().Add(ctx, bidder.ID, lot.ID); err != nil {
			return nil, fmt.Errorf("failed to follow lot: %w", err)
		}
	}

	uow.EventBus().Publish(events.BidPlacedEvent{
		LotID:            lot.ID,
		BidID:            bid.ID,
		BidderID:         bidder.ID,
		Amount:           amount,
		PreviousLeaderID: previousLeader,
		PreviousPrice:    previousPrice,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"lotID":  lot.ID,
		"bidder": bidderUsername,
		"amount": amount,
	}).Info("Bid placed")

	return bid, nil
}
