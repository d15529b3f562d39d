package repository

import (
	"context"
	"errors"
	"fmt"

	"auctionhouse/database"
	"auctionhouse/events"
	"auctionhouse/service"

	"github.com/jackc/pgx/v5"
)

const notStarted = "unit of work not started - call Begin() first"

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	lotRepo          service.LotRepository
	bidRepo          service.BidRepository
	ledgerRepo       service.LedgerRepository
	followRepo       service.FollowRepository
	categoryRepo     service.CategoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.lotRepo = newLotRepositoryWithTx(tx)
	u.bidRepo = newBidRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)
	u.followRepo = newFollowRepositoryWithTx(tx)
	u.categoryRepo = newCategoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		if err := u.transactionalBus.Flush(u.ctx); err != nil {
			return fmt.Errorf("committed but failed to flush events: %w", err)
		}
	}

	return nil
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic(notStarted)
	}
	return u.userRepo
}

// LotRepository returns the lot repository for this unit of work
func (u *unitOfWork) LotRepository() service.LotRepository {
	if u.lotRepo == nil {
		panic(notStarted)
	}
	return u.lotRepo
}

// BidRepository returns the bid repository for this unit of work
func (u *unitOfWork) BidRepository() service.BidRepository {
	if u.bidRepo == nil {
		panic(notStarted)
	}
	return u.bidRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic(notStarted)
	}
	return u.ledgerRepo
}

// FollowRepository returns the follow repository for this unit of work
func (u *unitOfWork) FollowRepository() service.FollowRepository {
	if u.followRepo == nil {
		panic(notStarted)
	}
	return u.followRepo
}

// CategoryRepository returns the category repository for this unit of work
func (u *unitOfWork) CategoryRepository() service.CategoryRepository {
	if u.categoryRepo == nil {
		panic(notStarted)
	}
	return u.categoryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(notStarted)
	}
	return u.transactionalBus
}
