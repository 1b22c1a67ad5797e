package repository

import (
	"context"
	"errors"
	"fmt"

	"projector/database"
	"projector/events"
	"projector/models"
	"projector/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	txOptions        pgx.TxOptions
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	analysisRepo     service.AnalysisRepository
	stagingRepo      service.ResultRepository
	permanentRepo    service.ResultRepository
	reportRepo       service.ReportRepository
	userRepo         service.UserRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory.
// Every unit of work begins its transaction at the given isolation level.
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, isoLevel pgx.TxIsoLevel) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:        db,
		eventBus:  eventBus,
		txOptions: pgx.TxOptions{IsoLevel: isoLevel},
	}
}

type unitOfWorkFactory struct {
	db        *database.DB
	eventBus  *events.Bus
	txOptions pgx.TxOptions
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		txOptions:        f.txOptions,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginTx(ctx, u.txOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.analysisRepo = newAnalysisRepositoryWithTx(tx)
	u.stagingRepo = newResultRepositoryWithTx(tx, models.ResultTierStaging)
	u.permanentRepo = newResultRepositoryWithTx(tx, models.ResultTierPermanent)
	u.reportRepo = newReportRepositoryWithTx(tx)
	u.userRepo = newUserRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Flush pending events after successful commit
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// AnalysisRepository returns the analysis repository for this unit of work
func (u *unitOfWork) AnalysisRepository() service.AnalysisRepository {
	if u.analysisRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.analysisRepo
}

// StagingResults returns the staging tier repository for this unit of work
func (u *unitOfWork) StagingResults() service.ResultRepository {
	if u.stagingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.stagingRepo
}

// PermanentResults returns the permanent tier repository for this unit of work
func (u *unitOfWork) PermanentResults() service.ResultRepository {
	if u.permanentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.permanentRepo
}

// ReportRepository returns the report repository for this unit of work
func (u *unitOfWork) ReportRepository() service.ReportRepository {
	if u.reportRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.reportRepo
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.analysisRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
