package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projector/events"
	"projector/models"
	"projector/observability"
	"projector/projection"

	log "github.com/sirupsen/logrus"
)

// AnalysisServiceOptions tunes the staging and promotion behavior
type AnalysisServiceOptions struct {
	// MaxProjectionWeeks caps the projection length; zero disables the cap
	MaxProjectionWeeks int

	// AllowRepromotion lets a promotion replace existing permanent results
	AllowRepromotion bool

	// Metrics may be nil
	Metrics *observability.MetricsProvider

	// Clock stamps generated and promoted rows; defaults to time.Now
	Clock func() time.Time
}

// analysisService implements the AnalysisService interface
type analysisService struct {
	uowFactory       UnitOfWorkFactory
	metrics          *observability.MetricsProvider
	now              func() time.Time
	maxWeeks         int
	allowRepromotion bool
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(uowFactory UnitOfWorkFactory, opts AnalysisServiceOptions) AnalysisService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &analysisService{
		uowFactory:       uowFactory,
		metrics:          opts.Metrics,
		now:              clock,
		maxWeeks:         opts.MaxProjectionWeeks,
		allowRepromotion: opts.AllowRepromotion,
	}
}

// Create stores a new analysis and stages its projection
func (s *analysisService) Create(ctx context.Context, ownerID int64, input models.AnalysisInput) (*models.Analysis, error) {
	started := time.Now()
	analysis, err := s.create(ctx, ownerID, input)

	var id int64
	if analysis != nil {
		id = analysis.ID
	}
	s.observe(observability.OperationCreate, id, started, err)
	return analysis, err
}

func (s *analysisService) create(ctx context.Context, ownerID int64, input models.AnalysisInput) (*models.Analysis, error) {
	if err := validateInput(input, s.maxWeeks); err != nil {
		return nil, err
	}
	weeks, err := s.project(input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	analysis := &models.Analysis{
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	analysis.Apply(input)

	err = s.inTransaction(ctx, "create", 0, func(uow UnitOfWork) error {
		if err := uow.AnalysisRepository().Create(ctx, analysis); err != nil {
			if isForeignKeyViolation(err) {
				return &ValidationError{Field: "user_id", Reason: fmt.Sprintf("unknown user %d", ownerID)}
			}
			return persistenceError("create", 0, err)
		}

		rows := weeklyRows(analysis.ID, weeks, now)
		if err := uow.StagingResults().ReplaceAll(ctx, analysis.ID, rows); err != nil {
			return tierWriteError("stage", analysis.ID, err)
		}

		uow.EventBus().Publish(events.AnalysisCreatedEvent{
			AnalysisID:   analysis.ID,
			UserID:       ownerID,
			Weeks:        len(rows),
			FinalBalance: finalBalance(rows),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"analysisID": analysis.ID,
		"userID":     ownerID,
		"weeks":      len(weeks),
	}).Info("Analysis created and staged")

	return analysis, nil
}

// Update merges the update into the stored parameters and restages the projection
func (s *analysisService) Update(ctx context.Context, id int64, update models.AnalysisUpdate) (*models.Analysis, error) {
	started := time.Now()
	analysis, err := s.update(ctx, id, update)
	s.observe(observability.OperationUpdate, id, started, err)
	return analysis, err
}

func (s *analysisService) update(ctx context.Context, id int64, update models.AnalysisUpdate) (*models.Analysis, error) {
	if err := validateUpdate(update, s.maxWeeks); err != nil {
		return nil, err
	}

	var analysis *models.Analysis
	var staged int

	err := s.inTransaction(ctx, "update", id, func(uow UnitOfWork) error {
		current, err := uow.AnalysisRepository().GetForUpdate(ctx, id)
		if err != nil {
			return persistenceError("lock", id, err)
		}
		if current == nil {
			return notFound("analysis", id)
		}

		merged := update.Merge(current.Input())
		if err := validateInput(merged, s.maxWeeks); err != nil {
			return err
		}
		weeks, err := s.project(merged)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		current.Apply(merged)
		current.UpdatedAt = now
		if err := uow.AnalysisRepository().Update(ctx, current); err != nil {
			return persistenceError("update", id, err)
		}

		rows := weeklyRows(id, weeks, now)
		if err := uow.StagingResults().ReplaceAll(ctx, id, rows); err != nil {
			return tierWriteError("stage", id, err)
		}

		uow.EventBus().Publish(events.AnalysisStagedEvent{
			AnalysisID:   id,
			UserID:       current.UserID,
			Weeks:        len(rows),
			FinalBalance: finalBalance(rows),
		})

		analysis = current
		staged = len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"analysisID": id,
		"weeks":      staged,
	}).Info("Analysis recalculated and restaged")

	return analysis, nil
}

// Get returns the analysis parameters
func (s *analysisService) Get(ctx context.Context, id int64) (*models.Analysis, error) {
	started := time.Now()
	var analysis *models.Analysis

	err := s.inTransaction(ctx, "get", id, func(uow UnitOfWork) error {
		found, err := uow.AnalysisRepository().GetByID(ctx, id)
		if err != nil {
			return persistenceError("get", id, err)
		}
		if found == nil {
			return notFound("analysis", id)
		}
		analysis = found
		return nil
	})

	s.observe(observability.OperationGet, id, started, err)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// GetStaging returns the staged rows ordered by week
func (s *analysisService) GetStaging(ctx context.Context, id int64) ([]*models.WeeklyResult, error) {
	started := time.Now()
	rows, err := s.listTier(ctx, id, func(uow UnitOfWork) ResultRepository { return uow.StagingResults() })
	s.observe(observability.OperationStaging, id, started, err)
	return rows, err
}

// GetPermanent returns the promoted rows ordered by week
func (s *analysisService) GetPermanent(ctx context.Context, id int64) ([]*models.WeeklyResult, error) {
	started := time.Now()
	rows, err := s.listTier(ctx, id, func(uow UnitOfWork) ResultRepository { return uow.PermanentResults() })
	s.observe(observability.OperationPermanent, id, started, err)
	return rows, err
}

// listTier reads one tier of an analysis; an empty tier is reported as not found
func (s *analysisService) listTier(ctx context.Context, id int64, tier func(UnitOfWork) ResultRepository) ([]*models.WeeklyResult, error) {
	var rows []*models.WeeklyResult

	err := s.inTransaction(ctx, "list results", id, func(uow UnitOfWork) error {
		analysis, err := uow.AnalysisRepository().GetByID(ctx, id)
		if err != nil {
			return persistenceError("get", id, err)
		}
		if analysis == nil {
			return notFound("analysis", id)
		}

		repo := tier(uow)
		found, err := repo.List(ctx, id)
		if err != nil {
			return persistenceError(fmt.Sprintf("list %s results", repo.Tier()), id, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: no %s results for analysis %d", ErrNotFound, repo.Tier(), id)
		}
		rows = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Promote replaces the permanent rows with the staged rows and clears staging
func (s *analysisService) Promote(ctx context.Context, id int64) (*models.PromotionResult, error) {
	started := time.Now()
	result, err := s.promote(ctx, id)
	s.observe(observability.OperationPromote, id, started, err)
	return result, err
}

func (s *analysisService) promote(ctx context.Context, id int64) (*models.PromotionResult, error) {
	var result *models.PromotionResult

	err := s.inTransaction(ctx, "promote", id, func(uow UnitOfWork) error {
		analysis, err := uow.AnalysisRepository().GetForUpdate(ctx, id)
		if err != nil {
			return persistenceError("lock", id, err)
		}
		if analysis == nil {
			return notFound("analysis", id)
		}

		staged, err := uow.StagingResults().List(ctx, id)
		if err != nil {
			return persistenceError("read staging", id, err)
		}
		if len(staged) == 0 {
			return fmt.Errorf("analysis %d: %w", id, ErrNothingToPromote)
		}

		existing, err := uow.PermanentResults().Count(ctx, id)
		if err != nil {
			return persistenceError("count permanent", id, err)
		}
		if existing > 0 && !s.allowRepromotion {
			return fmt.Errorf("analysis %d: %w", id, ErrAlreadyPromoted)
		}

		promotedAt := s.now().UTC()
		permanent := make([]*models.WeeklyResult, len(staged))
		for i, row := range staged {
			promoted := *row
			promoted.ID = 0
			promoted.Tier = models.ResultTierPermanent
			promoted.PromotedAt = &promotedAt
			permanent[i] = &promoted
		}

		if err := uow.PermanentResults().ReplaceAll(ctx, id, permanent); err != nil {
			return tierWriteError("write permanent", id, err)
		}
		if _, err := uow.StagingResults().DeleteAll(ctx, id); err != nil {
			return persistenceError("clear staging", id, err)
		}

		result = &models.PromotionResult{
			AnalysisID:       id,
			WeeksPromoted:    len(permanent),
			ReplacedPrevious: existing,
			FinalBalance:     finalBalance(permanent),
			PromotedAt:       promotedAt,
		}
		uow.EventBus().Publish(events.AnalysisPromotedEvent{
			AnalysisID:       id,
			UserID:           analysis.UserID,
			WeeksPromoted:    result.WeeksPromoted,
			ReplacedPrevious: result.ReplacedPrevious,
			FinalBalance:     result.FinalBalance,
			PromotedAt:       promotedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPromotion(result.WeeksPromoted, result.ReplacedPrevious > 0)
	log.WithFields(log.Fields{
		"analysisID":       id,
		"weeksPromoted":    result.WeeksPromoted,
		"replacedPrevious": result.ReplacedPrevious,
	}).Info("Analysis promoted")

	return result, nil
}

// List returns analyses of the owner, or of all owners when ownerID is nil
func (s *analysisService) List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error) {
	started := time.Now()
	var analyses []*models.Analysis

	err := s.inTransaction(ctx, "list", 0, func(uow UnitOfWork) error {
		found, err := uow.AnalysisRepository().List(ctx, ownerID)
		if err != nil {
			return persistenceError("list", 0, err)
		}
		analyses = found
		return nil
	})

	s.observe(observability.OperationList, 0, started, err)
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	return analyses, nil
}

// Delete removes an analysis that has no permanent results
func (s *analysisService) Delete(ctx context.Context, id int64) error {
	started := time.Now()

	err := s.inTransaction(ctx, "delete", id, func(uow UnitOfWork) error {
		analysis, err := uow.AnalysisRepository().GetForUpdate(ctx, id)
		if err != nil {
			return persistenceError("lock", id, err)
		}
		if analysis == nil {
			return notFound("analysis", id)
		}

		promoted, err := uow.PermanentResults().Count(ctx, id)
		if err != nil {
			return persistenceError("count permanent", id, err)
		}
		if promoted > 0 {
			return fmt.Errorf("analysis %d: %w", id, ErrHasPermanentResults)
		}

		if err := uow.AnalysisRepository().Delete(ctx, id); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("analysis %d: %w", id, ErrHasPermanentResults)
			}
			return persistenceError("delete", id, err)
		}

		uow.EventBus().Publish(events.AnalysisDeletedEvent{AnalysisID: id, UserID: analysis.UserID})
		return nil
	})

	s.observe(observability.OperationDelete, id, started, err)
	if err == nil {
		log.WithField("analysisID", id).Info("Analysis deleted")
	}
	return err
}

// inTransaction runs fn in a fresh unit of work and commits when it succeeds.
// Errors returned by fn are passed through unchanged.
func (s *analysisService) inTransaction(ctx context.Context, operation string, analysisID int64, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return persistenceError(operation, analysisID, err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return persistenceError(operation, analysisID, err)
	}
	return nil
}

// project runs the engine on validated input
func (s *analysisService) project(in models.AnalysisInput) ([]projection.Week, error) {
	weeks, err := projection.Project(projectionParams(in))
	if err != nil {
		s.metrics.RecordProjection(in.ProjectionWeeks, observability.OutcomeValidation)
		return nil, engineError(err)
	}
	s.metrics.RecordProjection(len(weeks), observability.OutcomeSuccess)
	return weeks, nil
}

// observe records the operation outcome and logs failures
func (s *analysisService) observe(operation string, analysisID int64, started time.Time, err error) {
	outcome := outcomeOf(err)
	s.metrics.RecordOperation(operation, outcome, time.Since(started))
	if err == nil {
		return
	}

	entry := log.WithFields(log.Fields{
		"operation":  operation,
		"analysisID": analysisID,
		"error":      err,
	})
	switch {
	case outcome != observability.OutcomeError:
		entry.Debug("Analysis operation rejected")
	case isSerializationFailure(err):
		entry.Warn("Analysis operation aborted by a concurrent transaction")
	default:
		entry.Error("Analysis operation failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, ErrValidation):
		return observability.OutcomeValidation
	case errors.Is(err, ErrNotFound):
		return observability.OutcomeNotFound
	case errors.Is(err, ErrConflict):
		return observability.OutcomeConflict
	default:
		return observability.OutcomeError
	}
}

// weeklyRows converts engine output into staging rows of the analysis
func weeklyRows(analysisID int64, weeks []projection.Week, generatedAt time.Time) []*models.WeeklyResult {
	rows := make([]*models.WeeklyResult, len(weeks))
	for i, w := range weeks {
		rows[i] = &models.WeeklyResult{
			AnalysisID:       analysisID,
			Tier:             models.ResultTierStaging,
			Week:             w.Week,
			BeginningBalance: w.BeginningBalance,
			Interest:         w.Interest,
			Profit:           w.Profit,
			TaxDeduction:     w.TaxDeduction,
			Deposit:          w.Deposit,
			Withdrawal:       w.Withdrawal,
			EndingBalance:    w.EndingBalance,
			GeneratedAt:      generatedAt,
		}
	}
	return rows
}

func finalBalance(rows []*models.WeeklyResult) float64 {
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1].EndingBalance
}
