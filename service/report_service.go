package service

import (
	"context"
	"fmt"

	"projector/models"
	"projector/observability"

	log "github.com/sirupsen/logrus"
)

// reportService implements the ReportService interface
type reportService struct {
	uowFactory UnitOfWorkFactory
}

// NewReportService creates a new report service
func NewReportService(uowFactory UnitOfWorkFactory) ReportService {
	return &reportService{uowFactory: uowFactory}
}

// QueryResults returns permanent rows matching the filter
func (s *reportService) QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error) {
	records, err := s.queryResults(ctx, filter)
	s.observe(observability.OperationQueryResults, 0, err)
	return records, err
}

func (s *reportService) queryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error) {
	if err := validateRange("generated_at", filter.GeneratedFrom, filter.GeneratedTo); err != nil {
		return nil, err
	}

	var records []*models.ResultRecord
	err := s.read(ctx, func(uow UnitOfWork) error {
		found, err := uow.ReportRepository().QueryResults(ctx, filter)
		if err != nil {
			return fmt.Errorf("%w: query results: %w", ErrPersistence, err)
		}
		records = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.ResultRecord{}
	}
	return records, nil
}

// LatestEndingBalance returns the ending balance of the last promoted week
func (s *reportService) LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error) {
	balance, err := s.latestEndingBalance(ctx, analysisID)
	s.observe(observability.OperationEndingBalance, analysisID, err)
	return balance, err
}

func (s *reportService) latestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error) {
	var balance *models.EndingBalance

	err := s.read(ctx, func(uow UnitOfWork) error {
		analysis, err := uow.AnalysisRepository().GetByID(ctx, analysisID)
		if err != nil {
			return persistenceError("get", analysisID, err)
		}
		if analysis == nil {
			return notFound("analysis", analysisID)
		}

		found, err := uow.ReportRepository().LatestEndingBalance(ctx, analysisID)
		if err != nil {
			return persistenceError("latest ending balance", analysisID, err)
		}
		if found == nil {
			return fmt.Errorf("%w: no permanent results for analysis %d", ErrNotFound, analysisID)
		}
		balance = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// AnalysisReports returns matching analyses with their permanent weekly breakdown
func (s *reportService) AnalysisReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error) {
	reports, err := s.analysisReports(ctx, filter)
	s.observe(observability.OperationReports, 0, err)
	return reports, err
}

func (s *reportService) analysisReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error) {
	if err := validateRange("created_at", filter.CreatedFrom, filter.CreatedTo); err != nil {
		return nil, err
	}

	var reports []*models.AnalysisReport
	err := s.read(ctx, func(uow UnitOfWork) error {
		found, err := uow.ReportRepository().ListReports(ctx, filter)
		if err != nil {
			return fmt.Errorf("%w: list reports: %w", ErrPersistence, err)
		}
		if len(found) == 0 {
			reports = found
			return nil
		}

		ids := make([]int64, len(found))
		for i, report := range found {
			ids[i] = report.AnalysisID
		}
		breakdowns, err := uow.ReportRepository().PermanentResultsByAnalysis(ctx, ids)
		if err != nil {
			return fmt.Errorf("%w: load report breakdowns: %w", ErrPersistence, err)
		}

		for _, report := range found {
			rows := breakdowns[report.AnalysisID]
			if rows == nil {
				rows = []*models.WeeklyResult{}
			}
			report.WeeklyBreakdown = rows
			if len(rows) > 0 {
				ending := rows[len(rows)-1].EndingBalance
				report.EndingBalance = &ending
			}
		}
		reports = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"username": filter.Username,
		"reports":  len(reports),
	}).Debug("Built analysis reports")

	if reports == nil {
		reports = []*models.AnalysisReport{}
	}
	return reports, nil
}

// read runs fn in a unit of work that is committed without writes
func (s *reportService) read(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: begin report transaction: %w", ErrPersistence, err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("%w: commit report transaction: %w", ErrPersistence, err)
	}
	return nil
}

// observe logs failed report reads; storage failures at error level
func (s *reportService) observe(operation string, analysisID int64, err error) {
	if err == nil {
		return
	}

	fields := log.Fields{
		"operation": operation,
		"error":     err,
	}
	if analysisID != 0 {
		fields["analysisID"] = analysisID
	}
	entry := log.WithFields(fields)

	switch {
	case outcomeOf(err) != observability.OutcomeError:
		entry.Debug("Report request rejected")
	case isSerializationFailure(err):
		entry.Warn("Report read aborted by a concurrent transaction")
	default:
		entry.Error("Report read failed")
	}
}
