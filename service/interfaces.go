package service

import (
	"context"

	"projector/events"
	"projector/models"
)

// AnalysisRepository defines the interface for analysis parameter access
type AnalysisRepository interface {
	// Create inserts the analysis and fills in its ID and timestamps
	Create(ctx context.Context, analysis *models.Analysis) error

	// GetByID retrieves an analysis, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Analysis, error)

	// GetForUpdate retrieves an analysis and locks its row until the transaction ends.
	// Returns nil if it does not exist.
	GetForUpdate(ctx context.Context, id int64) (*models.Analysis, error)

	// Update stores the editable fields and refreshes UpdatedAt
	Update(ctx context.Context, analysis *models.Analysis) error

	// Delete removes the analysis. Staging rows go with it.
	Delete(ctx context.Context, id int64) error

	// List returns analyses newest first; a nil owner lists all owners
	List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error)
}

// ResultRepository defines access to one tier of weekly results
type ResultRepository interface {
	// Tier reports which tier the repository is bound to
	Tier() models.ResultTier

	// ReplaceAll deletes every row of the analysis in this tier and inserts rows in their place
	ReplaceAll(ctx context.Context, analysisID int64, rows []*models.WeeklyResult) error

	// List returns the rows of the analysis ordered by week
	List(ctx context.Context, analysisID int64) ([]*models.WeeklyResult, error)

	// Count returns the number of rows of the analysis in this tier
	Count(ctx context.Context, analysisID int64) (int, error)

	// DeleteAll removes every row of the analysis in this tier
	DeleteAll(ctx context.Context, analysisID int64) (int64, error)
}

// ReportRepository defines read-only queries over permanent results
type ReportRepository interface {
	// QueryResults returns permanent rows joined with their analysis and owner
	QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error)

	// LatestEndingBalance returns the ending balance of the highest permanent week, nil if none
	LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error)

	// ListReports returns matching analyses newest first, without their breakdown
	ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error)

	// PermanentResultsByAnalysis returns permanent rows of the given analyses keyed by analysis id
	PermanentResultsByAnalysis(ctx context.Context, analysisIDs []int64) (map[int64][]*models.WeeklyResult, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user and fills in its ID and CreatedAt
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user, returning nil if it does not exist
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and then emits queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events
	Rollback() error

	// Repository getters
	AnalysisRepository() AnalysisRepository
	StagingResults() ResultRepository
	PermanentResults() ResultRepository
	ReportRepository() ReportRepository
	UserRepository() UserRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// AnalysisService defines the staging and promotion operations on analyses
type AnalysisService interface {
	// Create stores a new analysis and stages its projection
	Create(ctx context.Context, ownerID int64, input models.AnalysisInput) (*models.Analysis, error)

	// Update merges the update into the stored parameters and restages the projection
	Update(ctx context.Context, id int64, update models.AnalysisUpdate) (*models.Analysis, error)

	// Get returns the analysis parameters
	Get(ctx context.Context, id int64) (*models.Analysis, error)

	// GetStaging returns the staged rows ordered by week
	GetStaging(ctx context.Context, id int64) ([]*models.WeeklyResult, error)

	// GetPermanent returns the promoted rows ordered by week
	GetPermanent(ctx context.Context, id int64) ([]*models.WeeklyResult, error)

	// Promote replaces the permanent rows with the staged rows and clears staging
	Promote(ctx context.Context, id int64) (*models.PromotionResult, error)

	// List returns analyses of the owner, or of all owners when ownerID is nil
	List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error)

	// Delete removes an analysis that has no permanent results
	Delete(ctx context.Context, id int64) error
}

// ReportService defines read-only reporting over permanent results
type ReportService interface {
	QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error)
	LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error)
	AnalysisReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error)
}

// UserService manages the local copy of users known to the authentication system
type UserService interface {
	Register(ctx context.Context, username, email string, isManager bool) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
