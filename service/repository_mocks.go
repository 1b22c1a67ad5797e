package service

import (
	"context"

	"projector/events"
	"projector/models"

	"github.com/stretchr/testify/mock"
)

// MockAnalysisRepository is a mock implementation of AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockAnalysisRepository) GetByID(ctx context.Context, id int64) (*models.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) GetForUpdate(ctx context.Context, id int64) (*models.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) Update(ctx context.Context, analysis *models.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockAnalysisRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAnalysisRepository) List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Analysis), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
	tier models.ResultTier
}

// NewMockResultRepository creates a mock bound to the given tier
func NewMockResultRepository(tier models.ResultTier) *MockResultRepository {
	return &MockResultRepository{tier: tier}
}

func (m *MockResultRepository) Tier() models.ResultTier {
	return m.tier
}

func (m *MockResultRepository) ReplaceAll(ctx context.Context, analysisID int64, rows []*models.WeeklyResult) error {
	args := m.Called(ctx, analysisID, rows)
	return args.Error(0)
}

func (m *MockResultRepository) List(ctx context.Context, analysisID int64) ([]*models.WeeklyResult, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WeeklyResult), args.Error(1)
}

func (m *MockResultRepository) Count(ctx context.Context, analysisID int64) (int, error) {
	args := m.Called(ctx, analysisID)
	return args.Int(0), args.Error(1)
}

func (m *MockResultRepository) DeleteAll(ctx context.Context, analysisID int64) (int64, error) {
	args := m.Called(ctx, analysisID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResultRecord), args.Error(1)
}

func (m *MockReportRepository) LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EndingBalance), args.Error(1)
}

func (m *MockReportRepository) ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnalysisReport), args.Error(1)
}

func (m *MockReportRepository) PermanentResultsByAnalysis(ctx context.Context, analysisIDs []int64) (map[int64][]*models.WeeklyResult, error) {
	args := m.Called(ctx, analysisIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.WeeklyResult), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock
	analysisRepo   AnalysisRepository
	stagingRepo    ResultRepository
	permanentRepo  ResultRepository
	reportRepo     ReportRepository
	userRepo       UserRepository
	eventPublisher EventPublisher
}

// SetRepositories installs the repositories handed out by the getters
func (m *MockUnitOfWork) SetRepositories(analysisRepo AnalysisRepository, stagingRepo, permanentRepo ResultRepository, eventPublisher EventPublisher) {
	m.analysisRepo = analysisRepo
	m.stagingRepo = stagingRepo
	m.permanentRepo = permanentRepo
	m.eventPublisher = eventPublisher
}

// SetReportRepository installs the report repository
func (m *MockUnitOfWork) SetReportRepository(reportRepo ReportRepository) {
	m.reportRepo = reportRepo
}

// SetUserRepository installs the user repository
func (m *MockUnitOfWork) SetUserRepository(userRepo UserRepository) {
	m.userRepo = userRepo
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AnalysisRepository() AnalysisRepository { return m.analysisRepo }
func (m *MockUnitOfWork) StagingResults() ResultRepository       { return m.stagingRepo }
func (m *MockUnitOfWork) PermanentResults() ResultRepository     { return m.permanentRepo }
func (m *MockUnitOfWork) ReportRepository() ReportRepository     { return m.reportRepo }
func (m *MockUnitOfWork) UserRepository() UserRepository         { return m.userRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher               { return m.eventPublisher }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
