package api

import (
	"context"

	"projector/models"

	"github.com/stretchr/testify/mock"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Create(ctx context.Context, ownerID int64, input models.AnalysisInput) (*models.Analysis, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisService) Update(ctx context.Context, id int64, update models.AnalysisUpdate) (*models.Analysis, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, id int64) (*models.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisService) GetStaging(ctx context.Context, id int64) ([]*models.WeeklyResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WeeklyResult), args.Error(1)
}

func (m *MockAnalysisService) GetPermanent(ctx context.Context, id int64) ([]*models.WeeklyResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WeeklyResult), args.Error(1)
}

func (m *MockAnalysisService) Promote(ctx context.Context, id int64) (*models.PromotionResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromotionResult), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Analysis), args.Error(1)
}

func (m *MockAnalysisService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResultRecord), args.Error(1)
}

func (m *MockReportService) LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EndingBalance), args.Error(1)
}

func (m *MockReportService) AnalysisReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnalysisReport), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
