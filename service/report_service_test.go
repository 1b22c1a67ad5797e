package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"projector/models"
	"projector/observability"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(ctx context.Context, commit bool) (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockAnalysisRepository, *MockReportRepository) {
	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	analyses := new(MockAnalysisRepository)
	reports := new(MockReportRepository)

	uow.SetRepositories(analyses, nil, nil, nil)
	uow.SetReportRepository(reports)

	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	if commit {
		uow.On("Commit").Return(nil)
	}
	return factory, uow, analyses, reports
}

func TestReportService_AnalysisReports_AttachesBreakdown(t *testing.T) {
	ctx := context.Background()
	factory, uow, _, reports := newReportFixture(ctx, true)
	service := NewReportService(factory)

	filter := models.ReportFilter{Username: "ana"}
	reports.On("ListReports", ctx, filter).Return([]*models.AnalysisReport{
		{AnalysisID: 2, Username: "ana", Description: "promoted"},
		{AnalysisID: 1, Username: "ana", Description: "draft only"},
	}, nil)
	reports.On("PermanentResultsByAnalysis", ctx, []int64{2, 1}).Return(map[int64][]*models.WeeklyResult{
		2: {
			{AnalysisID: 2, Week: 1, EndingBalance: 1010},
			{AnalysisID: 2, Week: 2, EndingBalance: 1020.1},
		},
	}, nil)

	result, err := service.AnalysisReports(ctx, filter)

	require.NoError(t, err)
	require.Len(t, result, 2)

	require.NotNil(t, result[0].EndingBalance)
	assert.Equal(t, 1020.1, *result[0].EndingBalance)
	assert.Len(t, result[0].WeeklyBreakdown, 2)

	assert.Nil(t, result[1].EndingBalance)
	assert.NotNil(t, result[1].WeeklyBreakdown)
	assert.Empty(t, result[1].WeeklyBreakdown)

	uow.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestReportService_AnalysisReports_InvertedRange(t *testing.T) {
	factory := new(MockUnitOfWorkFactory)
	service := NewReportService(factory)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := service.AnalysisReports(context.Background(), models.ReportFilter{CreatedFrom: &from, CreatedTo: &to})

	assert.ErrorIs(t, err, ErrValidation)
	factory.AssertNotCalled(t, "Create")
}

func TestReportService_LatestEndingBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		factory, _, analyses, reports := newReportFixture(ctx, true)
		analyses.On("GetByID", ctx, int64(3)).Return(&models.Analysis{ID: 3}, nil)
		reports.On("LatestEndingBalance", ctx, int64(3)).Return(&models.EndingBalance{AnalysisID: 3, Week: 52, EndingBalance: 1677.69}, nil)

		balance, err := NewReportService(factory).LatestEndingBalance(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 52, balance.Week)
	})

	t.Run("never promoted", func(t *testing.T) {
		factory, _, analyses, reports := newReportFixture(ctx, false)
		analyses.On("GetByID", ctx, int64(3)).Return(&models.Analysis{ID: 3}, nil)
		reports.On("LatestEndingBalance", ctx, int64(3)).Return(nil, nil)

		_, err := NewReportService(factory).LatestEndingBalance(ctx, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown analysis", func(t *testing.T) {
		factory, _, analyses, _ := newReportFixture(ctx, false)
		analyses.On("GetByID", ctx, int64(4)).Return(nil, nil)

		_, err := NewReportService(factory).LatestEndingBalance(ctx, 4)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReportService_QueryResults_StorageFailure(t *testing.T) {
	ctx := context.Background()
	factory, _, _, reports := newReportFixture(ctx, false)
	hook := test.NewGlobal()
	defer hook.Reset()

	filter := models.ResultFilter{FinalWeekOnly: true}
	reports.On("QueryResults", ctx, filter).Return(nil, errors.New("connection reset"))

	_, err := NewReportService(factory).QueryResults(ctx, filter)

	assert.True(t, IsRetryable(err))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, observability.OperationQueryResults, entry.Data["operation"])
	assert.ErrorIs(t, entry.Data["error"].(error), ErrPersistence)
}

func TestReportService_LatestEndingBalance_StorageFailureLogsAnalysis(t *testing.T) {
	ctx := context.Background()
	factory, _, analyses, reports := newReportFixture(ctx, false)
	hook := test.NewGlobal()
	defer hook.Reset()

	analyses.On("GetByID", ctx, int64(3)).Return(&models.Analysis{ID: 3}, nil)
	reports.On("LatestEndingBalance", ctx, int64(3)).Return(nil, errors.New("connection reset"))

	_, err := NewReportService(factory).LatestEndingBalance(ctx, 3)

	assert.True(t, IsRetryable(err))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, observability.OperationEndingBalance, entry.Data["operation"])
	assert.Equal(t, int64(3), entry.Data["analysisID"])
}

func TestReportService_NotFoundIsNotLoggedAsError(t *testing.T) {
	ctx := context.Background()
	factory, _, analyses, _ := newReportFixture(ctx, false)
	hook := test.NewGlobal()
	defer hook.Reset()

	analyses.On("GetByID", ctx, int64(4)).Return(nil, nil)

	_, err := NewReportService(factory).LatestEndingBalance(ctx, 4)

	assert.ErrorIs(t, err, ErrNotFound)
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level)
	}
}

func TestReportService_QueryResults_EmptyIsNotNil(t *testing.T) {
	ctx := context.Background()
	factory, _, _, reports := newReportFixture(ctx, true)

	filter := models.ResultFilter{Username: "nobody"}
	reports.On("QueryResults", ctx, filter).Return(nil, nil)

	records, err := NewReportService(factory).QueryResults(ctx, filter)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
