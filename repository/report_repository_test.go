package repository

import (
	"context"
	"testing"
	"time"

	"projector/models"
	"projector/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	users := NewUserRepository(testDB.DB)
	analyses := NewAnalysisRepository(testDB.DB)
	permanent := NewResultRepository(testDB.DB, models.ResultTierPermanent)
	reports := NewReportRepository(testDB.DB)

	alice := testutil.CreateTestUser("Alice_Smith")
	require.NoError(t, users.Create(ctx, alice))
	bob := testutil.CreateTestUser("bob")
	require.NoError(t, users.Create(ctx, bob))

	january := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	retirement := testutil.CreateTestAnalysisAt(alice.ID, "Retirement fund", january)
	retirement.Principal = 5000
	require.NoError(t, analyses.Create(ctx, retirement))
	require.NoError(t, permanent.ReplaceAll(ctx, retirement.ID,
		testutil.CreateTestWeeklyResults(retirement.ID, models.ResultTierPermanent, 3, 5000, january)))

	holiday := testutil.CreateTestAnalysisAt(bob.ID, "Holiday", march)
	holiday.Principal = 200
	require.NoError(t, analyses.Create(ctx, holiday))
	require.NoError(t, permanent.ReplaceAll(ctx, holiday.ID,
		testutil.CreateTestWeeklyResults(holiday.ID, models.ResultTierPermanent, 2, 200, march)))

	draft := testutil.CreateTestAnalysisAt(alice.ID, "Draft only", march)
	require.NoError(t, analyses.Create(ctx, draft))

	t.Run("no filter returns every permanent row", func(t *testing.T) {
		records, err := reports.QueryResults(ctx, models.ResultFilter{})
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})

	t.Run("username matches case-insensitive substring", func(t *testing.T) {
		records, err := reports.QueryResults(ctx, models.ResultFilter{Username: "alice"})
		require.NoError(t, err)
		require.Len(t, records, 3)
		for _, rec := range records {
			assert.Equal(t, "Alice_Smith", rec.Username)
			assert.Equal(t, retirement.ID, rec.AnalysisID)
		}
	})

	t.Run("wildcards in username are literal", func(t *testing.T) {
		records, err := reports.QueryResults(ctx, models.ResultFilter{Username: "%"})
		require.NoError(t, err)
		assert.Empty(t, records)

		records, err = reports.QueryResults(ctx, models.ResultFilter{Username: "e_s"})
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("numeric bounds", func(t *testing.T) {
		principalGT := 1000.0
		records, err := reports.QueryResults(ctx, models.ResultFilter{PrincipalGT: &principalGT})
		require.NoError(t, err)
		assert.Len(t, records, 3)

		endingLT := 205.0
		records, err = reports.QueryResults(ctx, models.ResultFilter{EndingBalanceLT: &endingLT})
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, rec := range records {
			assert.Less(t, rec.EndingBalance, endingLT)
		}
	})

	t.Run("generated range is inclusive", func(t *testing.T) {
		from := march
		to := march
		records, err := reports.QueryResults(ctx, models.ResultFilter{GeneratedFrom: &from, GeneratedTo: &to})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("final week only", func(t *testing.T) {
		records, err := reports.QueryResults(ctx, models.ResultFilter{FinalWeekOnly: true, DescriptionContains: "fund"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 3, records[0].Week)
	})

	t.Run("latest ending balance", func(t *testing.T) {
		balance, err := reports.LatestEndingBalance(ctx, retirement.ID)
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, 3, balance.Week)
		assert.InDelta(t, 5000*1.01*1.01*1.01, balance.EndingBalance, 1e-6)

		none, err := reports.LatestEndingBalance(ctx, draft.ID)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("reports newest first with created range", func(t *testing.T) {
		all, err := reports.ListReports(ctx, models.ReportFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.False(t, all[0].CreatedAt.Before(all[1].CreatedAt))
		assert.Equal(t, retirement.ID, all[2].AnalysisID)

		from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		recent, err := reports.ListReports(ctx, models.ReportFilter{Username: "ALICE", CreatedFrom: &from})
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, draft.ID, recent[0].AnalysisID)
	})

	t.Run("breakdowns grouped by analysis", func(t *testing.T) {
		breakdowns, err := reports.PermanentResultsByAnalysis(ctx, []int64{retirement.ID, holiday.ID, draft.ID})
		require.NoError(t, err)
		assert.Len(t, breakdowns[retirement.ID], 3)
		assert.Len(t, breakdowns[holiday.ID], 2)
		assert.Empty(t, breakdowns[draft.ID])
		assert.Equal(t, 1, breakdowns[holiday.ID][0].Week)

		empty, err := reports.PermanentResultsByAnalysis(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
