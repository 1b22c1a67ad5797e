package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"projector/models"
	"projector/repository/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAnalysis inserts a user and an analysis and returns the analysis id
func seedAnalysis(t *testing.T, ctx context.Context, testDB *testutil.TestDatabase, username string) int64 {
	t.Helper()

	user := testutil.CreateTestUser(username)
	require.NoError(t, NewUserRepository(testDB.DB).Create(ctx, user))

	analysis := testutil.CreateTestAnalysis(user.ID, username+" savings")
	require.NoError(t, NewAnalysisRepository(testDB.DB).Create(ctx, analysis))
	return analysis.ID
}

func TestResultRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	staging := NewResultRepository(testDB.DB, models.ResultTierStaging)
	permanent := NewResultRepository(testDB.DB, models.ResultTierPermanent)
	generatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("replace all swaps the whole set", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "replace")

		first := testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 4, 1000, generatedAt)
		require.NoError(t, staging.ReplaceAll(ctx, analysisID, first))

		second := testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 2, 500, generatedAt.Add(time.Hour))
		require.NoError(t, staging.ReplaceAll(ctx, analysisID, second))

		rows, err := staging.List(ctx, analysisID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for i, row := range rows {
			assert.Equal(t, i+1, row.Week)
			assert.Equal(t, models.ResultTierStaging, row.Tier)
			assert.Equal(t, second[i].EndingBalance, row.EndingBalance)
			assert.True(t, row.GeneratedAt.Equal(generatedAt.Add(time.Hour)))
			assert.Nil(t, row.PromotedAt)
			assert.NotZero(t, row.ID)
		}

		count, err := staging.Count(ctx, analysisID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("replace all with identical input is idempotent", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "idempotent")
		rows := testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 3, 1000, generatedAt)

		require.NoError(t, staging.ReplaceAll(ctx, analysisID, rows))
		once, err := staging.List(ctx, analysisID)
		require.NoError(t, err)

		require.NoError(t, staging.ReplaceAll(ctx, analysisID, rows))
		twice, err := staging.List(ctx, analysisID)
		require.NoError(t, err)

		require.Len(t, twice, len(once))
		for i := range once {
			assert.Equal(t, once[i].Week, twice[i].Week)
			assert.Equal(t, once[i].EndingBalance, twice[i].EndingBalance)
		}
	})

	t.Run("tiers are independent", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "tiers")

		require.NoError(t, permanent.ReplaceAll(ctx, analysisID,
			testutil.CreateTestWeeklyResults(analysisID, models.ResultTierPermanent, 3, 1000, generatedAt)))
		require.NoError(t, staging.ReplaceAll(ctx, analysisID,
			testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 5, 2000, generatedAt)))

		deleted, err := staging.DeleteAll(ctx, analysisID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), deleted)

		rows, err := permanent.List(ctx, analysisID)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for _, row := range rows {
			assert.Equal(t, models.ResultTierPermanent, row.Tier)
			require.NotNil(t, row.PromotedAt)
			assert.True(t, row.PromotedAt.Equal(generatedAt))
		}
	})

	t.Run("rows of another analysis are rejected", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "mismatch")
		rows := testutil.CreateTestWeeklyResults(analysisID+1000, models.ResultTierStaging, 2, 1000, generatedAt)

		err := staging.ReplaceAll(ctx, analysisID, rows)
		assert.ErrorIs(t, err, models.ErrForeignResultRow)
	})

	t.Run("duplicate weeks roll back the whole replace", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "duplicate")
		original := testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 2, 1000, generatedAt)
		require.NoError(t, staging.ReplaceAll(ctx, analysisID, original))

		broken := testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 3, 9000, generatedAt)
		broken[2].Week = 1
		require.Error(t, staging.ReplaceAll(ctx, analysisID, broken))

		rows, err := staging.List(ctx, analysisID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, original[1].EndingBalance, rows[1].EndingBalance)
	})

	t.Run("empty tier lists as empty slice", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "empty")

		rows, err := permanent.List(ctx, analysisID)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestAnalysisRepository_DeleteCascadesStagingAndRestrictsPermanent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	analyses := NewAnalysisRepository(testDB.DB)
	staging := NewResultRepository(testDB.DB, models.ResultTierStaging)
	permanent := NewResultRepository(testDB.DB, models.ResultTierPermanent)
	generatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("staging rows cascade", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "cascade")
		require.NoError(t, staging.ReplaceAll(ctx, analysisID,
			testutil.CreateTestWeeklyResults(analysisID, models.ResultTierStaging, 3, 1000, generatedAt)))

		require.NoError(t, analyses.Delete(ctx, analysisID))

		count, err := staging.Count(ctx, analysisID)
		require.NoError(t, err)
		assert.Zero(t, count)

		found, err := analyses.GetByID(ctx, analysisID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("permanent rows block delete", func(t *testing.T) {
		analysisID := seedAnalysis(t, ctx, testDB, "restrict")
		require.NoError(t, permanent.ReplaceAll(ctx, analysisID,
			testutil.CreateTestWeeklyResults(analysisID, models.ResultTierPermanent, 3, 1000, generatedAt)))

		err := analyses.Delete(ctx, analysisID)
		require.Error(t, err)

		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr))
		assert.Equal(t, "23503", pgErr.Code)

		found, err := analyses.GetByID(ctx, analysisID)
		require.NoError(t, err)
		assert.NotNil(t, found)
	})
}
