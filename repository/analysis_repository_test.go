package repository

import (
	"context"
	"testing"
	"time"

	"projector/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	users := NewUserRepository(testDB.DB)
	repo := NewAnalysisRepository(testDB.DB)

	owner := testutil.CreateTestUser("owner")
	require.NoError(t, users.Create(ctx, owner))
	other := testutil.CreateTestUser("other")
	require.NoError(t, users.Create(ctx, other))

	t.Run("create and get round trip", func(t *testing.T) {
		analysis := testutil.CreateTestAnalysis(owner.ID, "house deposit")
		frequency := 2
		analysis.DepositAmount = 50
		analysis.DepositFrequency = &frequency

		require.NoError(t, repo.Create(ctx, analysis))
		require.NotZero(t, analysis.ID)

		found, err := repo.GetByID(ctx, analysis.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, analysis.Description, found.Description)
		assert.Equal(t, analysis.Principal, found.Principal)
		require.NotNil(t, found.DepositFrequency)
		assert.Equal(t, 2, *found.DepositFrequency)
		assert.Nil(t, found.WithdrawalFrequency)
		assert.True(t, analysis.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("missing analysis is nil", func(t *testing.T) {
		found, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, found)

		locked, err := repo.GetForUpdate(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, locked)
	})

	t.Run("update stores editable fields", func(t *testing.T) {
		analysis := testutil.CreateTestAnalysis(owner.ID, "car")
		require.NoError(t, repo.Create(ctx, analysis))

		frequency := 4
		analysis.ProjectionWeeks = 12
		analysis.WithdrawalAmount = 20
		analysis.WithdrawalFrequency = &frequency
		analysis.UpdatedAt = analysis.UpdatedAt.Add(time.Minute)
		require.NoError(t, repo.Update(ctx, analysis))

		found, err := repo.GetByID(ctx, analysis.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, found.ProjectionWeeks)
		require.NotNil(t, found.WithdrawalFrequency)
		assert.Equal(t, 4, *found.WithdrawalFrequency)
		assert.True(t, analysis.UpdatedAt.Equal(found.UpdatedAt))
	})

	t.Run("unknown owner is rejected", func(t *testing.T) {
		analysis := testutil.CreateTestAnalysis(424242, "orphan")
		assert.Error(t, repo.Create(ctx, analysis))
	})

	t.Run("list scopes by owner", func(t *testing.T) {
		base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		older := testutil.CreateTestAnalysisAt(other.ID, "older", base)
		newer := testutil.CreateTestAnalysisAt(other.ID, "newer", base.Add(24*time.Hour))
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newer))

		otherID := other.ID
		mine, err := repo.List(ctx, &otherID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, newer.ID, mine[0].ID)
		assert.Equal(t, older.ID, mine[1].ID)

		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Greater(t, len(all), len(mine))
	})
}
