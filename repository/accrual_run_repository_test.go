package repository

import (
	"context"
	"testing"
	"time"

	"wagerbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccrualRunRepository_CreateAndGetLatest(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccrualRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no runs yet", func(t *testing.T) {
		run, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	earlier := testutil.CreateTestAccrualRun(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	later := testutil.CreateTestAccrualRun(time.Date(2024, 3, 10, 0, 5, 0, 0, time.UTC))
	later.Failures = 2
	later.ExecutionSummary["penalty_error"] = "timeout"

	// Insert out of order to check ordering is by start time
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))
	assert.NotZero(t, later.ID)

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, later.ID, latest.ID)
	assert.Equal(t, 2, latest.Failures)
	assert.Equal(t, int64(5000), latest.InterestGranted)
	assert.Equal(t, "timeout", latest.ExecutionSummary["penalty_error"])
	assert.True(t, latest.StartedAt.Equal(later.StartedAt))
}
