package repository

import (
	"context"
	"testing"
	"time"

	"wagerbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanRepository_GetForUpdateCreatesRecord(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 7001, "jack", 0)

	loan, err := repo.Get(ctx, 7001)
	require.NoError(t, err)
	assert.Nil(t, loan)

	loan, err = repo.GetForUpdate(ctx, 7001)
	require.NoError(t, err)
	assert.False(t, loan.Active())
	assert.Nil(t, loan.DueAt)

	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	today := time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC)
	loan.Principal = 1100
	loan.DueAt = &due
	loan.DailyCount = 1
	loan.CountResetDate = &today
	require.NoError(t, repo.Save(ctx, loan))

	saved, err := repo.Get(ctx, 7001)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), saved.Owed())
	assert.True(t, saved.DueAt.Equal(due))
	assert.Equal(t, 1, saved.LoansToday(today))
}

func TestLoanRepository_ApplyPenaltyOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 7101, "kate", 0)
	testutil.CreateTestLoan(t, testDB.DB, 7101, 1000, time.Now().Add(-48*time.Hour))

	applied, err := repo.ApplyPenalty(ctx, 7101, 200)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.ApplyPenalty(ctx, 7101, 200)
	require.NoError(t, err)
	assert.False(t, applied)

	loan, err := repo.Get(ctx, 7101)
	require.NoError(t, err)
	assert.Equal(t, int64(200), loan.Penalty)
	assert.Equal(t, int64(1200), loan.Owed())
	assert.True(t, loan.PenaltyApplied)
}

func TestLoanRepository_GetOverdue(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	testutil.CreateTestUser(t, testDB.DB, 7201, "overdue", 0)
	testutil.CreateTestLoan(t, testDB.DB, 7201, 500, now.Add(-30*time.Hour))
	testutil.CreateTestUser(t, testDB.DB, 7202, "not-yet", 0)
	testutil.CreateTestLoan(t, testDB.DB, 7202, 500, now.Add(-time.Hour))
	testutil.CreateTestUser(t, testDB.DB, 7203, "collected", 0)
	testutil.CreateTestLoan(t, testDB.DB, 7203, 500, now.Add(-100*time.Hour))
	testutil.CreateTestUser(t, testDB.DB, 7204, "repaid", 0)
	testutil.CreateTestLoan(t, testDB.DB, 7204, 0, now.Add(-100*time.Hour))

	collected, err := repo.GetForUpdate(ctx, 7203)
	require.NoError(t, err)
	collected.ForcedCollected = true
	require.NoError(t, repo.Save(ctx, collected))

	loans, err := repo.GetOverdue(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, int64(7201), loans[0].DiscordID)
}
