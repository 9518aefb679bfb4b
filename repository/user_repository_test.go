package repository

import (
	"context"
	"testing"

	"wagerbot/models"
	"wagerbot/repository/testutil"
	"wagerbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing user", func(t *testing.T) {
		user, err := repo.GetByDiscordID(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("created user", func(t *testing.T) {
		created, err := repo.Create(ctx, 1001, "alice", 10000)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), created.Balance)
		assert.Zero(t, created.Tokens)

		fetched, err := repo.GetByDiscordID(ctx, 1001)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "alice", fetched.Username)
		assert.Equal(t, int64(10000), fetched.Balance)
	})

	t.Run("duplicate enrollment rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, 1001, "alice-again", 10000)
		assert.Error(t, err)
	})
}

func TestUserRepository_BalanceDeltas(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 2001, "bob", 1000)

	balance, err := repo.DeductBalance(ctx, 2001, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	balance, err = repo.AddBalance(ctx, 2001, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)

	t.Run("deduct more than balance", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, 2001, 751)
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)

		user, err := repo.GetByDiscordID(ctx, 2001)
		require.NoError(t, err)
		assert.Equal(t, int64(750), user.Balance)
	})

	t.Run("deduct exact balance", func(t *testing.T) {
		balance, err := repo.DeductBalance(ctx, 2001, 750)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, 9999, 1)
		assert.ErrorIs(t, err, service.ErrUserNotFound)

		_, err = repo.AddBalance(ctx, 9999, 1)
		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("non-positive amounts", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, 2001, 0)
		assert.Error(t, err)
		_, err = repo.DeductBalance(ctx, 2001, -5)
		assert.Error(t, err)
	})
}

func TestUserRepository_AdjustCounter(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 3001, "carol", 0)

	tokens, err := repo.AdjustCounter(ctx, 3001, models.CurrencyTokens, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tokens)

	_, err = repo.AdjustCounter(ctx, 3001, models.CurrencyTokens, -6)
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	fates, err := repo.AdjustCounter(ctx, 3001, models.CurrencyFates, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fates)

	user, err := repo.GetByDiscordID(ctx, 3001)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Tokens)
	assert.Equal(t, int64(2), user.Fates)
	assert.Zero(t, user.Balance)

	_, err = repo.AdjustCounter(ctx, 3001, models.Currency("gems"), 1)
	assert.Error(t, err)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	historyRepo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 4001, "dave", 500)
	testutil.CreateTestDeposit(t, testDB.DB, 4001, 100)
	require.NoError(t, historyRepo.Record(ctx, testutil.CreateTestBalanceHistory(4001, models.TransactionTypeInitial)))

	require.NoError(t, repo.Delete(ctx, 4001))

	user, err := repo.GetByDiscordID(ctx, 4001)
	require.NoError(t, err)
	assert.Nil(t, user)

	history, err := historyRepo.GetByUser(ctx, 4001, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	deposit, err := NewDepositRepository(testDB.DB).Get(ctx, 4001)
	require.NoError(t, err)
	assert.Nil(t, deposit)

	assert.ErrorIs(t, repo.Delete(ctx, 4001), service.ErrUserNotFound)
}
