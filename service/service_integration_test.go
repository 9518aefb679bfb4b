package service_test

import (
	"context"
	"testing"
	"time"

	"wagerbot/config"
	"wagerbot/events"
	"wagerbot/models"
	"wagerbot/repository"
	"wagerbot/repository/testutil"
	"wagerbot/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrowLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	userRepo := repository.NewUserRepository(testDB.DB)
	escrowService := service.NewEscrowService(factory)

	_, err := service.NewUserService(factory, 10000).GetOrCreateUser(ctx, 111111, "player")
	require.NoError(t, err)

	balance := func() int64 {
		user, err := userRepo.GetByDiscordID(ctx, 111111)
		require.NoError(t, err)
		return user.Balance
	}

	t.Run("loss keeps the stake", func(t *testing.T) {
		sessionID := uuid.New()
		escrow, err := escrowService.Reserve(ctx, 111111, sessionID, models.GameTypeBlackjack, 5000)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), balance())

		receipt, err := escrowService.Settle(ctx, 111111, []*models.Escrow{escrow}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(-5000), receipt.Net)
		assert.Equal(t, int64(5000), balance())
	})

	t.Run("push on an all-in stake", func(t *testing.T) {
		escrow, err := escrowService.Reserve(ctx, 111111, uuid.New(), models.GameTypeBlackjack, 5000)
		require.NoError(t, err)
		assert.Zero(t, balance())

		receipt, err := escrowService.Settle(ctx, 111111, []*models.Escrow{escrow}, 5000)
		require.NoError(t, err)
		assert.Zero(t, receipt.Net)
		assert.Equal(t, int64(5000), balance())
	})

	t.Run("reserve beyond balance mutates nothing", func(t *testing.T) {
		_, err := escrowService.Reserve(ctx, 111111, uuid.New(), models.GameTypeWheel, 5001)
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)
		assert.Equal(t, int64(5000), balance())

		held, err := repository.NewEscrowRepository(testDB.DB).GetHeldByUser(ctx, 111111)
		require.NoError(t, err)
		assert.Empty(t, held)
	})

	t.Run("escrow is consumed exactly once", func(t *testing.T) {
		sessionID := uuid.New()
		stake, err := escrowService.Reserve(ctx, 111111, sessionID, models.GameTypeBlackjack, 1000)
		require.NoError(t, err)
		double, err := escrowService.Reserve(ctx, 111111, sessionID, models.GameTypeBlackjack, 1000)
		require.NoError(t, err)
		escrows := []*models.Escrow{stake, double}
		assert.Equal(t, int64(3000), balance())

		receipt, err := escrowService.Settle(ctx, 111111, escrows, 4000)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), receipt.Net)
		assert.Equal(t, int64(7000), balance())

		_, err = escrowService.Settle(ctx, 111111, escrows, 4000)
		assert.ErrorIs(t, err, service.ErrExpiredOrAlreadySettled)
		_, err = escrowService.Refund(ctx, 111111, escrows)
		assert.ErrorIs(t, err, service.ErrExpiredOrAlreadySettled)
		assert.Equal(t, int64(7000), balance())
	})

	t.Run("orphaned escrows are refunded on recovery", func(t *testing.T) {
		_, err := escrowService.Reserve(ctx, 111111, uuid.New(), models.GameTypeMines, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(6000), balance())

		recovered, err := escrowService.RecoverOrphaned(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, recovered)
		assert.Equal(t, int64(7000), balance())
	})

	t.Run("history reconciles with balance", func(t *testing.T) {
		history, err := repository.NewBalanceHistoryRepository(testDB.DB).GetByUser(ctx, 111111, 100)
		require.NoError(t, err)

		var sum int64
		for _, h := range history {
			sum += h.ChangeAmount
		}
		assert.Equal(t, balance(), sum)
	})
}

func TestLoanPenalty_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	loanRepo := repository.NewLoanRepository(testDB.DB)

	terms := config.DefaultGameTuning().Bank
	terms.Loan.MaxAmount = 100000
	terms.Loan.FeePercent = 0

	taken := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	bank := service.NewBankServiceWithClock(factory, terms, func() time.Time { return taken })
	accrual := service.NewAccrualService(factory, terms)

	_, err := service.NewUserService(factory, 0).GetOrCreateUser(ctx, 222222, "borrower")
	require.NoError(t, err)

	status, err := bank.TakeLoan(ctx, 222222, 100000)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), status.Balance)
	due := *status.Loan.DueAt

	t.Run("before the first threshold nothing happens", func(t *testing.T) {
		result, err := accrual.RunPenaltyPass(ctx, due.Add(terms.Loan.PenaltyAfter-time.Minute))
		require.NoError(t, err)
		assert.Zero(t, result.Surcharged)
	})

	t.Run("first threshold adds the penalty once", func(t *testing.T) {
		now := due.Add(terms.Loan.PenaltyAfter)
		result, err := accrual.RunPenaltyPass(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Surcharged)

		loan, err := loanRepo.Get(ctx, 222222)
		require.NoError(t, err)
		assert.Equal(t, int64(20000), loan.Penalty)
		assert.Equal(t, int64(120000), loan.Owed())

		result, err = accrual.RunPenaltyPass(ctx, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, result.Surcharged)
		assert.Zero(t, result.Collected)

		again, err := loanRepo.Get(ctx, 222222)
		require.NoError(t, err)
		assert.Equal(t, loan.Owed(), again.Owed())
	})

	t.Run("second threshold collects and suspends", func(t *testing.T) {
		// Spend part of the loan so collection falls short
		_, err := repository.NewUserRepository(testDB.DB).DeductBalance(ctx, 222222, 70000)
		require.NoError(t, err)

		now := due.Add(terms.Loan.CollectAfter)
		result, err := accrual.RunPenaltyPass(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Collected)
		assert.Equal(t, int64(30000), result.CollectedAmount)

		loan, err := loanRepo.Get(ctx, 222222)
		require.NoError(t, err)
		assert.Equal(t, int64(90000), loan.Owed())
		assert.Equal(t, int64(30000), loan.Collected)
		assert.Equal(t, int64(120000), loan.Owed()+loan.Collected)
		assert.True(t, loan.Suspended(now))

		result, err = accrual.RunPenaltyPass(ctx, now.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, result.Collected)
	})
}

func TestInterestOncePerDay_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	terms := config.DefaultGameTuning().Bank
	bank := service.NewBankService(factory, terms)
	accrual := service.NewAccrualService(factory, terms)

	_, err := service.NewUserService(factory, 20000).GetOrCreateUser(ctx, 333333, "saver")
	require.NoError(t, err)
	_, err = bank.Deposit(ctx, 333333, 10000)
	require.NoError(t, err)

	morning := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	run, err := accrual.Run(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, int64(100), run.InterestGranted)

	run, err = accrual.Run(ctx, morning.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, run.InterestGranted)

	status, err := bank.Status(ctx, 333333)
	require.NoError(t, err)
	assert.Equal(t, int64(10100), status.Deposit.Total())
	assert.Equal(t, int64(10000), status.Balance)

	latest, err := repository.NewAccrualRunRepository(testDB.DB).GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
}
