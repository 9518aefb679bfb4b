package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type escrowMocks struct {
	factory   *MockUnitOfWorkFactory
	uow       *MockUnitOfWork
	users     *MockUserRepository
	history   *MockBalanceHistoryRepository
	escrows   *MockEscrowRepository
	publisher *MockEventPublisher
}

func newEscrowMocks(ctx context.Context) *escrowMocks {
	m := &escrowMocks{
		factory:   new(MockUnitOfWorkFactory),
		uow:       new(MockUnitOfWork),
		users:     new(MockUserRepository),
		history:   new(MockBalanceHistoryRepository),
		escrows:   new(MockEscrowRepository),
		publisher: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.users, m.history, m.publisher)
	m.uow.SetEscrowRepository(m.escrows)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func fastRetry() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
}

func heldEscrows(discordID int64, amounts ...int64) []*models.Escrow {
	sessionID := uuid.New()
	escrows := make([]*models.Escrow, 0, len(amounts))
	for _, amount := range amounts {
		escrows = append(escrows, &models.Escrow{
			ID:        uuid.New(),
			SessionID: sessionID,
			DiscordID: discordID,
			GameType:  models.GameTypeBlackjack,
			Amount:    amount,
			State:     models.EscrowStateHeld,
		})
	}
	return escrows
}

func TestEscrowService_Reserve(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	sessionID := uuid.New()

	m.users.On("DeductBalance", ctx, int64(1), int64(100)).Return(int64(900), nil)
	m.escrows.On("Create", ctx, mock.MatchedBy(func(e *models.Escrow) bool {
		return e.DiscordID == 1 && e.Amount == 100 && e.SessionID == sessionID && e.State == models.EscrowStateHeld
	})).Return(nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.BalanceBefore == 1000 && h.BalanceAfter == 900 &&
			h.ChangeAmount == -100 && h.TransactionType == models.TransactionTypeWagerHold
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.uow.On("Commit").Return(nil)

	escrow, err := service.Reserve(ctx, 1, sessionID, models.GameTypeBlackjack, 100)

	require.NoError(t, err)
	assert.Equal(t, int64(100), escrow.Amount)
	assert.Equal(t, models.GameTypeBlackjack, escrow.GameType)
	m.users.AssertExpectations(t)
	m.escrows.AssertExpectations(t)
	m.uow.AssertExpectations(t)
}

func TestEscrowService_Reserve_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)

	m.users.On("DeductBalance", ctx, int64(1), int64(5000)).Return(int64(0), ErrInsufficientBalance)

	escrow, err := service.Reserve(ctx, 1, uuid.New(), models.GameTypeWheel, 5000)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrStorageFailure)
	assert.Nil(t, escrow)
	m.escrows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestEscrowService_Reserve_InvalidAmount(t *testing.T) {
	service := NewEscrowServiceWithRetry(new(MockUnitOfWorkFactory), fastRetry)

	for _, amount := range []int64{0, -50} {
		_, err := service.Reserve(context.Background(), 1, uuid.New(), models.GameTypeMines, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestEscrowService_Settle_Win(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 100, 100)
	ids := models.EscrowIDs(escrows)

	m.escrows.On("Release", ctx, int64(1), ids, models.EscrowStateSettled).Return(escrows, nil)
	m.users.On("AddBalance", ctx, int64(1), int64(400)).Return(int64(1200), nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 400 && h.TransactionType == models.TransactionTypeWagerWin
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.publisher.On("Publish", mock.MatchedBy(func(e events.SessionSettledEvent) bool {
		return e.DiscordID == 1 && e.Staked == 200 && e.Payout == 400 && e.Net == 200 && e.Outcome == models.OutcomeWin
	})).Return()
	m.uow.On("Commit").Return(nil)

	receipt, err := service.Settle(ctx, 1, escrows, 400)

	require.NoError(t, err)
	assert.Equal(t, &models.Receipt{
		DiscordID:  1,
		Staked:     200,
		Payout:     400,
		Net:        200,
		NewBalance: 1200,
	}, receipt)
	m.publisher.AssertExpectations(t)
}

func TestEscrowService_Settle_LossCreditsNothing(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 250)

	m.escrows.On("Release", ctx, int64(1), models.EscrowIDs(escrows), models.EscrowStateSettled).Return(escrows, nil)
	m.users.On("GetByDiscordID", ctx, int64(1)).Return(&models.User{DiscordID: 1, Balance: 750}, nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 0 && h.TransactionType == models.TransactionTypeWagerLoss
	})).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()
	m.uow.On("Commit").Return(nil)

	receipt, err := service.Settle(ctx, 1, escrows, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(-250), receipt.Net)
	assert.Equal(t, int64(750), receipt.NewBalance)
	m.users.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestEscrowService_Settle_AlreadySettledIsNotRetried(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 100)

	m.escrows.On("Release", ctx, int64(1), models.EscrowIDs(escrows), models.EscrowStateSettled).
		Return([]*models.Escrow{}, nil)

	receipt, err := service.Settle(ctx, 1, escrows, 200)

	assert.ErrorIs(t, err, ErrExpiredOrAlreadySettled)
	assert.Nil(t, receipt)
	m.escrows.AssertNumberOfCalls(t, "Release", 1)
	m.users.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestEscrowService_Settle_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 100)
	ids := models.EscrowIDs(escrows)

	m.escrows.On("Release", ctx, int64(1), ids, models.EscrowStateSettled).
		Return(nil, errors.New("connection reset")).Once()
	m.escrows.On("Release", ctx, int64(1), ids, models.EscrowStateSettled).
		Return(escrows, nil).Once()
	m.users.On("AddBalance", ctx, int64(1), int64(100)).Return(int64(1000), nil)
	m.history.On("Record", ctx, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()
	m.uow.On("Commit").Return(nil)

	receipt, err := service.Settle(ctx, 1, escrows, 100)

	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.Net)
	m.escrows.AssertNumberOfCalls(t, "Release", 2)
}

func TestEscrowService_Settle_PersistentFailureIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 100)
	cause := errors.New("connection refused")

	m.escrows.On("Release", ctx, int64(1), models.EscrowIDs(escrows), models.EscrowStateSettled).Return(nil, cause)

	_, err := service.Settle(ctx, 1, escrows, 100)

	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	m.escrows.AssertNumberOfCalls(t, "Release", 3)
}

func TestEscrowService_Refund_UsesJournalAmounts(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(7, 300, 300)

	m.escrows.On("Release", ctx, int64(7), models.EscrowIDs(escrows), models.EscrowStateRefunded).Return(escrows, nil)
	m.users.On("AddBalance", ctx, int64(7), int64(600)).Return(int64(1000), nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWagerRefund && h.ChangeAmount == 600
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.publisher.On("Publish", mock.MatchedBy(func(e events.SessionSettledEvent) bool {
		return e.Outcome == models.OutcomeRefund && e.Net == 0
	})).Return()
	m.uow.On("Commit").Return(nil)

	receipt, err := service.Refund(ctx, 7, escrows)

	require.NoError(t, err)
	assert.True(t, receipt.Refunded)
	assert.Equal(t, int64(600), receipt.Payout)
	assert.Equal(t, int64(0), receipt.Net)
	m.publisher.AssertExpectations(t)
}

func TestEscrowService_RecoverOrphaned(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	first := heldEscrows(1, 100, 200)
	second := heldEscrows(2, 50)
	held := append(append([]*models.Escrow{}, first...), second...)

	m.escrows.On("GetHeld", ctx).Return(held, nil)
	m.escrows.On("Release", ctx, int64(1), models.EscrowIDs(first), models.EscrowStateRefunded).Return(first, nil)
	m.escrows.On("Release", ctx, int64(2), models.EscrowIDs(second), models.EscrowStateRefunded).Return(second, nil)
	m.users.On("AddBalance", ctx, int64(1), int64(300)).Return(int64(1000), nil)
	m.users.On("AddBalance", ctx, int64(2), int64(50)).Return(int64(1000), nil)
	m.history.On("Record", ctx, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()
	m.uow.On("Commit").Return(nil)

	recovered, err := service.RecoverOrphaned(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, recovered)
	m.users.AssertExpectations(t)
}

func TestEscrowService_Settle_CommitWithLostReplyIsNotPaidTwice(t *testing.T) {
	ctx := context.Background()
	m := newEscrowMocks(ctx)
	service := NewEscrowServiceWithRetry(m.factory, fastRetry)
	escrows := heldEscrows(1, 100, 100)
	ids := models.EscrowIDs(escrows)

	m.escrows.On("Release", ctx, int64(1), ids, models.EscrowStateSettled).Return(escrows, nil).Once()
	m.escrows.On("Release", ctx, int64(1), ids, models.EscrowStateSettled).Return([]*models.Escrow{}, nil).Once()
	m.users.On("AddBalance", ctx, int64(1), int64(400)).Return(int64(1200), nil).Once()
	m.history.On("Record", ctx, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()
	// The commit lands but the reply does not
	m.uow.On("Commit").Return(errors.New("connection reset")).Once()
	m.history.On("GetRelease", ctx, int64(1), escrows[0].ID).Return(&models.BalanceHistory{
		DiscordID:       1,
		BalanceBefore:   800,
		BalanceAfter:    1200,
		ChangeAmount:    400,
		TransactionType: models.TransactionTypeWagerWin,
		TransactionMetadata: map[string]any{
			"staked": float64(200),
			"payout": float64(400),
			"net":    float64(200),
		},
	}, nil)

	receipt, err := service.Settle(ctx, 1, escrows, 400)

	require.NoError(t, err)
	assert.Equal(t, &models.Receipt{
		DiscordID:  1,
		Staked:     200,
		Payout:     400,
		Net:        200,
		NewBalance: 1200,
	}, receipt)
	m.users.AssertNumberOfCalls(t, "AddBalance", 1)
	m.escrows.AssertNumberOfCalls(t, "Release", 2)
}

func TestEscrowService_Receipt(t *testing.T) {
	ctx := context.Background()

	t.Run("refund from journal", func(t *testing.T) {
		m := newEscrowMocks(ctx)
		service := NewEscrowServiceWithRetry(m.factory, fastRetry)
		escrows := heldEscrows(3, 250)

		m.history.On("GetRelease", ctx, int64(3), escrows[0].ID).Return(&models.BalanceHistory{
			DiscordID:       3,
			BalanceAfter:    900,
			ChangeAmount:    250,
			TransactionType: models.TransactionTypeWagerRefund,
		}, nil)

		receipt, err := service.Receipt(ctx, 3, escrows)

		require.NoError(t, err)
		assert.True(t, receipt.Refunded)
		assert.Equal(t, int64(250), receipt.Staked)
		assert.Equal(t, int64(250), receipt.Payout)
		assert.Equal(t, int64(0), receipt.Net)
		assert.Equal(t, int64(900), receipt.NewBalance)
	})

	t.Run("nothing released", func(t *testing.T) {
		m := newEscrowMocks(ctx)
		service := NewEscrowServiceWithRetry(m.factory, fastRetry)
		escrows := heldEscrows(3, 250)

		m.history.On("GetRelease", ctx, int64(3), escrows[0].ID).Return(nil, nil)

		receipt, err := service.Receipt(ctx, 3, escrows)

		assert.ErrorIs(t, err, ErrExpiredOrAlreadySettled)
		assert.Nil(t, receipt)
	})
}
