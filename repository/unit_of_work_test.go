package repository

import (
	"context"
	"testing"
	"time"

	"wagerbot/events"
	"wagerbot/models"
	"wagerbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 9001, "mia", 1000)

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		received <- e
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	balance, err := uow.UserRepository().AddBalance(ctx, 9001, 500)
	require.NoError(t, err)
	uow.EventBus().Publish(events.BalanceChangeEvent{UserID: 9001, OldBalance: 1000, NewBalance: balance})

	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())

	select {
	case e := <-received:
		assert.Equal(t, int64(1500), e.(events.BalanceChangeEvent).NewBalance)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after commit")
	}
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, testDB.DB, 9101, "noah", 1000)

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.SubscribeAll(func(ctx context.Context, e events.Event) {
		received <- e
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.UserRepository().DeductBalance(ctx, 9101, 300)
	require.NoError(t, err)
	require.NoError(t, uow.BalanceHistoryRepository().Record(ctx,
		testutil.CreateTestBalanceHistory(9101, models.TransactionTypeWagerHold)))
	uow.EventBus().Publish(events.BalanceChangeEvent{UserID: 9101})
	require.NoError(t, uow.Rollback())

	user, err := NewUserRepository(testDB.DB).GetByDiscordID(ctx, 9101)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Balance)

	history, err := NewBalanceHistoryRepository(testDB.DB).GetByUser(ctx, 9101, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	select {
	case <-received:
		t.Fatal("rolled back event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnitOfWork_RequiresBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil, events.NewBus()).Create()

	assert.Panics(t, func() { uow.UserRepository() })
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}
