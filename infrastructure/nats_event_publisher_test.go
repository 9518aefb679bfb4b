package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeMessagePublisher struct {
	mu        sync.Mutex
	messages  []publishedMessage
	err       error
	published chan struct{}
}

func newFakeMessagePublisher() *fakeMessagePublisher {
	return &fakeMessagePublisher{published: make(chan struct{}, 10)}
}

func (f *fakeMessagePublisher) Publish(_ context.Context, subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	f.published <- struct{}{}
	return nil
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.BalanceChangeEvent{}, "economy.users.balance_changed"},
		{events.UserCreatedEvent{}, "economy.users.created"},
		{events.SessionSettledEvent{}, "economy.sessions.settled"},
		{events.LoanPenaltyEvent{}, "economy.loans.penalized"},
	}
	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
		})
	}
}

func TestNATSEventPublisher_Envelope(t *testing.T) {
	fake := newFakeMessagePublisher()
	publisher := NewNATSEventPublisher(fake, NewEventSubjectMapper(), "wagerbot")

	event := events.SessionSettledEvent{
		SessionID: uuid.NewString(),
		DiscordID: 42,
		GameType:  models.GameTypeMines,
		Outcome:   models.OutcomeWin,
		Staked:    100,
		Payout:    250,
		Net:       150,
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, fake.messages, 1)
	assert.Equal(t, "economy.sessions.settled", fake.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(fake.messages[0].data, &envelope))
	assert.Equal(t, "session_settled", envelope.EventType)
	assert.Equal(t, "wagerbot", envelope.SourceService)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.SessionSettledEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	fake := newFakeMessagePublisher()
	fake.err = errors.New("no responders")
	publisher := NewNATSEventPublisher(fake, NewEventSubjectMapper(), "wagerbot")

	err := publisher.Publish(context.Background(), events.UserCreatedEvent{DiscordID: 1})
	assert.ErrorIs(t, err, fake.err)
}

func TestNATSEventPublisher_Forward(t *testing.T) {
	fake := newFakeMessagePublisher()
	publisher := NewNATSEventPublisher(fake, NewEventSubjectMapper(), "wagerbot")
	bus := events.NewBus()
	publisher.Forward(bus, time.Second)

	tx := events.NewTransactionalBus(bus)
	tx.Publish(events.BalanceChangeEvent{UserID: 1, OldBalance: 100, NewBalance: 50, ChangeAmount: -50})
	tx.Publish(events.LoanPenaltyEvent{DiscordID: 1, Stage: events.LoanPenaltyStageSurcharge, Amount: 20})
	tx.Flush()

	for range 2 {
		select {
		case <-fake.published:
		case <-time.After(2 * time.Second):
			t.Fatal("event was not forwarded")
		}
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	subjects := []string{fake.messages[0].subject, fake.messages[1].subject}
	assert.ElementsMatch(t, []string{"economy.users.balance_changed", "economy.loans.penalized"}, subjects)
}
