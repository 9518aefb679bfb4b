package events

import (
	"context"
	"sync"

	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeUserCreated    EventType = "user_created"
	EventTypeSessionSettled EventType = "session_settled"
	EventTypeLoanPenalty    EventType = "loan_penalty"
)

// AllEventTypes lists every event type the bus carries
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserCreated,
	EventTypeSessionSettled,
	EventTypeLoanPenalty,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed change to an actor's primary balance
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new enrollment
type UserCreatedEvent struct {
	DiscordID      int64  `json:"discord_id"`
	Username       string `json:"username"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// SessionSettledEvent is emitted once per actor when a session's escrows are released
type SessionSettledEvent struct {
	SessionID string             `json:"session_id"`
	DiscordID int64              `json:"discord_id"`
	GameType  models.GameType    `json:"game_type"`
	Outcome   models.OutcomeKind `json:"outcome"`
	Staked    int64              `json:"staked"`
	Payout    int64              `json:"payout"`
	Net       int64              `json:"net"`
}

func (e SessionSettledEvent) Type() EventType {
	return EventTypeSessionSettled
}

// LoanPenaltyStage identifies which overdue threshold fired
type LoanPenaltyStage string

const (
	LoanPenaltyStageSurcharge  LoanPenaltyStage = "surcharge"
	LoanPenaltyStageCollection LoanPenaltyStage = "collection"
)

// LoanPenaltyEvent is emitted when the accrual loop penalizes an overdue loan
type LoanPenaltyEvent struct {
	DiscordID int64            `json:"discord_id"`
	Stage     LoanPenaltyStage `json:"stage"`
	Amount    int64            `json:"amount"`
	Owed      int64            `json:"owed"`
}

func (e LoanPenaltyEvent) Type() EventType {
	return EventTypeLoanPenalty
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers. Handlers run on
// their own goroutines and a panicking handler is logged, not propagated.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events published inside a unit of work until the
// transaction commits. Rolled back work discards its events.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events on the underlying bus. Called after commit.
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	// Handlers outlive the request that committed, so they get a fresh context.
	ctx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
