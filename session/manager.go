package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wagerbot/games"
	"wagerbot/models"
	"wagerbot/service"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout       = 2 * time.Minute
	DefaultRetryInterval = 30 * time.Second

	// expiryBudget bounds the storage work a timer callback may do
	expiryBudget = 30 * time.Second
)

// ExpiryHandler is called after a timer fired and the session was refunded
// or a pending settlement was retried. result is nil when err is set.
type ExpiryHandler func(s *Session, result *Result, err error)

// Recorder receives session metrics
type Recorder interface {
	SessionStarted(ctx context.Context, gameType models.GameType)
	SessionRejected(ctx context.Context, gameType models.GameType, reason string)
	SessionSettled(ctx context.Context, gameType models.GameType, outcome Outcome, refunded bool)
}

type noopRecorder struct{}

func (noopRecorder) SessionStarted(context.Context, models.GameType)                 {}
func (noopRecorder) SessionRejected(context.Context, models.GameType, string)        {}
func (noopRecorder) SessionSettled(context.Context, models.GameType, Outcome, bool) {}

// Config tunes a Manager. Zero values take the defaults.
type Config struct {
	// Timeout is how long a session may sit without a move before it is refunded
	Timeout time.Duration
	// RetryInterval is the wait before retrying a settlement that failed
	RetryInterval time.Duration
	Recorder      Recorder
	OnExpire      ExpiryHandler
}

// Manager is the registry of live sessions. An actor appears in at most
// one live session at a time.
type Manager struct {
	escrow        service.EscrowService
	timeout       time.Duration
	retryInterval time.Duration
	recorder      Recorder
	onExpire      ExpiryHandler

	mu       sync.Mutex
	active   map[int64]*Session
	sessions map[uuid.UUID]*Session
}

func NewManager(escrow service.EscrowService, cfg Config) *Manager {
	m := &Manager{
		escrow:        escrow,
		timeout:       cfg.Timeout,
		retryInterval: cfg.RetryInterval,
		recorder:      cfg.Recorder,
		onExpire:      cfg.OnExpire,
		active:        make(map[int64]*Session),
		sessions:      make(map[uuid.UUID]*Session),
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.retryInterval <= 0 {
		m.retryInterval = DefaultRetryInterval
	}
	if m.recorder == nil {
		m.recorder = noopRecorder{}
	}
	return m
}

// SetExpiryHandler replaces the expiry callback. Used by the chat front-end
// which is built after the manager.
func (m *Manager) SetExpiryHandler(h ExpiryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = h
}

// Start claims every player's slot, reserves the owner's stake and
// registers the session. A game that is already finished settles at once
// and the returned session carries its Result.
func (m *Manager) Start(ctx context.Context, game games.Game, stake int64) (*Session, error) {
	if stake <= 0 {
		return nil, service.ErrInvalidAmount
	}

	s := newSession(game, time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.claim(s); err != nil {
		m.recorder.SessionRejected(ctx, game.Type(), "conflict")
		return nil, err
	}

	owner := game.Owner()
	escrow, err := m.escrow.Reserve(ctx, owner, s.ID, game.Type(), stake)
	if err != nil {
		s.state = StateSettled
		m.unregister(s)
		m.recorder.SessionRejected(ctx, game.Type(), rejectionReason(err))
		return nil, err
	}
	s.escrows[owner] = append(s.escrows[owner], escrow)
	m.recorder.SessionStarted(ctx, game.Type())

	log.WithFields(log.Fields{
		"sessionID": s.ID,
		"gameType":  game.Type(),
		"owner":     owner,
		"stake":     stake,
	}).Info("Session started")

	if game.Finished() {
		_, err := m.finishLocked(ctx, s)
		return s, err
	}
	m.armLocked(s, m.timeout)
	return s, nil
}

// Act runs one move for actor. fn mutates the game and may raise the
// actor's stake through the Turn. When the move ends the game the session
// is settled and the Result returned; otherwise the Result is nil.
func (m *Manager) Act(ctx context.Context, id uuid.UUID, actor int64, fn func(t *Turn) error) (*Result, error) {
	s := m.lookup(id)
	if s == nil {
		return nil, service.ErrExpiredOrAlreadySettled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.participant(actor) {
		return nil, service.ErrNotYourSession
	}
	switch s.state {
	case StateSettled:
		return nil, service.ErrExpiredOrAlreadySettled
	case StateResolving:
		// The result is fixed; any participant nudges the pending credit.
		s.stopTimer()
		return m.settleLocked(ctx, s)
	}
	if s.Game.CurrentActor() != actor {
		return nil, service.ErrNotYourTurn
	}

	if err := fn(&Turn{ctx: ctx, manager: m, session: s, actor: actor}); err != nil {
		return nil, err
	}

	if s.Game.Finished() {
		return m.finishLocked(ctx, s)
	}
	m.armLocked(s, m.timeout)
	return nil, nil
}

// Cancel refunds a session that the game allows actor to abandon
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID, actor int64) (*Result, error) {
	s := m.lookup(id)
	if s == nil {
		return nil, service.ErrExpiredOrAlreadySettled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.participant(actor) {
		return nil, service.ErrNotYourSession
	}
	if s.state == StateSettled {
		return nil, service.ErrExpiredOrAlreadySettled
	}
	c, ok := s.Game.(games.Cancelable)
	if !ok || s.state != StateCreated || !c.CanCancel(actor) {
		return nil, fmt.Errorf("%w: this game cannot be cancelled now", games.ErrIllegalMove)
	}

	s.stopTimer()
	s.state = StateResolving
	s.refund = true
	return m.settleLocked(ctx, s)
}

// View runs fn with the session locked. fn must not call back into the manager.
func (m *Manager) View(id uuid.UUID, fn func(s *Session)) error {
	s := m.lookup(id)
	if s == nil {
		return service.ErrExpiredOrAlreadySettled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
	return nil
}

// Get returns a live session by id
func (m *Manager) Get(id uuid.UUID) *Session {
	return m.lookup(id)
}

// ActiveFor returns the live session discordID takes part in, if any
func (m *Manager) ActiveFor(discordID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[discordID]
}

// IsActive reports whether discordID has a live session
func (m *Manager) IsActive(discordID int64) bool {
	return m.ActiveFor(discordID) != nil
}

// ActiveCount is the number of live sessions
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown refunds every live session and settles those whose result is
// already fixed. Returns how many sessions were closed.
func (m *Manager) Shutdown(ctx context.Context) int {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	closed := 0
	for _, s := range live {
		s.mu.Lock()
		s.stopTimer()
		if s.state == StateCreated {
			s.state = StateResolving
			s.refund = true
		}
		if s.state == StateResolving {
			if _, err := m.settleLocked(ctx, s); err != nil {
				log.WithFields(log.Fields{
					"sessionID": s.ID,
					"error":     err,
				}).Error("Failed to close session on shutdown")
			} else {
				closed++
			}
			s.stopTimer()
		}
		s.mu.Unlock()
	}
	return closed
}

func (m *Manager) lookup(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// claim takes the active slot of every player or none of them
func (m *Manager) claim(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := s.Game.Players()
	for _, p := range players {
		if _, busy := m.active[p]; busy {
			return fmt.Errorf("%w: <@%d> is already in a game", service.ErrSessionConflict, p)
		}
	}
	for _, p := range players {
		m.active[p] = s
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *Manager) unregister(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range s.Game.Players() {
		if m.active[p] == s {
			delete(m.active, p)
		}
	}
	delete(m.sessions, s.ID)
}

// armLocked (re)starts the session timer
func (m *Manager) armLocked(s *Session, after time.Duration) {
	s.stopTimer()
	s.timerGen++
	s.expiresAt = time.Now().Add(after)
	id, gen := s.ID, s.timerGen
	s.timer = time.AfterFunc(after, func() { m.expire(id, gen) })
}

// expire refunds a session that ran out of time, or retries a pending settlement
func (m *Manager) expire(id uuid.UUID, gen uint64) {
	s := m.lookup(id)
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), expiryBudget)
	defer cancel()

	s.mu.Lock()
	// A timer replaced while this callback waited for the lock is stale.
	if s.timerGen != gen || s.state == StateSettled {
		s.mu.Unlock()
		return
	}
	if s.state == StateCreated {
		s.state = StateResolving
		s.refund = true
		s.expired = true
		log.WithFields(log.Fields{
			"sessionID": s.ID,
			"gameType":  s.Game.Type(),
		}).Info("Session timed out, refunding")
	}
	s.timer = nil
	result, err := m.settleLocked(ctx, s)
	s.mu.Unlock()

	m.mu.Lock()
	handler := m.onExpire
	m.mu.Unlock()
	if handler != nil {
		handler(s, result, err)
	}
}

// Turn is the handle a move uses to raise its stake
type Turn struct {
	ctx     context.Context
	manager *Manager
	session *Session
	actor   int64
}

func (t *Turn) Actor() int64 { return t.actor }

// Raise reserves amount more for the acting player. Call it before the game
// move that needs the extra stake.
func (t *Turn) Raise(amount int64) error {
	s := t.session
	escrow, err := t.manager.escrow.Reserve(t.ctx, t.actor, s.ID, s.Game.Type(), amount)
	if err != nil {
		return err
	}
	s.escrows[t.actor] = append(s.escrows[t.actor], escrow)
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, service.ErrUserNotFound):
		return "not_enrolled"
	case errors.Is(err, service.ErrStorageFailure):
		return "storage_failure"
	default:
		return "other"
	}
}
