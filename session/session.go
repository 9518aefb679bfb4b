// Package session owns live games: the one-game-per-actor lock, the escrow
// handles each game holds, timeouts, and settlement.
package session

import (
	"sync"
	"time"

	"wagerbot/games"
	"wagerbot/models"

	"github.com/google/uuid"
)

// State is the lifecycle position of a session
type State int

const (
	// StateCreated accepts player actions
	StateCreated State = iota
	// StateResolving has a final result that is not yet fully credited
	StateResolving
	// StateSettled is terminal; every escrow has been consumed
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolving:
		return "resolving"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Outcome is one actor's share of a settled session
type Outcome struct {
	DiscordID  int64
	Kind       models.OutcomeKind
	Staked     int64
	Payout     int64
	Net        int64
	NewBalance int64
}

// Result is the settlement of a whole session
type Result struct {
	SessionID uuid.UUID
	GameType  models.GameType
	Refunded  bool
	Expired   bool
	Outcomes  []Outcome
}

// Outcome returns the outcome for discordID, or false if they staked nothing
func (r *Result) Outcome(discordID int64) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.DiscordID == discordID {
			return o, true
		}
	}
	return Outcome{}, false
}

// Session is one live game and the escrows backing it. Fields other than
// ID and Game are guarded by the session lock; read them through
// Manager.View.
type Session struct {
	ID        uuid.UUID
	Game      games.Game
	CreatedAt time.Time

	mu        sync.Mutex
	state     State
	expiresAt time.Time
	timer     *time.Timer
	timerGen  uint64

	escrows  map[int64][]*models.Escrow
	refund   bool
	expired  bool
	payouts  map[int64]int64
	released map[int64]Outcome
	result   *Result
}

func newSession(game games.Game, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Game:      game,
		CreatedAt: now,
		escrows:   make(map[int64][]*models.Escrow),
		released:  make(map[int64]Outcome),
	}
}

func (s *Session) State() State          { return s.state }
func (s *Session) ExpiresAt() time.Time  { return s.expiresAt }
func (s *Session) Result() *Result       { return s.result }
func (s *Session) Type() models.GameType { return s.Game.Type() }

// Staked is the total currently held in escrow for discordID
func (s *Session) Staked(discordID int64) int64 {
	return models.EscrowTotal(s.escrows[discordID])
}

// Escrows returns the handles held for discordID
func (s *Session) Escrows(discordID int64) []*models.Escrow {
	return append([]*models.Escrow(nil), s.escrows[discordID]...)
}

func (s *Session) participant(discordID int64) bool {
	for _, p := range s.Game.Players() {
		if p == discordID {
			return true
		}
	}
	return false
}

func (s *Session) stopTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
