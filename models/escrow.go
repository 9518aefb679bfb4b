package models

import (
	"time"

	"github.com/google/uuid"
)

// EscrowState represents the lifecycle state of an escrow hold
type EscrowState string

const (
	EscrowStateHeld     EscrowState = "held"
	EscrowStateSettled  EscrowState = "settled"
	EscrowStateRefunded EscrowState = "refunded"
)

// Escrow is a stake debited up front and held until its session settles.
// A held escrow is consumed exactly once, by settlement or by refund.
type Escrow struct {
	ID         uuid.UUID   `db:"id"`
	SessionID  uuid.UUID   `db:"session_id"`
	DiscordID  int64       `db:"discord_id"`
	GameType   GameType    `db:"game_type"`
	Amount     int64       `db:"amount"`
	State      EscrowState `db:"state"`
	CreatedAt  time.Time   `db:"created_at"`
	ReleasedAt *time.Time  `db:"released_at"`
}

// EscrowIDs returns the ids of the given escrows
func EscrowIDs(escrows []*Escrow) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(escrows))
	for _, e := range escrows {
		ids = append(ids, e.ID)
	}
	return ids
}

// EscrowTotal sums the held amounts
func EscrowTotal(escrows []*Escrow) int64 {
	var total int64
	for _, e := range escrows {
		total += e.Amount
	}
	return total
}

// Receipt is the result of releasing a set of escrows for one actor
type Receipt struct {
	DiscordID  int64
	Staked     int64
	Payout     int64
	Net        int64
	Refunded   bool
	NewBalance int64
}
