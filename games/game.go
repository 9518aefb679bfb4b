// Package games holds the per-game rules. A game only decides what each
// stake pays; moving currency is the session's job.
package games

import (
	"errors"
	"math/rand/v2"

	"wagerbot/models"

	"github.com/shopspring/decimal"
)

var (
	ErrIllegalMove  = errors.New("that move is not available right now")
	ErrGameFinished = errors.New("game is already finished")
)

// Payout is the result of one stake. Amount is what is credited back; the
// stake itself was already debited when it was reserved.
type Payout struct {
	DiscordID int64
	Stake     int64
	Amount    int64
}

// Game is a single in-progress game
type Game interface {
	Type() models.GameType
	// Owner is the actor who started the game and staked first
	Owner() int64
	// Players lists every actor who may act or stake in the game
	Players() []int64
	// CurrentActor is the actor whose move it is, or 0 when finished
	CurrentActor() int64
	Finished() bool
	// Resolve returns one payout per stake. Only valid once Finished.
	Resolve() []Payout
}

// Voidable is implemented by games that can end without a result, in which
// case every stake is refunded
type Voidable interface {
	Voided() bool
}

// Cancelable is implemented by games an actor may abandon before play starts
type Cancelable interface {
	CanCancel(actor int64) bool
}

// NewRand returns an independently seeded generator for one game
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Multiply returns floor(amount * multiplier)
func Multiply(amount int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(multiplier).Floor().IntPart()
}

// StakeTotals sums stakes per actor
func StakeTotals(payouts []Payout) map[int64]int64 {
	totals := make(map[int64]int64)
	for _, p := range payouts {
		totals[p.DiscordID] += p.Stake
	}
	return totals
}
