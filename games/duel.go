package games

import (
	"fmt"
	"math/rand/v2"

	"wagerbot/config"
	"wagerbot/models"
)

// Duel is a two-player dice roll for equal stakes. The opponent must accept
// before anything is rolled; a decline voids the duel and refunds both.
type Duel struct {
	Challenger int64
	Opponent   int64
	stake      int64
	sides      int
	rng        *rand.Rand

	accepted bool
	declined bool

	ChallengerRoll int
	OpponentRoll   int
}

func NewDuel(challenger, opponent, stake int64, tuning config.DuelTuning, rng *rand.Rand) (*Duel, error) {
	if challenger == opponent {
		return nil, fmt.Errorf("%w: you cannot duel yourself", ErrIllegalMove)
	}
	return &Duel{
		Challenger: challenger,
		Opponent:   opponent,
		stake:      stake,
		sides:      tuning.Sides,
		rng:        rng,
	}, nil
}

func (d *Duel) Type() models.GameType { return models.GameTypeDuel }
func (d *Duel) Owner() int64          { return d.Challenger }
func (d *Duel) Players() []int64      { return []int64{d.Challenger, d.Opponent} }
func (d *Duel) Finished() bool        { return d.accepted || d.declined }
func (d *Duel) Voided() bool          { return d.declined }
func (d *Duel) Accepted() bool        { return d.accepted }

// CurrentActor is the opponent until they answer the challenge
func (d *Duel) CurrentActor() int64 {
	if d.Finished() {
		return 0
	}
	return d.Opponent
}

// CanCancel lets the challenger withdraw an unanswered challenge
func (d *Duel) CanCancel(actor int64) bool {
	return actor == d.Challenger && !d.Finished()
}

func (d *Duel) Stake() int64 { return d.stake }

// Accept rolls for both players. The caller reserves the opponent's stake first.
func (d *Duel) Accept() error {
	if d.Finished() {
		return ErrGameFinished
	}
	d.accepted = true
	d.ChallengerRoll = d.rng.IntN(d.sides) + 1
	d.OpponentRoll = d.rng.IntN(d.sides) + 1
	return nil
}

func (d *Duel) Decline() error {
	if d.Finished() {
		return ErrGameFinished
	}
	d.declined = true
	return nil
}

// Winner returns the winning actor, or 0 on a tie or before the roll
func (d *Duel) Winner() int64 {
	switch {
	case !d.accepted || d.ChallengerRoll == d.OpponentRoll:
		return 0
	case d.ChallengerRoll > d.OpponentRoll:
		return d.Challenger
	default:
		return d.Opponent
	}
}

// Resolve pays the winner both stakes. A tie returns each stake.
func (d *Duel) Resolve() []Payout {
	winner := d.Winner()
	payouts := make([]Payout, 0, 2)
	for _, p := range d.Players() {
		var amount int64
		switch {
		case winner == 0:
			amount = d.stake
		case winner == p:
			amount = d.stake * 2
		}
		payouts = append(payouts, Payout{DiscordID: p, Stake: d.stake, Amount: amount})
	}
	return payouts
}
