package games

import (
	"math/rand/v2"

	"wagerbot/config"
	"wagerbot/models"

	"github.com/shopspring/decimal"
)

// Wheel spins once when created. It needs no moves, so it is finished
// from the start and settles immediately.
type Wheel struct {
	player  int64
	stake   int64
	Segment config.WheelSegment
	Index   int
}

func NewWheel(player, stake int64, tuning config.WheelTuning, rng *rand.Rand) *Wheel {
	index := pickSegment(tuning.Segments, rng)
	return &Wheel{
		player:  player,
		stake:   stake,
		Segment: tuning.Segments[index],
		Index:   index,
	}
}

// pickSegment draws a segment index weighted by Weight
func pickSegment(segments []config.WheelSegment, rng *rand.Rand) int {
	total := 0
	for _, s := range segments {
		total += s.Weight
	}
	roll := rng.IntN(total)
	for i, s := range segments {
		if roll < s.Weight {
			return i
		}
		roll -= s.Weight
	}
	return len(segments) - 1
}

func (w *Wheel) Type() models.GameType { return models.GameTypeWheel }
func (w *Wheel) Owner() int64          { return w.player }
func (w *Wheel) Players() []int64      { return []int64{w.player} }
func (w *Wheel) CurrentActor() int64   { return 0 }
func (w *Wheel) Finished() bool        { return true }

func (w *Wheel) Resolve() []Payout {
	return []Payout{{
		DiscordID: w.player,
		Stake:     w.stake,
		Amount:    Multiply(w.stake, decimal.NewFromFloat(w.Segment.Multiplier)),
	}}
}
