package games

import (
	"math/rand/v2"
	"testing"

	"wagerbot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seeded so the simulations are reproducible
func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(20240601, 7))
}

func TestWheel_DefaultReturnFavorsHouse(t *testing.T) {
	tuning := config.DefaultGameTuning().Wheel

	totalWeight, weighted := 0, 0.0
	for _, seg := range tuning.Segments {
		totalWeight += seg.Weight
		weighted += seg.Multiplier * float64(seg.Weight)
	}
	expected := weighted / float64(totalWeight)
	assert.Less(t, expected, 1.0)

	const spins, stake = 200_000, int64(1000)
	rng := seededRand()
	var paid int64
	for range spins {
		paid += NewWheel(1, stake, tuning, rng).Resolve()[0].Amount
	}

	actual := float64(paid) / float64(spins*stake)
	assert.InDelta(t, expected, actual, 0.02)
}

func TestMines_EveryCashoutReturnsOneMinusEdge(t *testing.T) {
	tuning := config.DefaultGameTuning().Mines
	tiles := tuning.Tiles()

	for mines := tuning.MinMines; mines <= tuning.MaxMines; mines++ {
		layout := make([]bool, tiles)
		for i := range mines {
			layout[i] = true
		}
		m := NewMinesWithLayout(1, 1000, tuning, layout)

		survive := 1.0
		for k := 1; k <= tiles-mines; k++ {
			survive *= float64(tiles-mines-k+1) / float64(tiles-k+1)
			ret := survive * m.MultiplierAt(k).InexactFloat64()
			assert.InDelta(t, 1-tuning.HouseEdge, ret, 1e-6, "mines=%d k=%d", mines, k)
		}
	}
}

func TestBlackjack_DealerMimicReturnFavorsHouse(t *testing.T) {
	tuning := config.DefaultGameTuning().Blackjack

	const hands, bet = 50_000, int64(100)
	rng := seededRand()
	var staked, paid int64
	for range hands {
		g := NewBlackjack(1, bet, tuning, rng)
		for !g.Finished() {
			if g.ActiveHand().Total() < 17 {
				require.NoError(t, g.Hit())
			} else {
				require.NoError(t, g.Stand())
			}
		}
		staked += g.Stake()
		for _, p := range g.Resolve() {
			paid += p.Amount
		}
	}

	ret := float64(paid) / float64(staked)
	assert.Greater(t, ret, 0.85)
	assert.Less(t, ret, 1.0)
}
