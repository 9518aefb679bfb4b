package games

import (
	"fmt"
	"math/rand/v2"

	"wagerbot/config"
	"wagerbot/models"

	"github.com/shopspring/decimal"
)

// Mines is a grid with hidden mines. Each safe reveal raises the cashout
// multiplier; revealing a mine loses the stake.
type Mines struct {
	player   int64
	stake    int64
	tuning   config.MinesTuning
	mines    []bool
	revealed []bool
	count    int
	safe     int
	hitMine  bool
	cashed   bool
}

// NewMines places mineCount mines at random on the tuned grid
func NewMines(player, stake int64, mineCount int, tuning config.MinesTuning, rng *rand.Rand) (*Mines, error) {
	tiles := tuning.Tiles()
	if mineCount < tuning.MinMines || mineCount > tuning.MaxMines || mineCount >= tiles {
		return nil, fmt.Errorf("%w: mine count must be between %d and %d", ErrIllegalMove, tuning.MinMines, tuning.MaxMines)
	}

	layout := make([]bool, tiles)
	for _, idx := range rng.Perm(tiles)[:mineCount] {
		layout[idx] = true
	}
	return NewMinesWithLayout(player, stake, tuning, layout), nil
}

// NewMinesWithLayout builds a board with a fixed mine layout
func NewMinesWithLayout(player, stake int64, tuning config.MinesTuning, layout []bool) *Mines {
	count := 0
	for _, m := range layout {
		if m {
			count++
		}
	}
	return &Mines{
		player:   player,
		stake:    stake,
		tuning:   tuning,
		mines:    layout,
		revealed: make([]bool, len(layout)),
		count:    count,
	}
}

func (m *Mines) Type() models.GameType { return models.GameTypeMines }
func (m *Mines) Owner() int64          { return m.player }
func (m *Mines) Players() []int64      { return []int64{m.player} }
func (m *Mines) Finished() bool        { return m.hitMine || m.cashed }

func (m *Mines) CurrentActor() int64 {
	if m.Finished() {
		return 0
	}
	return m.player
}

func (m *Mines) Tiles() int        { return len(m.mines) }
func (m *Mines) MineCount() int    { return m.count }
func (m *Mines) SafeRevealed() int { return m.safe }
func (m *Mines) HitMine() bool     { return m.hitMine }

func (m *Mines) Revealed(index int) bool {
	return index >= 0 && index < len(m.revealed) && m.revealed[index]
}

// IsMine is only meaningful for display once the game is finished
func (m *Mines) IsMine(index int) bool {
	return index >= 0 && index < len(m.mines) && m.mines[index]
}

// Reveal uncovers a tile. Revealing the last safe tile cashes out.
func (m *Mines) Reveal(index int) error {
	if m.Finished() {
		return ErrGameFinished
	}
	if index < 0 || index >= len(m.mines) {
		return fmt.Errorf("%w: no tile %d", ErrIllegalMove, index)
	}
	if m.revealed[index] {
		return fmt.Errorf("%w: tile already revealed", ErrIllegalMove)
	}

	m.revealed[index] = true
	if m.mines[index] {
		m.hitMine = true
		return nil
	}
	m.safe++
	if m.safe == len(m.mines)-m.count {
		m.cashed = true
	}
	return nil
}

// CashOut ends the game at the current multiplier
func (m *Mines) CashOut() error {
	if m.Finished() {
		return ErrGameFinished
	}
	m.cashed = true
	return nil
}

// MultiplierAt is the cashout multiplier after k safe reveals:
// (1 - edge) * prod_{i<k} (tiles-i)/(tiles-mines-i). Zero reveals pays 1x.
func (m *Mines) MultiplierAt(k int) decimal.Decimal {
	num, den := m.odds(k)
	return num.Div(den).Mul(m.edgeFactor(k))
}

// CurrentPayout is what cashing out now would pay
func (m *Mines) CurrentPayout() int64 {
	if m.hitMine {
		return 0
	}
	num, den := m.odds(m.safe)
	// Divide last so exact multiples are not lost to rounding.
	return decimal.NewFromInt(m.stake).
		Mul(num).
		Mul(m.edgeFactor(m.safe)).
		Div(den).
		Floor().
		IntPart()
}

func (m *Mines) odds(k int) (num, den decimal.Decimal) {
	tiles := len(m.mines)
	num, den = decimal.NewFromInt(1), decimal.NewFromInt(1)
	for i := 0; i < k; i++ {
		num = num.Mul(decimal.NewFromInt(int64(tiles - i)))
		den = den.Mul(decimal.NewFromInt(int64(tiles - m.count - i)))
	}
	return num, den
}

func (m *Mines) edgeFactor(k int) decimal.Decimal {
	if k == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(m.tuning.HouseEdge))
}

func (m *Mines) Resolve() []Payout {
	return []Payout{{DiscordID: m.player, Stake: m.stake, Amount: m.CurrentPayout()}}
}
