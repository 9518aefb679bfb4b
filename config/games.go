package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultGameTuning []byte

// BetLimits bounds the stake of a single game. A zero MaxBet means no limit.
type BetLimits struct {
	MinBet int64 `yaml:"min_bet"`
	MaxBet int64 `yaml:"max_bet"`
}

// Check validates amount against the limits
func (l BetLimits) Check(amount int64) error {
	if amount < l.MinBet {
		return fmt.Errorf("minimum bet is %d", l.MinBet)
	}
	if l.MaxBet > 0 && amount > l.MaxBet {
		return fmt.Errorf("maximum bet is %d", l.MaxBet)
	}
	return nil
}

type BlackjackTuning struct {
	BetLimits        `yaml:",inline"`
	Decks            int     `yaml:"decks"`
	NaturalPayout    float64 `yaml:"natural_payout"`
	DealerHitsSoft17 bool    `yaml:"dealer_hits_soft_17"`
	MaxHands         int     `yaml:"max_hands"`
}

type WheelSegment struct {
	Label      string  `yaml:"label"`
	Multiplier float64 `yaml:"multiplier"`
	Weight     int     `yaml:"weight"`
}

type WheelTuning struct {
	BetLimits `yaml:",inline"`
	Segments  []WheelSegment `yaml:"segments"`
}

type MinesTuning struct {
	BetLimits `yaml:",inline"`
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	MinMines  int     `yaml:"min_mines"`
	MaxMines  int     `yaml:"max_mines"`
	HouseEdge float64 `yaml:"house_edge"`
}

// Tiles is the number of cells on the board
func (m MinesTuning) Tiles() int {
	return m.Rows * m.Cols
}

type DuelTuning struct {
	BetLimits `yaml:",inline"`
	Sides     int `yaml:"sides"`
}

// LoanTuning holds loan terms. Thresholds are measured from the due time.
type LoanTuning struct {
	MaxAmount      int64         `yaml:"max_amount"`
	FeePercent     float64       `yaml:"fee_percent"`
	Term           time.Duration `yaml:"term"`
	DailyLimit     int           `yaml:"daily_limit"`
	PenaltyAfter   time.Duration `yaml:"penalty_after"`
	PenaltyPercent float64       `yaml:"penalty_percent"`
	CollectAfter   time.Duration `yaml:"collect_after"`
	Suspension     time.Duration `yaml:"suspension"`
}

type BankTuning struct {
	InterestRatePercent float64    `yaml:"interest_rate_percent"`
	Loan                LoanTuning `yaml:"loan"`
}

// GameTuning is the full set of minigame and bank parameters
type GameTuning struct {
	Blackjack BlackjackTuning `yaml:"blackjack"`
	Wheel     WheelTuning     `yaml:"wheel"`
	Mines     MinesTuning     `yaml:"mines"`
	Duel      DuelTuning      `yaml:"duel"`
	Bank      BankTuning      `yaml:"bank"`
}

// LoadGameTuning reads tuning from path, or the embedded defaults when path is empty
func LoadGameTuning(path string) (*GameTuning, error) {
	data := defaultGameTuning
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read game tuning %s: %w", path, err)
		}
	}
	return ParseGameTuning(data)
}

// ParseGameTuning decodes and validates YAML tuning
func ParseGameTuning(data []byte) (*GameTuning, error) {
	var tuning GameTuning
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return nil, fmt.Errorf("failed to parse game tuning: %w", err)
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game tuning: %w", err)
	}
	return &tuning, nil
}

// DefaultGameTuning returns the embedded tuning. It panics if the embedded file is invalid.
func DefaultGameTuning() *GameTuning {
	tuning, err := ParseGameTuning(defaultGameTuning)
	if err != nil {
		panic(err)
	}
	return tuning
}

// Validate checks internal consistency of the tuning
func (t *GameTuning) Validate() error {
	if t.Blackjack.Decks < 1 {
		return fmt.Errorf("blackjack.decks must be at least 1")
	}
	if t.Blackjack.NaturalPayout <= 0 {
		return fmt.Errorf("blackjack.natural_payout must be positive")
	}
	if t.Blackjack.MaxHands < 1 {
		return fmt.Errorf("blackjack.max_hands must be at least 1")
	}

	if len(t.Wheel.Segments) == 0 {
		return fmt.Errorf("wheel.segments must not be empty")
	}
	for i, seg := range t.Wheel.Segments {
		if seg.Weight <= 0 {
			return fmt.Errorf("wheel.segments[%d].weight must be positive", i)
		}
		if seg.Multiplier < 0 {
			return fmt.Errorf("wheel.segments[%d].multiplier must not be negative", i)
		}
	}

	m := t.Mines
	if m.Rows < 1 || m.Cols < 1 {
		return fmt.Errorf("mines grid must have at least one row and column")
	}
	if m.Rows > 4 || m.Cols > 5 {
		return fmt.Errorf("mines grid is limited to 4 rows of 5 tiles")
	}
	if m.MinMines < 1 || m.MaxMines >= m.Tiles() || m.MinMines > m.MaxMines {
		return fmt.Errorf("mines range %d-%d does not fit a %d tile board", m.MinMines, m.MaxMines, m.Tiles())
	}
	if m.HouseEdge < 0 || m.HouseEdge >= 1 {
		return fmt.Errorf("mines.house_edge must be in [0, 1)")
	}

	if t.Duel.Sides < 2 {
		return fmt.Errorf("duel.sides must be at least 2")
	}

	b := t.Bank
	if b.InterestRatePercent < 0 {
		return fmt.Errorf("bank.interest_rate_percent must not be negative")
	}
	if b.Loan.MaxAmount <= 0 || b.Loan.DailyLimit < 1 || b.Loan.Term <= 0 {
		return fmt.Errorf("bank.loan requires positive max_amount, daily_limit and term")
	}
	if b.Loan.CollectAfter <= b.Loan.PenaltyAfter {
		return fmt.Errorf("bank.loan.collect_after must be later than penalty_after")
	}
	return nil
}
