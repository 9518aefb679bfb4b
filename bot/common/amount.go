package common

import (
	"fmt"
	"strings"

	"wagerbot/service"

	"github.com/shopspring/decimal"
)

var suffixes = map[byte]int64{
	'k': 1_000,
	'm': 1_000_000,
	'b': 1_000_000_000,
}

// ParseAmount reads an amount typed by a user. It accepts plain numbers
// with optional comma separators, a k/m/b suffix ("10k", "1.5m"), and the
// keywords "all" and "half" which are taken relative to available.
// Fractions of a bit are dropped.
func ParseAmount(input string, available int64) (int64, error) {
	raw := strings.ToLower(strings.TrimSpace(input))
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, "_", "")

	var amount int64
	switch raw {
	case "":
		return 0, fmt.Errorf("%w: enter an amount", service.ErrInvalidAmount)
	case "all", "max":
		amount = available
	case "half":
		amount = available / 2
	default:
		multiplier := int64(1)
		if m, ok := suffixes[raw[len(raw)-1]]; ok {
			multiplier = m
			raw = raw[:len(raw)-1]
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", service.ErrInvalidAmount, input)
		}
		scaled := value.Mul(decimal.NewFromInt(multiplier)).Floor()
		if scaled.GreaterThan(decimal.NewFromInt(1 << 62)) {
			return 0, fmt.Errorf("%w: %q is too large", service.ErrInvalidAmount, input)
		}
		amount = scaled.IntPart()
	}

	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", service.ErrInvalidAmount)
	}
	return amount, nil
}
