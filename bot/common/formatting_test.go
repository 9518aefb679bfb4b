package common

import (
	"testing"

	"wagerbot/models"
	"wagerbot/session"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		balance  int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-123, "-123"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBalance(tt.balance))
	}
}

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "+1,500", FormatSigned(1500))
	assert.Equal(t, "-500", FormatSigned(-500))
	assert.Equal(t, "0", FormatSigned(0))
}

func TestResultField(t *testing.T) {
	result := &session.Result{
		Expired: true,
		Outcomes: []session.Outcome{
			{DiscordID: 7, Kind: models.OutcomeRefund, Staked: 500, NewBalance: 1000},
		},
	}

	field := ResultField(result)
	assert.Equal(t, "Timed out", field.Name)
	assert.Contains(t, field.Value, "<@7>")
	assert.Contains(t, field.Value, "Refunded 500 bits")
	assert.Equal(t, ColorLoss, OutcomeColor(models.OutcomeLoss))
}
