package common

import (
	"fmt"
	"strings"
	"time"

	"wagerbot/models"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorNeutral = 0x5865F2
	ColorWin     = 0x57F287
	ColorLoss    = 0xED4245
	ColorPush    = 0xFEE75C
	ColorRefund  = 0x99AAB5
)

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	str := fmt.Sprintf("%d", balance)
	sign := ""
	if balance < 0 {
		sign, str = "-", str[1:]
	}

	n := len(str)
	if n <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatSigned formats a net change with an explicit sign
func FormatSigned(amount int64) string {
	if amount > 0 {
		return "+" + FormatBalance(amount)
	}
	return FormatBalance(amount)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// OutcomeColor picks the embed color for a settled outcome
func OutcomeColor(kind models.OutcomeKind) int {
	switch kind {
	case models.OutcomeWin:
		return ColorWin
	case models.OutcomeLoss:
		return ColorLoss
	case models.OutcomePush:
		return ColorPush
	default:
		return ColorRefund
	}
}

// FormatOutcome describes a settled stake in one line
func FormatOutcome(o session.Outcome) string {
	switch o.Kind {
	case models.OutcomeWin:
		return fmt.Sprintf("🎉 **Won %s bits** (paid %s on %s staked). Balance: **%s bits**",
			FormatBalance(o.Net), FormatBalance(o.Payout), FormatBalance(o.Staked), FormatBalance(o.NewBalance))
	case models.OutcomeLoss:
		return fmt.Sprintf("😔 **Lost %s bits**. Balance: **%s bits**",
			FormatBalance(-o.Net), FormatBalance(o.NewBalance))
	case models.OutcomePush:
		return fmt.Sprintf("🤝 **Push**, %s bits returned. Balance: **%s bits**",
			FormatBalance(o.Staked), FormatBalance(o.NewBalance))
	default:
		return fmt.Sprintf("↩️ **Refunded %s bits**. Balance: **%s bits**",
			FormatBalance(o.Staked), FormatBalance(o.NewBalance))
	}
}

// ResultField renders every outcome of a result as an embed field
func ResultField(result *session.Result) *discordgo.MessageEmbedField {
	lines := make([]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		lines = append(lines, fmt.Sprintf("<@%d> %s", o.DiscordID, FormatOutcome(o)))
	}
	name := "Result"
	if result.Expired {
		name = "Timed out"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: strings.Join(lines, "\n")}
}
