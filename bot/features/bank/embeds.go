package bank

import (
	"fmt"
	"strings"
	"time"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) statusEmbed(title string, status *models.BankStatus) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: common.ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Wallet", Value: common.FormatBalance(status.Balance) + " bits", Inline: true},
		},
	}

	deposit := "Nothing deposited"
	if d := status.Deposit; d != nil && d.Total() > 0 {
		deposit = fmt.Sprintf("%s bits", common.FormatBalance(d.Total()))
		if d.AccruedInterest > 0 {
			deposit += fmt.Sprintf(" (%s interest)", common.FormatBalance(d.AccruedInterest))
		}
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Deposit", Value: deposit, Inline: true},
		&discordgo.MessageEmbedField{Name: "Loan", Value: loanSummary(status.Loan, time.Now())},
	)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Deposits earn %g%% a day while you have no loan", f.terms.InterestRatePercent),
	}
	return embed
}

func loanSummary(loan *models.Loan, now time.Time) string {
	if loan == nil {
		return "No loan"
	}

	var lines []string
	if loan.Active() {
		line := fmt.Sprintf("Owed **%s bits**", common.FormatBalance(loan.Owed()))
		if loan.Penalty > 0 {
			line += fmt.Sprintf(" incl. %s penalty", common.FormatBalance(loan.Penalty))
		}
		lines = append(lines, line)
		if loan.DueAt != nil {
			lines = append(lines, "Due "+common.FormatDiscordTimestamp(*loan.DueAt, "R"))
		}
	} else {
		lines = append(lines, "No loan")
	}
	if loan.Suspended(now) {
		lines = append(lines, "Borrowing suspended until "+common.FormatDiscordTimestamp(*loan.SuspendedUntil, "f"))
	}
	return strings.Join(lines, "\n")
}
