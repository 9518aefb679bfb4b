package blackjack

import (
	"fmt"
	"strings"

	"wagerbot/bot/common"
	"wagerbot/games"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func render(sess *session.Session, result *session.Result) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	game := sess.Game.(*games.Blackjack)

	embed := &discordgo.MessageEmbed{
		Title: "🃏 Blackjack",
		Color: common.ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Dealer", Value: dealerLine(game)},
		},
	}
	for idx, hand := range game.Hands {
		embed.Fields = append(embed.Fields, handField(game, idx, hand))
	}

	if result != nil {
		embed.Fields = append(embed.Fields, common.ResultField(result))
		if o, ok := result.Outcome(game.Owner()); ok {
			embed.Color = common.OutcomeColor(o.Kind)
		}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Total bet: %s bits", common.FormatBalance(game.Stake()))}
		return embed, nil
	}

	embed.Description = common.StatusLine(sess)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Total bet: %s bits", common.FormatBalance(game.Stake()))}
	if game.Finished() {
		return embed, nil
	}
	return embed, buttons(sess, game)
}

func dealerLine(game *games.Blackjack) string {
	cards := game.Dealer.Cards
	if !game.Finished() {
		return fmt.Sprintf("%s 🂠 (%d)", cards[0], cards[0].Value())
	}
	line := fmt.Sprintf("%s (%d)", games.FormatCards(cards), game.Dealer.Total())
	switch {
	case game.Dealer.Natural():
		line += " Blackjack"
	case game.Dealer.Busted():
		line += " Bust"
	}
	return line
}

func handField(game *games.Blackjack, idx int, hand *games.Hand) *discordgo.MessageEmbedField {
	name := "Your hand"
	if len(game.Hands) > 1 {
		name = fmt.Sprintf("Hand %d", idx+1)
	}

	var notes []string
	switch {
	case hand.Surrendered:
		notes = append(notes, "surrendered")
	case hand.Natural():
		notes = append(notes, "blackjack!")
	case hand.Busted():
		notes = append(notes, "bust")
	}
	if hand.Doubled {
		notes = append(notes, "doubled")
	}
	if !game.Finished() && idx == game.ActiveIndex() && len(game.Hands) > 1 {
		notes = append(notes, "◀ playing")
	}

	value := fmt.Sprintf("%s (%d) · %s bits", games.FormatCards(hand.Cards), hand.Total(), common.FormatBalance(hand.Bet))
	if len(notes) > 0 {
		value += " · " + strings.Join(notes, ", ")
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value}
}

func buttons(sess *session.Session, game *games.Blackjack) []discordgo.MessageComponent {
	id := func(action string) common.ComponentID {
		return common.ComponentID{Feature: Prefix, Action: action, SessionID: sess.ID}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			common.Button("Hit", discordgo.PrimaryButton, id("hit"), false),
			common.Button("Stand", discordgo.SecondaryButton, id("stand"), false),
			common.Button("Double", discordgo.SuccessButton, id("double"), game.CanDouble() != nil),
			common.Button("Split", discordgo.SuccessButton, id("split"), game.CanSplit() != nil),
			common.Button("Surrender", discordgo.DangerButton, id("surrender"), game.CanSurrender() != nil),
		}},
	}
}
