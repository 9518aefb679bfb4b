package duel

import (
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/games"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func render(sess *session.Session, result *session.Result) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	game := sess.Game.(*games.Duel)

	embed := &discordgo.MessageEmbed{
		Title: "⚔️ Duel",
		Description: fmt.Sprintf("<@%d> challenges <@%d> for **%s bits** each.",
			game.Challenger, game.Opponent, common.FormatBalance(game.Stake())),
		Color: common.ColorNeutral,
	}

	if game.Accepted() {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Challenger rolled", Value: fmt.Sprintf("🎲 %d", game.ChallengerRoll), Inline: true},
			&discordgo.MessageEmbedField{Name: "Opponent rolled", Value: fmt.Sprintf("🎲 %d", game.OpponentRoll), Inline: true},
		)
	}

	if result != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Verdict", Value: verdict(game, result)})
		embed.Fields = append(embed.Fields, common.ResultField(result))
		if winner := game.Winner(); winner != 0 {
			embed.Color = common.ColorWin
		} else {
			embed.Color = common.ColorPush
		}
		return embed, nil
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Status", Value: common.StatusLine(sess)})
	if game.Finished() {
		return embed, nil
	}

	id := func(action string) common.ComponentID {
		return common.ComponentID{Feature: Prefix, Action: action, SessionID: sess.ID}
	}
	return embed, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			common.Button("Accept", discordgo.SuccessButton, id("accept"), false),
			common.Button("Decline", discordgo.DangerButton, id("decline"), false),
			common.Button("Withdraw", discordgo.SecondaryButton, id("cancel"), false),
		}},
	}
}

func verdict(game *games.Duel, result *session.Result) string {
	switch {
	case result.Expired:
		return "The challenge went unanswered."
	case result.Refunded && game.Voided():
		return fmt.Sprintf("<@%d> declined.", game.Opponent)
	case result.Refunded:
		return "The challenge was withdrawn."
	case game.Winner() != 0:
		return fmt.Sprintf("<@%d> wins!", game.Winner())
	default:
		return "It's a tie, stakes returned."
	}
}
