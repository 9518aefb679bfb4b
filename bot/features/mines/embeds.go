package mines

import (
	"fmt"
	"strconv"

	"wagerbot/bot/common"
	"wagerbot/games"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) render(sess *session.Session, result *session.Result) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	game := sess.Game.(*games.Mines)

	embed := &discordgo.MessageEmbed{
		Title: "💣 Mines",
		Color: common.ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Mines", Value: strconv.Itoa(game.MineCount()), Inline: true},
			{Name: "Gems found", Value: strconv.Itoa(game.SafeRevealed()), Inline: true},
			{Name: "Cash out", Value: common.FormatBalance(game.CurrentPayout()) + " bits", Inline: true},
		},
	}

	if result != nil {
		embed.Fields = append(embed.Fields, common.ResultField(result))
		if o, ok := result.Outcome(game.Owner()); ok {
			embed.Color = common.OutcomeColor(o.Kind)
		}
		return embed, f.grid(sess, game, true)
	}

	if next := game.SafeRevealed() + 1; !game.Finished() && next <= game.Tiles()-game.MineCount() {
		embed.Description = fmt.Sprintf("Next gem: **x%s** · %s", game.MultiplierAt(next).StringFixed(2), common.StatusLine(sess))
	} else {
		embed.Description = common.StatusLine(sess)
	}
	return embed, f.grid(sess, game, game.Finished())
}

// grid lays the board out as rows of tile buttons plus a cash out row
func (f *Feature) grid(sess *session.Session, game *games.Mines, finished bool) []discordgo.MessageComponent {
	cols := max(f.tuning.Cols, 1)
	rows := make([]discordgo.MessageComponent, 0, game.Tiles()/cols+1)

	var row []discordgo.MessageComponent
	for idx := range game.Tiles() {
		row = append(row, f.tile(sess, game, idx, finished))
		if len(row) == cols {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}

	cashout := common.ComponentID{Feature: Prefix, Action: "cashout", SessionID: sess.ID}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		common.Button(fmt.Sprintf("Cash out %s", common.FormatBalance(game.CurrentPayout())), discordgo.SuccessButton, cashout, finished),
	}})
	return rows
}

func (f *Feature) tile(sess *session.Session, game *games.Mines, idx int, finished bool) discordgo.Button {
	id := common.ComponentID{Feature: Prefix, Action: "tile", SessionID: sess.ID, Arg: strconv.Itoa(idx)}
	switch {
	case game.Revealed(idx) && game.IsMine(idx):
		return common.Button("💥", discordgo.DangerButton, id, true)
	case game.Revealed(idx):
		return common.Button("💎", discordgo.SuccessButton, id, true)
	case finished && game.IsMine(idx):
		return common.Button("💣", discordgo.SecondaryButton, id, true)
	default:
		return common.Button("❔", discordgo.SecondaryButton, id, finished)
	}
}
