package wheel

import (
	"context"
	"fmt"
	"strings"

	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/games"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handleSpin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	options := common.Options(i.ApplicationCommandData().Options)
	discordID, amount, err := common.ResolveStake(ctx, f.userService, i, common.StringOption(options, "amount", ""), f.tuning.BetLimits)
	if err != nil {
		common.HandleError(s, i, err, "wheel")
		return
	}

	game := games.NewWheel(discordID, amount, f.tuning, games.NewRand())
	common.StartGame(ctx, s, i, f.sessions, f.tracker, game, amount, f.render)
}

func (f *Feature) render(sess *session.Session, result *session.Result) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	game := sess.Game.(*games.Wheel)

	embed := &discordgo.MessageEmbed{
		Title:       "🎡 Wheel",
		Description: strip(f.tuning.Segments, game.Index),
		Color:       common.ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Landed on", Value: fmt.Sprintf("**%s** (x%g)", game.Segment.Label, game.Segment.Multiplier)},
		},
	}
	if result == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Status", Value: common.StatusLine(sess)})
		return embed, nil
	}

	embed.Fields = append(embed.Fields, common.ResultField(result))
	if o, ok := result.Outcome(game.Owner()); ok {
		embed.Color = common.OutcomeColor(o.Kind)
	}
	return embed, nil
}

// strip shows the segments around the one the wheel stopped on
func strip(segments []config.WheelSegment, index int) string {
	n := len(segments)
	parts := make([]string, 0, 5)
	for offset := -2; offset <= 2; offset++ {
		seg := segments[((index+offset)%n+n)%n]
		if offset == 0 {
			parts = append(parts, "**▶ "+seg.Label+" ◀**")
			continue
		}
		parts = append(parts, seg.Label)
	}
	return strings.Join(parts, " · ")
}
