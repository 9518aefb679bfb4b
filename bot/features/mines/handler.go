package mines

import (
	"context"
	"fmt"
	"strconv"

	"wagerbot/bot/common"
	"wagerbot/games"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	options := common.Options(i.ApplicationCommandData().Options)
	discordID, amount, err := common.ResolveStake(ctx, f.userService, i, common.StringOption(options, "amount", ""), f.tuning.BetLimits)
	if err != nil {
		common.HandleError(s, i, err, "mines")
		return
	}

	mineCount := int(common.IntOption(options, "mines", DefaultMineCount))
	game, err := games.NewMines(discordID, amount, mineCount, f.tuning, games.NewRand())
	if err != nil {
		common.HandleError(s, i, err, "mines")
		return
	}
	common.StartGame(ctx, s, i, f.sessions, f.tracker, game, amount, f.render)
}

func (f *Feature) handleMove(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID) {
	ctx := context.Background()

	_, actor, err := common.Actor(i)
	if err != nil {
		common.HandleError(s, i, err, "mines")
		return
	}
	sess, game, err := common.LookupGame[*games.Mines](f.sessions, id.SessionID)
	if err != nil {
		common.HandleError(s, i, err, "mines")
		return
	}

	move, err := moveFor(game, id)
	if err != nil {
		common.HandleError(s, i, err, "mines")
		return
	}
	result, err := f.sessions.Act(ctx, sess.ID, actor, move)
	common.ShowMove(s, i, f.sessions, f.tracker, sess, result, err, f.render)
}

func moveFor(game *games.Mines, id common.ComponentID) (func(t *session.Turn) error, error) {
	switch id.Action {
	case "tile":
		index, err := strconv.Atoi(id.Arg)
		if err != nil {
			return nil, fmt.Errorf("%w: bad tile %q", games.ErrIllegalMove, id.Arg)
		}
		return func(*session.Turn) error { return game.Reveal(index) }, nil
	case "cashout":
		return func(*session.Turn) error { return game.CashOut() }, nil
	default:
		return nil, fmt.Errorf("%w: unknown mines action %q", games.ErrIllegalMove, id.Action)
	}
}
