package blackjack

import (
	"context"
	"fmt"

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
		common.HandleError(s, i, err, "blackjack")
		return
	}

	game := games.NewBlackjack(discordID, amount, f.tuning, games.NewRand())
	common.StartGame(ctx, s, i, f.sessions, f.tracker, game, amount, render)
}

func (f *Feature) handleMove(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID) {
	ctx := context.Background()

	_, actor, err := common.Actor(i)
	if err != nil {
		common.HandleError(s, i, err, "blackjack")
		return
	}
	sess, game, err := common.LookupGame[*games.Blackjack](f.sessions, id.SessionID)
	if err != nil {
		common.HandleError(s, i, err, "blackjack")
		return
	}

	move, err := moveFor(game, id.Action)
	if err != nil {
		common.HandleError(s, i, err, "blackjack")
		return
	}
	result, err := f.sessions.Act(ctx, sess.ID, actor, move)
	common.ShowMove(s, i, f.sessions, f.tracker, sess, result, err, render)
}

// moveFor maps a button action to a move. Double and split raise the
// stake before touching the cards so a rejected reserve leaves the hand as it was.
func moveFor(game *games.Blackjack, action string) (func(t *session.Turn) error, error) {
	switch action {
	case "hit":
		return func(*session.Turn) error { return game.Hit() }, nil
	case "stand":
		return func(*session.Turn) error { return game.Stand() }, nil
	case "surrender":
		return func(*session.Turn) error { return game.Surrender() }, nil
	case "double":
		return func(t *session.Turn) error {
			if err := game.CanDouble(); err != nil {
				return err
			}
			if err := t.Raise(game.DoubleCost()); err != nil {
				return err
			}
			return game.Double()
		}, nil
	case "split":
		return func(t *session.Turn) error {
			if err := game.CanSplit(); err != nil {
				return err
			}
			if err := t.Raise(game.SplitCost()); err != nil {
				return err
			}
			return game.Split()
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown blackjack action %q", games.ErrIllegalMove, action)
	}
}
