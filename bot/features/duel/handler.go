package duel

import (
	"context"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/games"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handleChallenge(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	options := common.Options(i.ApplicationCommandData().Options)
	opponent := common.OptionUser(i, options["user"])
	if opponent == nil {
		common.RespondWithError(s, i, "Pick someone to duel.")
		return
	}
	if opponent.Bot {
		common.RespondWithError(s, i, "Bots don't duel.")
		return
	}

	challengerID, amount, err := common.ResolveStake(ctx, f.userService, i, common.StringOption(options, "amount", ""), f.tuning.BetLimits)
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}
	opponentID, err := common.ParseUserID(opponent.ID)
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}
	account, err := f.userService.GetOrCreateUser(ctx, opponentID, opponent.Username)
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}
	// Checked again when the stake is reserved; this only saves a dead challenge.
	if account.Balance < amount {
		common.HandleError(s, i, fmt.Errorf("%w: <@%s> can't cover that stake", service.ErrInsufficientBalance, opponent.ID), "duel")
		return
	}

	game, err := games.NewDuel(challengerID, opponentID, amount, f.tuning, games.NewRand())
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}
	common.StartGame(ctx, s, i, f.sessions, f.tracker, game, amount, render)
}

func (f *Feature) handleAnswer(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID) {
	ctx := context.Background()

	_, actor, err := common.Actor(i)
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}
	sess, game, err := common.LookupGame[*games.Duel](f.sessions, id.SessionID)
	if err != nil {
		common.HandleError(s, i, err, "duel")
		return
	}

	var result *session.Result
	switch id.Action {
	case "accept":
		result, err = f.sessions.Act(ctx, sess.ID, actor, func(t *session.Turn) error {
			if err := t.Raise(game.Stake()); err != nil {
				return err
			}
			return game.Accept()
		})
	case "decline":
		result, err = f.sessions.Act(ctx, sess.ID, actor, func(*session.Turn) error {
			return game.Decline()
		})
	case "cancel":
		result, err = f.sessions.Cancel(ctx, sess.ID, actor)
	default:
		err = fmt.Errorf("%w: unknown duel action %q", games.ErrIllegalMove, id.Action)
	}
	common.ShowMove(s, i, f.sessions, f.tracker, sess, result, err, render)
}
