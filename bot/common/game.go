package common

import (
	"context"
	"fmt"

	"wagerbot/games"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GameView draws a session. It is called with the session lock held while
// the session is live, or after it settled. result is nil until then.
type GameView func(sess *session.Session, result *session.Result) (*discordgo.MessageEmbed, []discordgo.MessageComponent)

// Snapshot renders sess through view. Returns whether the session has settled.
func Snapshot(sessions *session.Manager, sess *session.Session, result *session.Result, view GameView) (*discordgo.MessageEmbed, []discordgo.MessageComponent, bool) {
	if result == nil {
		var (
			embed      *discordgo.MessageEmbed
			components []discordgo.MessageComponent
		)
		err := sessions.View(sess.ID, func(live *session.Session) {
			embed, components = view(live, nil)
		})
		if err == nil {
			return embed, components, false
		}
		// Settled between the move and this render.
		result = sess.Result()
	}
	embed, components := view(sess, result)
	return embed, components, result != nil
}

// StartGame registers game with the manager and answers the command with its first view
func StartGame(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sessions *session.Manager, tracker *MessageTracker, game games.Game, stake int64, view GameView) {
	sess, err := sessions.Start(ctx, game, stake)
	if sess == nil {
		HandleError(s, i, err, string(game.Type()))
		return
	}
	if err != nil {
		// The result is fixed and the manager keeps retrying the credit.
		log.WithFields(log.Fields{
			"sessionID": sess.ID,
			"error":     err,
		}).Warn("Settlement pending after start")
	}

	embed, components, settled := Snapshot(sessions, sess, nil, view)
	if err := RespondWithEmbed(s, i, embed, components, false); err != nil {
		log.Errorf("Error responding to %s command: %v", game.Type(), err)
		return
	}
	if !settled {
		tracker.TrackResponse(s, i, sess.ID)
	}
}

// LookupGame finds the live session a button belongs to and its game
func LookupGame[T games.Game](sessions *session.Manager, id uuid.UUID) (*session.Session, T, error) {
	var zero T
	sess := sessions.Get(id)
	if sess == nil {
		return nil, zero, service.ErrExpiredOrAlreadySettled
	}
	game, ok := sess.Game.(T)
	if !ok {
		return nil, zero, fmt.Errorf("session %s holds a %s game", id, sess.Type())
	}
	return sess, game, nil
}

// ShowMove answers a button press with the session's view after a move
func ShowMove(s *discordgo.Session, i *discordgo.InteractionCreate, sessions *session.Manager, tracker *MessageTracker, sess *session.Session, result *session.Result, err error, view GameView) {
	if err != nil {
		HandleError(s, i, err, string(sess.Type()))
		return
	}

	embed, components, settled := Snapshot(sessions, sess, result, view)
	if settled {
		tracker.Forget(sess.ID)
	} else if i.Message != nil {
		tracker.Track(sess.ID, MessageRef{ChannelID: i.ChannelID, MessageID: i.Message.ID})
	}
	if err := UpdateComponentMessage(s, i, embed, components); err != nil {
		log.Errorf("Error updating %s message: %v", sess.Type(), err)
	}
}

// Button builds a button routed back to feature with the given action
func Button(label string, style discordgo.ButtonStyle, id ComponentID, disabled bool) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: id.String(),
		Disabled: disabled,
	}
}

// StatusLine describes a session that has not settled yet
func StatusLine(sess *session.Session) string {
	if sess.State() == session.StateResolving {
		return "⏳ Settling, your bits will be credited shortly."
	}
	return "Expires " + FormatDiscordTimestamp(sess.ExpiresAt(), "R")
}
