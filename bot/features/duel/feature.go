package duel

import (
	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

// Prefix routes duel buttons to this feature
const Prefix = "duel"

type Feature struct {
	userService service.UserService
	sessions    *session.Manager
	tracker     *common.MessageTracker
	tuning      config.DuelTuning
}

func New(userService service.UserService, sessions *session.Manager, tracker *common.MessageTracker, tuning config.DuelTuning) *Feature {
	return &Feature{
		userService: userService,
		sessions:    sessions,
		tracker:     tracker,
		tuning:      tuning,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleChallenge(s, i)
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID) {
	f.handleAnswer(s, i, id)
}

func (f *Feature) View() common.GameView {
	return render
}
