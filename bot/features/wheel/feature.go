package wheel

import (
	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	userService service.UserService
	sessions    *session.Manager
	tracker     *common.MessageTracker
	tuning      config.WheelTuning
}

func New(userService service.UserService, sessions *session.Manager, tracker *common.MessageTracker, tuning config.WheelTuning) *Feature {
	return &Feature{
		userService: userService,
		sessions:    sessions,
		tracker:     tracker,
		tuning:      tuning,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleSpin(s, i)
}

func (f *Feature) View() common.GameView {
	return f.render
}
