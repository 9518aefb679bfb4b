package blackjack

import (
	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

// Prefix routes blackjack buttons to this feature
const Prefix = "bj"

type Feature struct {
	userService service.UserService
	sessions    *session.Manager
	tracker     *common.MessageTracker
	tuning      config.BlackjackTuning
}

func New(userService service.UserService, sessions *session.Manager, tracker *common.MessageTracker, tuning config.BlackjackTuning) *Feature {
	return &Feature{
		userService: userService,
		sessions:    sessions,
		tracker:     tracker,
		tuning:      tuning,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleStart(s, i)
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID) {
	f.handleMove(s, i, id)
}

// View renders a blackjack session
func (f *Feature) View() common.GameView {
	return render
}
