package mines

import (
	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

// Prefix routes mines buttons to this feature
const Prefix = "mines"

// DefaultMineCount is used when the command omits the mines option
const DefaultMineCount = 3

type Feature struct {
	userService service.UserService
	sessions    *session.Manager
	tracker     *common.MessageTracker
	tuning      config.MinesTuning
}

func New(userService service.UserService, sessions *session.Manager, tracker *common.MessageTracker, tuning config.MinesTuning) *Feature {
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

func (f *Feature) View() common.GameView {
	return f.render
}
