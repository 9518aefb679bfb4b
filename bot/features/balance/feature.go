package balance

import (
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	userService service.UserService
	bankService service.BankService
	sessions    *session.Manager
}

func New(userService service.UserService, bankService service.BankService, sessions *session.Manager) *Feature {
	return &Feature{
		userService: userService,
		bankService: bankService,
		sessions:    sessions,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalance(s, i)
}
