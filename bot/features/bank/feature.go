package bank

import (
	"wagerbot/config"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	userService service.UserService
	bankService service.BankService
	terms       config.BankTuning
}

func New(userService service.UserService, bankService service.BankService, terms config.BankTuning) *Feature {
	return &Feature{
		userService: userService,
		bankService: bankService,
		terms:       terms,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBank(s, i)
}
