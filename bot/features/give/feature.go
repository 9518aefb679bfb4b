package give

import (
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	userService     service.UserService
	transferService service.TransferService
}

func New(userService service.UserService, transferService service.TransferService) *Feature {
	return &Feature{
		userService:     userService,
		transferService: transferService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleGive(s, i)
}
