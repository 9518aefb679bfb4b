package admin

import (
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	userService  service.UserService
	adminService service.AdminService
}

func New(userService service.UserService, adminService service.AdminService) *Feature {
	return &Feature{
		userService:  userService,
		adminService: adminService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleAdmin(s, i)
}
