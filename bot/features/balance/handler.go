package balance

import (
	"context"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user, discordID, err := common.Actor(i)
	if err != nil {
		log.Errorf("Error resolving interaction user: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	account, err := f.userService.GetOrCreateUser(ctx, discordID, user.Username)
	if err != nil {
		common.HandleError(s, i, err, "balance")
		return
	}

	status, err := f.bankService.Status(ctx, discordID)
	if err != nil {
		common.HandleError(s, i, err, "balance")
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Bits", Value: common.FormatBalance(account.Balance), Inline: true},
		{Name: "Tokens", Value: common.FormatBalance(account.Tokens), Inline: true},
		{Name: "Fates", Value: common.FormatBalance(account.Fates), Inline: true},
	}
	if status.Deposit != nil && status.Deposit.Total() > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Bank", Value: common.FormatBalance(status.Deposit.Total()), Inline: true,
		})
	}
	if status.Loan != nil && status.Loan.Active() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Loan owed", Value: common.FormatBalance(status.Loan.Owed()), Inline: true,
		})
	}
	if held := f.heldInGame(discordID); held > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "In play", Value: common.FormatBalance(held), Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("%s's wallet", common.GetDisplayName(s, i.GuildID, user.ID)),
		Color:  common.ColorNeutral,
		Fields: fields,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to balance command: %v", err)
	}
}

// heldInGame is what the actor currently has riding on a live game
func (f *Feature) heldInGame(discordID int64) int64 {
	live := f.sessions.ActiveFor(discordID)
	if live == nil {
		return 0
	}
	var held int64
	_ = f.sessions.View(live.ID, func(sess *session.Session) {
		held = sess.Staked(discordID)
	})
	return held
}
