package give

import (
	"context"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleGive(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	options := common.Options(i.ApplicationCommandData().Options)
	recipient := common.OptionUser(i, options["user"])
	if recipient == nil || options["amount"] == nil {
		common.RespondWithError(s, i, "Please provide both a user and an amount.")
		return
	}
	if recipient.Bot {
		common.RespondWithError(s, i, "Bots don't need bits.")
		return
	}

	sender, fromDiscordID, err := common.Actor(i)
	if err != nil {
		log.Errorf("Error resolving interaction user: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	toDiscordID, err := common.ParseUserID(recipient.ID)
	if err != nil {
		log.Errorf("Error parsing recipient Discord ID %s: %v", recipient.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if fromDiscordID == toDiscordID {
		common.HandleError(s, i, service.ErrSelfTransfer, "give")
		return
	}

	// Ensure both users in the DB.
	account, err := f.userService.GetOrCreateUser(ctx, fromDiscordID, sender.Username)
	if err != nil {
		common.HandleError(s, i, err, "give")
		return
	}
	if _, err := f.userService.GetOrCreateUser(ctx, toDiscordID, recipient.Username); err != nil {
		common.HandleError(s, i, err, "give")
		return
	}

	amount, err := common.ParseAmount(options["amount"].StringValue(), account.Balance)
	if err != nil {
		common.HandleError(s, i, err, "give")
		return
	}

	result, err := f.transferService.Transfer(ctx, fromDiscordID, toDiscordID, amount)
	if err != nil {
		common.HandleError(s, i, err, "give")
		return
	}

	message := fmt.Sprintf("Sent **%s bits** to <@%s>. Your balance: **%s bits**",
		common.FormatBalance(result.Amount), recipient.ID, common.FormatBalance(result.NewBalance))
	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.Errorf("Error responding to give command: %v", err)
	}
}
