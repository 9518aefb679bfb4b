package admin

import (
	"context"
	"errors"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/models"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		common.RespondWithError(s, i, "Pick an admin action.")
		return
	}
	action := data.Options[0].Name
	options := common.Options(data.Options)

	_, adminID, err := common.Actor(i)
	if err != nil {
		log.Errorf("Error resolving interaction user: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	target := common.OptionUser(i, options["user"])
	if target == nil {
		common.RespondWithError(s, i, "Pick a user.")
		return
	}
	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, err, "admin")
		return
	}

	var message string
	switch action {
	case "grant", "revoke":
		message, err = f.adjust(ctx, action, adminID, target, targetID, options)
	case "purge":
		err = f.adminService.Purge(ctx, adminID, targetID)
		message = fmt.Sprintf("Purged <@%s> from the ledger.", target.ID)
	default:
		common.RespondWithError(s, i, "Unknown admin action.")
		return
	}
	if err != nil {
		common.HandleError(s, i, err, "admin "+action)
		return
	}

	log.WithFields(log.Fields{
		"admin":  adminID,
		"target": targetID,
		"action": action,
	}).Info("Admin command applied")

	if err := common.RespondWithSuccess(s, i, message, true); err != nil {
		log.Errorf("Error responding to admin command: %v", err)
	}
}

func (f *Feature) adjust(ctx context.Context, action string, adminID int64, target *discordgo.User, targetID int64, options map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	currency := models.Currency(common.StringOption(options, "currency", string(models.CurrencyBalance)))
	amount, err := common.ParseAmount(common.StringOption(options, "amount", ""), 0)
	if err != nil {
		return "", err
	}

	var value int64
	if action == "grant" {
		value, err = f.adminService.Grant(ctx, adminID, targetID, currency, amount)
		// Granting to someone new enrolls them first.
		if errors.Is(err, service.ErrUserNotFound) {
			if _, err := f.userService.GetOrCreateUser(ctx, targetID, target.Username); err != nil {
				return "", err
			}
			value, err = f.adminService.Grant(ctx, adminID, targetID, currency, amount)
		}
	} else {
		value, err = f.adminService.Revoke(ctx, adminID, targetID, currency, amount)
	}
	if err != nil {
		return "", err
	}

	verb := "Granted"
	if action == "revoke" {
		verb = "Revoked"
	}
	return fmt.Sprintf("%s %s %s for <@%s>. They now have %s.",
		verb, common.FormatBalance(amount), currency, target.ID, common.FormatBalance(value)), nil
}
