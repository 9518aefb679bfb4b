package common

import (
	"context"
	"fmt"

	"wagerbot/config"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

// ResolveStake enrolls the interacting user if needed and turns the amount
// they typed into a stake within limits. Returns the actor's ledger id.
func ResolveStake(ctx context.Context, users service.UserService, i *discordgo.InteractionCreate, input string, limits config.BetLimits) (int64, int64, error) {
	user, discordID, err := Actor(i)
	if err != nil {
		return 0, 0, err
	}
	account, err := users.GetOrCreateUser(ctx, discordID, user.Username)
	if err != nil {
		return 0, 0, err
	}
	amount, err := ParseAmount(input, account.Balance)
	if err != nil {
		return 0, 0, err
	}
	if err := limits.Check(amount); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", service.ErrInvalidAmount, err)
	}
	return discordID, amount, nil
}

// StringOption returns a string option or def when it was not given
func StringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name, def string) string {
	if opt, ok := options[name]; ok {
		return opt.StringValue()
	}
	return def
}

// IntOption returns an integer option or def when it was not given
func IntOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, def int64) int64 {
	if opt, ok := options[name]; ok {
		return opt.IntValue()
	}
	return def
}
