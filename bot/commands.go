package bot

import (
	"fmt"

	"wagerbot/bot/features/mines"
	"wagerbot/config"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
)

func amountOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "amount",
		Description: description + " (e.g. 500, 10k, 1.5m, half, all)",
		Required:    true,
	}
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// commandDefinitions lists every slash command the bot registers
func commandDefinitions(tuning *config.GameTuning) []*discordgo.ApplicationCommand {
	minMines := float64(tuning.Mines.MinMines)
	adminOnly := int64(discordgo.PermissionAdministrator)

	currency := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "currency",
		Description: "Which counter to change (defaults to bits)",
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "bits", Value: string(models.CurrencyBalance)},
			{Name: "tokens", Value: string(models.CurrencyTokens)},
			{Name: "fates", Value: string(models.CurrencyFates)},
		},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your wallet",
		},
		{
			Name:        "give",
			Description: "Send bits to another player",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Who receives the bits"),
				amountOption("Bits to send"),
			},
		},
		{
			Name:        "blackjack",
			Description: "Play a hand of blackjack against the dealer",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("Your bet")},
		},
		{
			Name:        "wheel",
			Description: "Spin the wheel",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("Your bet")},
		},
		{
			Name:        "mines",
			Description: "Uncover gems and cash out before you hit a mine",
			Options: []*discordgo.ApplicationCommandOption{
				amountOption("Your bet"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "mines",
					Description: fmt.Sprintf("Number of mines (default %d)", mines.DefaultMineCount),
					MinValue:    &minMines,
					MaxValue:    float64(tuning.Mines.MaxMines),
				},
			},
		},
		{
			Name:        "duel",
			Description: "Challenge another player to a dice duel",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Who you challenge"),
				amountOption("Stake each player puts up"),
			},
		},
		{
			Name:        "bank",
			Description: "Deposits and loans",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("status", "Show your deposit and loan"),
				subcommand("deposit", "Deposit bits to earn daily interest", amountOption("Bits to deposit")),
				subcommand("withdraw", "Withdraw from your deposit", amountOption("Bits to withdraw")),
				subcommand("loan", fmt.Sprintf("Borrow up to %d bits", tuning.Bank.Loan.MaxAmount), amountOption("Bits to borrow")),
				subcommand("repay", "Repay your loan", amountOption("Bits to repay")),
			},
		},
		{
			Name:                     "admin",
			Description:              "Economy administration",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("grant", "Credit a user", userOption("Target user"), amountOption("Amount to credit"), currency),
				subcommand("revoke", "Debit a user", userOption("Target user"), amountOption("Amount to debit"), currency),
				subcommand("purge", "Remove a user and their records", userOption("Target user")),
			},
		},
	}
}
