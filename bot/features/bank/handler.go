package bank

import (
	"context"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		common.RespondWithError(s, i, "Pick a bank action.")
		return
	}
	action := data.Options[0].Name
	options := common.Options(data.Options)

	user, discordID, err := common.Actor(i)
	if err != nil {
		log.Errorf("Error resolving interaction user: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if _, err := f.userService.GetOrCreateUser(ctx, discordID, user.Username); err != nil {
		common.HandleError(s, i, err, "bank")
		return
	}

	current, err := f.bankService.Status(ctx, discordID)
	if err != nil {
		common.HandleError(s, i, err, "bank")
		return
	}
	if action == "status" {
		f.respond(s, i, "🏦 Bank", current)
		return
	}

	amount, err := common.ParseAmount(common.StringOption(options, "amount", ""), availableFor(action, current, f.terms.Loan.MaxAmount))
	if err != nil {
		common.HandleError(s, i, err, "bank")
		return
	}

	var (
		status *models.BankStatus
		title  string
	)
	switch action {
	case "deposit":
		status, err = f.bankService.Deposit(ctx, discordID, amount)
		title = fmt.Sprintf("🏦 Deposited %s bits", common.FormatBalance(amount))
	case "withdraw":
		status, err = f.bankService.Withdraw(ctx, discordID, amount)
		title = fmt.Sprintf("🏦 Withdrew %s bits", common.FormatBalance(amount))
	case "loan":
		status, err = f.bankService.TakeLoan(ctx, discordID, amount)
		title = fmt.Sprintf("🏦 Borrowed %s bits", common.FormatBalance(amount))
	case "repay":
		status, err = f.bankService.RepayLoan(ctx, discordID, amount)
		title = "🏦 Loan repayment"
	default:
		common.RespondWithError(s, i, "Unknown bank action.")
		return
	}
	if err != nil {
		common.HandleError(s, i, err, "bank "+action)
		return
	}
	f.respond(s, i, title, status)
}

// availableFor is what "all" and "half" refer to for each action
func availableFor(action string, status *models.BankStatus, maxLoan int64) int64 {
	switch action {
	case "withdraw":
		if status.Deposit != nil {
			return status.Deposit.Total()
		}
		return 0
	case "loan":
		return maxLoan
	case "repay":
		if status.Loan != nil {
			return min(status.Loan.Owed(), status.Balance)
		}
		return 0
	default:
		return status.Balance
	}
}

func (f *Feature) respond(s *discordgo.Session, i *discordgo.InteractionCreate, title string, status *models.BankStatus) {
	if err := common.RespondWithEmbed(s, i, f.statusEmbed(title, status), nil, true); err != nil {
		log.Errorf("Error responding to bank command: %v", err)
	}
}
