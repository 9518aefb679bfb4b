package service

import (
	"context"
	"fmt"
	"strconv"

	"wagerbot/events"
	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange records a balance history entry and queues the matching
// events on the unit of work. Every primary-balance mutation goes through here.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.DiscordID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	if history.TransactionType == models.TransactionTypeInitial {
		username, _ := history.TransactionMetadata["username"].(string)
		uow.EventBus().Publish(events.UserCreatedEvent{
			DiscordID:      history.DiscordID,
			Username:       username,
			InitialBalance: history.BalanceAfter,
		})
	}

	log.WithFields(log.Fields{
		"discordID":       history.DiscordID,
		"transactionType": history.TransactionType,
		"change":          history.ChangeAmount,
		"balanceAfter":    history.BalanceAfter,
	}).Debug("Balance change recorded")

	return nil
}

// sessionRelation tags a history entry with the session it belongs to
func sessionRelation(history *models.BalanceHistory, sessionID string) {
	relatedType := models.RelatedTypeSession
	history.RelatedID = &sessionID
	history.RelatedType = &relatedType
}

func loanRelation(history *models.BalanceHistory, discordID int64) {
	relatedType := models.RelatedTypeLoan
	relatedID := strconv.FormatInt(discordID, 10)
	history.RelatedID = &relatedID
	history.RelatedType = &relatedType
}
