package service

import (
	"context"
	"fmt"

	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// ActivityChecker reports whether an actor has a live game session
type ActivityChecker interface {
	IsActive(discordID int64) bool
}

type adminService struct {
	uowFactory UnitOfWorkFactory
	isAdmin    func(discordID int64) bool
	activity   ActivityChecker
}

// NewAdminService creates an admin service. isAdmin authorizes callers and
// activity guards purges against live sessions.
func NewAdminService(uowFactory UnitOfWorkFactory, isAdmin func(discordID int64) bool, activity ActivityChecker) AdminService {
	return &adminService{
		uowFactory: uowFactory,
		isAdmin:    isAdmin,
		activity:   activity,
	}
}

// Grant credits amount to one of the target's counters and returns the new value
func (s *adminService) Grant(ctx context.Context, adminID, targetID int64, currency models.Currency, amount int64) (int64, error) {
	return s.adjust(ctx, adminID, targetID, currency, amount)
}

// Revoke debits amount from one of the target's counters, never below zero
func (s *adminService) Revoke(ctx context.Context, adminID, targetID int64, currency models.Currency, amount int64) (int64, error) {
	return s.adjust(ctx, adminID, targetID, currency, -amount)
}

func (s *adminService) adjust(ctx context.Context, adminID, targetID int64, currency models.Currency, delta int64) (int64, error) {
	if !s.isAdmin(adminID) {
		return 0, ErrNotAuthorized
	}
	if delta == 0 || !currency.Valid() {
		return 0, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireUser(ctx, uow, targetID); err != nil {
		return 0, err
	}

	// Balance moves go through the guarded ledger updates
	var (
		value int64
		err   error
	)
	users := uow.UserRepository()
	switch {
	case currency != models.CurrencyBalance:
		value, err = users.AdjustCounter(ctx, targetID, currency, delta)
	case delta > 0:
		value, err = users.AddBalance(ctx, targetID, delta)
	default:
		value, err = users.DeductBalance(ctx, targetID, -delta)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust %s: %w", currency, err)
	}

	if currency == models.CurrencyBalance {
		transactionType := models.TransactionTypeAdminGrant
		if delta < 0 {
			transactionType = models.TransactionTypeAdminRevoke
		}
		history := &models.BalanceHistory{
			DiscordID:       targetID,
			BalanceBefore:   value - delta,
			BalanceAfter:    value,
			ChangeAmount:    delta,
			TransactionType: transactionType,
			TransactionMetadata: map[string]any{
				"admin_discord_id": adminID,
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return 0, err
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"adminID":  adminID,
		"targetID": targetID,
		"currency": currency,
		"delta":    delta,
		"value":    value,
	}).Info("Admin adjusted ledger")
	return value, nil
}

// Purge deletes an actor and all their records. Refused while the actor has a
// live session or held escrow.
func (s *adminService) Purge(ctx context.Context, adminID, targetID int64) error {
	if !s.isAdmin(adminID) {
		return ErrNotAuthorized
	}
	if s.activity != nil && s.activity.IsActive(targetID) {
		return ErrSessionConflict
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireUser(ctx, uow, targetID); err != nil {
		return err
	}

	// A held escrow means a session is still settling
	held, err := uow.EscrowRepository().GetHeldByUser(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to check held escrows: %w", err)
	}
	if len(held) > 0 {
		return ErrSessionConflict
	}

	if err := uow.UserRepository().Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"adminID":  adminID,
		"targetID": targetID,
	}).Warn("Admin purged user")
	return nil
}
