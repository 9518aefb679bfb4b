package service

import (
	"context"
	"fmt"

	"wagerbot/models"
)

// TransferResult describes a completed transfer from the sender's side
type TransferResult struct {
	Amount        int64
	RecipientName string
	NewBalance    int64
}

type transferService struct {
	uowFactory UnitOfWorkFactory
}

// NewTransferService creates a new transfer service
func NewTransferService(uowFactory UnitOfWorkFactory) TransferService {
	return &transferService{
		uowFactory: uowFactory,
	}
}

func (s *transferService) Transfer(ctx context.Context, fromDiscordID int64, toDiscordID int64, amount int64) (*TransferResult, error) {
	// Validate inputs
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromDiscordID == toDiscordID {
		return nil, ErrSelfTransfer
	}

	// Create unit of work
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Get recipient user
	toUser, err := uow.UserRepository().GetByDiscordID(ctx, toDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient user: %w", err)
	}
	if toUser == nil {
		return nil, ErrUserNotFound
	}

	// Deduct amount from sender; fails if the balance does not cover it
	newFromBalance, err := uow.UserRepository().DeductBalance(ctx, fromDiscordID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct transfer amount: %w", err)
	}

	// Add amount to recipient
	newToBalance, err := uow.UserRepository().AddBalance(ctx, toDiscordID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to add transfer amount: %w", err)
	}

	// Create balance history record for sender (outgoing transfer)
	fromHistory := &models.BalanceHistory{
		DiscordID:       fromDiscordID,
		BalanceBefore:   newFromBalance + amount,
		BalanceAfter:    newFromBalance,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeTransferOut,
		TransactionMetadata: map[string]any{
			"recipient_discord_id": toDiscordID,
			"recipient_username":   toUser.Username,
		},
	}
	if err := RecordBalanceChange(ctx, uow, fromHistory); err != nil {
		return nil, fmt.Errorf("failed to record sender balance change: %w", err)
	}

	// Create balance history record for recipient (incoming transfer)
	toHistory := &models.BalanceHistory{
		DiscordID:       toDiscordID,
		BalanceBefore:   newToBalance - amount,
		BalanceAfter:    newToBalance,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeTransferIn,
		TransactionMetadata: map[string]any{
			"sender_discord_id": fromDiscordID,
		},
	}
	if err := RecordBalanceChange(ctx, uow, toHistory); err != nil {
		return nil, fmt.Errorf("failed to record recipient balance change: %w", err)
	}

	// Commit the transaction
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &TransferResult{
		Amount:        amount,
		RecipientName: toUser.Username,
		NewBalance:    newFromBalance,
	}, nil
}
