package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RetryPolicy builds the backoff used for one release attempt sequence
type RetryPolicy func() backoff.BackOff

// DefaultRetryPolicy retries a failed release for up to five seconds
func DefaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return b
}

type escrowService struct {
	uowFactory UnitOfWorkFactory
	retry      RetryPolicy
}

// NewEscrowService creates an escrow service with the default retry policy
func NewEscrowService(uowFactory UnitOfWorkFactory) EscrowService {
	return NewEscrowServiceWithRetry(uowFactory, DefaultRetryPolicy)
}

// NewEscrowServiceWithRetry creates an escrow service with a custom retry policy
func NewEscrowServiceWithRetry(uowFactory UnitOfWorkFactory, retry RetryPolicy) EscrowService {
	return &escrowService{
		uowFactory: uowFactory,
		retry:      retry,
	}
}

// Reserve debits amount and journals a held escrow in one transaction
func (s *escrowService) Reserve(ctx context.Context, discordID int64, sessionID uuid.UUID, gameType models.GameType, amount int64) (*models.Escrow, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Create unit of work
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageFailure("failed to begin transaction", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Debit first; the conditional update refuses an overdraft
	newBalance, err := uow.UserRepository().DeductBalance(ctx, discordID, amount)
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, storageFailure("failed to deduct stake", err)
	}

	escrow := &models.Escrow{
		ID:        uuid.New(),
		SessionID: sessionID,
		DiscordID: discordID,
		GameType:  gameType,
		Amount:    amount,
		State:     models.EscrowStateHeld,
	}
	if err := uow.EscrowRepository().Create(ctx, escrow); err != nil {
		return nil, storageFailure("failed to record escrow", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance + amount,
		BalanceAfter:    newBalance,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeWagerHold,
		TransactionMetadata: map[string]any{
			"game_type": gameType,
			"escrow_id": escrow.ID.String(),
		},
	}
	sessionRelation(history, sessionID.String())
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, storageFailure("failed to record stake", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageFailure("failed to commit stake", err)
	}

	return escrow, nil
}

// Settle consumes escrows and credits payout. The stake was already debited,
// so payout alone encodes the result.
func (s *escrowService) Settle(ctx context.Context, discordID int64, escrows []*models.Escrow, payout int64) (*models.Receipt, error) {
	if payout < 0 {
		return nil, ErrInvalidAmount
	}
	return s.release(ctx, discordID, escrows, models.EscrowStateSettled, payout)
}

// Refund consumes escrows and returns their amounts
func (s *escrowService) Refund(ctx context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error) {
	return s.release(ctx, discordID, escrows, models.EscrowStateRefunded, 0)
}

// RecoverOrphaned refunds every held escrow. Only valid before any session
// has been started by this process.
func (s *escrowService) RecoverOrphaned(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	held, err := uow.EscrowRepository().GetHeld(ctx)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list held escrows: %w", err)
	}

	// Group by actor so each actor gets one refund
	byActor := make(map[int64][]*models.Escrow)
	var order []int64
	for _, e := range held {
		if _, seen := byActor[e.DiscordID]; !seen {
			order = append(order, e.DiscordID)
		}
		byActor[e.DiscordID] = append(byActor[e.DiscordID], e)
	}

	recovered := 0
	for _, discordID := range order {
		escrows := byActor[discordID]
		receipt, err := s.Refund(ctx, discordID, escrows)
		if err != nil {
			log.WithFields(log.Fields{
				"discordID": discordID,
				"escrows":   len(escrows),
				"error":     err,
			}).Error("Failed to refund orphaned escrows")
			continue
		}
		recovered += len(escrows)
		log.WithFields(log.Fields{
			"discordID": discordID,
			"escrows":   len(escrows),
			"refunded":  receipt.Payout,
		}).Warn("Refunded orphaned escrows")
	}

	return recovered, nil
}

func (s *escrowService) release(ctx context.Context, discordID int64, escrows []*models.Escrow, state models.EscrowState, credit int64) (*models.Receipt, error) {
	if len(escrows) == 0 {
		return nil, fmt.Errorf("no escrows to release for user %d", discordID)
	}

	var receipt *models.Receipt
	attempt := 0
	operation := func() error {
		attempt++
		r, err := s.releaseOnce(ctx, discordID, escrows, state, credit)
		if errors.Is(err, ErrExpiredOrAlreadySettled) && attempt > 1 {
			// An earlier attempt may have committed before its reply was lost.
			if r, lookupErr := s.Receipt(ctx, discordID, escrows); lookupErr == nil && r.Refunded == (state == models.EscrowStateRefunded) {
				log.WithFields(log.Fields{
					"discordID": discordID,
					"attempt":   attempt,
				}).Warn("Escrow release had already committed, using journaled receipt")
				receipt = r
				return nil
			}
		}
		if err != nil {
			if IsRejection(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.WithFields(log.Fields{
				"discordID": discordID,
				"attempt":   attempt,
				"error":     err,
			}).Warn("Escrow release failed, retrying")
			return err
		}
		receipt = r
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.retry(), ctx)); err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, storageFailure("failed to release escrow", err)
	}
	return receipt, nil
}

// Receipt reads what an earlier release of escrows credited from the
// balance journal. Nothing is credited.
func (s *escrowService) Receipt(ctx context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error) {
	if len(escrows) == 0 {
		return nil, fmt.Errorf("no escrows to look up for user %d", discordID)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageFailure("failed to begin transaction", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetRelease(ctx, discordID, escrows[0].ID)
	if err != nil {
		return nil, storageFailure("failed to read release", err)
	}
	if history == nil {
		return nil, ErrExpiredOrAlreadySettled
	}

	staked := metadataInt(history.TransactionMetadata, "staked", models.EscrowTotal(escrows))
	payout := metadataInt(history.TransactionMetadata, "payout", history.ChangeAmount)
	return &models.Receipt{
		DiscordID:  discordID,
		Staked:     staked,
		Payout:     payout,
		Net:        metadataInt(history.TransactionMetadata, "net", payout-staked),
		Refunded:   history.TransactionType == models.TransactionTypeWagerRefund,
		NewBalance: history.BalanceAfter,
	}, nil
}

// metadataInt reads an integer written to transaction metadata. JSON decodes
// numbers as float64.
func metadataInt(metadata map[string]any, key string, fallback int64) int64 {
	switch v := metadata[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return fallback
	}
}

func (s *escrowService) releaseOnce(ctx context.Context, discordID int64, escrows []*models.Escrow, state models.EscrowState, credit int64) (*models.Receipt, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Consume every escrow or none of them
	ids := models.EscrowIDs(escrows)
	released, err := uow.EscrowRepository().Release(ctx, discordID, ids, state)
	if err != nil {
		return nil, fmt.Errorf("failed to release escrows: %w", err)
	}
	if len(released) != len(ids) {
		return nil, ErrExpiredOrAlreadySettled
	}

	staked := models.EscrowTotal(released)
	refunded := state == models.EscrowStateRefunded
	if refunded {
		// The journal, not the caller's copy, decides what is returned.
		credit = staked
	}

	var newBalance int64
	if credit > 0 {
		newBalance, err = uow.UserRepository().AddBalance(ctx, discordID, credit)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
	} else {
		user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		newBalance = user.Balance
	}

	net := credit - staked
	outcome := models.ClassifyNet(net)
	transactionType := map[models.OutcomeKind]models.TransactionType{
		models.OutcomeWin:  models.TransactionTypeWagerWin,
		models.OutcomeLoss: models.TransactionTypeWagerLoss,
		models.OutcomePush: models.TransactionTypeWagerPush,
	}[outcome]
	if refunded {
		outcome = models.OutcomeRefund
		transactionType = models.TransactionTypeWagerRefund
	}

	escrowIDs := make([]string, 0, len(released))
	for _, e := range released {
		escrowIDs = append(escrowIDs, e.ID.String())
	}
	sessionID := released[0].SessionID.String()
	gameType := released[0].GameType

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance - credit,
		BalanceAfter:    newBalance,
		ChangeAmount:    credit,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"game_type":  gameType,
			"escrow_ids": escrowIDs,
			"staked":     staked,
			"payout":     credit,
			"net":        net,
		},
	}
	sessionRelation(history, sessionID)
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	// Queued until commit
	uow.EventBus().Publish(events.SessionSettledEvent{
		SessionID: sessionID,
		DiscordID: discordID,
		GameType:  gameType,
		Outcome:   outcome,
		Staked:    staked,
		Payout:    credit,
		Net:       net,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Receipt{
		DiscordID:  discordID,
		Staked:     staked,
		Payout:     credit,
		Net:        net,
		Refunded:   refunded,
		NewBalance: newBalance,
	}, nil
}

// storageFailure marks err as an infrastructure failure while keeping the cause inspectable
func storageFailure(msg string, err error) error {
	if errors.Is(err, ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, msg, err)
}
