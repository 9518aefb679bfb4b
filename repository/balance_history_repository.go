package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BalanceHistoryRepository implements the BalanceHistoryRepository interface
type BalanceHistoryRepository struct {
	q queryable
}

// NewBalanceHistoryRepository creates a new balance history repository
func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

// newBalanceHistoryRepositoryWithTx creates a new balance history repository with a transaction
func newBalanceHistoryRepositoryWithTx(tx queryable) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	metadataJSON, err := json.Marshal(history.TransactionMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO balance_history
		(discord_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.DiscordID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedID,
		history.RelatedType,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance history for user %d: %w", history.DiscordID, err)
	}

	return nil
}

// GetByUser returns balance history for a specific user, newest first
func (r *BalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	query := `SELECT ` + balanceHistoryColumns + `
		FROM balance_history
		WHERE discord_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, discordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for user %d: %w", discordID, err)
	}
	defer rows.Close()

	var histories []*models.BalanceHistory
	for rows.Next() {
		history, err := scanBalanceHistory(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance history: %w", err)
	}

	return histories, nil
}

// GetRelease returns the entry that released escrowID, or nil if the escrow
// has not been released
func (r *BalanceHistoryRepository) GetRelease(ctx context.Context, discordID int64, escrowID uuid.UUID) (*models.BalanceHistory, error) {
	query := `SELECT ` + balanceHistoryColumns + `
		FROM balance_history
		WHERE discord_id = $1
		  AND transaction_type IN ('wager_win', 'wager_loss', 'wager_push', 'wager_refund')
		  AND transaction_metadata->'escrow_ids' ? $2::text
		ORDER BY id DESC
		LIMIT 1
	`

	history, err := scanBalanceHistory(r.q.QueryRow(ctx, query, discordID, escrowID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get release of escrow %s: %w", escrowID, err)
	}
	return history, nil
}

const balanceHistoryColumns = `id, discord_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at`

func scanBalanceHistory(row pgx.Row) (*models.BalanceHistory, error) {
	var history models.BalanceHistory
	var metadataJSON []byte

	err := row.Scan(
		&history.ID,
		&history.DiscordID,
		&history.BalanceBefore,
		&history.BalanceAfter,
		&history.ChangeAmount,
		&history.TransactionType,
		&metadataJSON,
		&history.RelatedID,
		&history.RelatedType,
		&history.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan balance history: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}

	return &history, nil
}
