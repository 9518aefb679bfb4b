package repository

import (
	"context"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EscrowRepository implements the EscrowRepository interface
type EscrowRepository struct {
	q queryable
}

// NewEscrowRepository creates a new escrow repository
func NewEscrowRepository(db *database.DB) *EscrowRepository {
	return &EscrowRepository{q: db.Pool}
}

// newEscrowRepositoryWithTx creates a new escrow repository with a transaction
func newEscrowRepositoryWithTx(tx queryable) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

const escrowColumns = `id, session_id, discord_id, game_type, amount, state, created_at, released_at`

// Create inserts a held escrow
func (r *EscrowRepository) Create(ctx context.Context, escrow *models.Escrow) error {
	if escrow.ID == uuid.Nil {
		escrow.ID = uuid.New()
	}
	if escrow.State == "" {
		escrow.State = models.EscrowStateHeld
	}

	query := `
		INSERT INTO escrows (id, session_id, discord_id, game_type, amount, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		escrow.ID,
		escrow.SessionID,
		escrow.DiscordID,
		escrow.GameType,
		escrow.Amount,
		escrow.State,
	).Scan(&escrow.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create escrow for user %d: %w", escrow.DiscordID, err)
	}

	return nil
}

// Release moves held escrows of one actor into state. Rows that are no longer
// held are skipped, so a second release of the same ids returns nothing.
func (r *EscrowRepository) Release(ctx context.Context, discordID int64, ids []uuid.UUID, state models.EscrowState) ([]*models.Escrow, error) {
	if state == models.EscrowStateHeld {
		return nil, fmt.Errorf("cannot release escrows into the held state")
	}

	query := `
		UPDATE escrows
		SET state = $3, released_at = NOW()
		WHERE discord_id = $1 AND id = ANY($2) AND state = 'held'
		RETURNING ` + escrowColumns

	rows, err := r.q.Query(ctx, query, discordID, ids, state)
	if err != nil {
		return nil, fmt.Errorf("failed to release escrows for user %d: %w", discordID, err)
	}
	return collectEscrows(rows)
}

// GetHeld returns every escrow still held, oldest first
func (r *EscrowRepository) GetHeld(ctx context.Context) ([]*models.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE state = 'held' ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get held escrows: %w", err)
	}
	return collectEscrows(rows)
}

// GetHeldByUser returns held escrows for one actor
func (r *EscrowRepository) GetHeldByUser(ctx context.Context, discordID int64) ([]*models.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE discord_id = $1 AND state = 'held' ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get held escrows for user %d: %w", discordID, err)
	}
	return collectEscrows(rows)
}

func collectEscrows(rows pgx.Rows) ([]*models.Escrow, error) {
	defer rows.Close()

	escrows := []*models.Escrow{}
	for rows.Next() {
		var escrow models.Escrow
		err := rows.Scan(
			&escrow.ID,
			&escrow.SessionID,
			&escrow.DiscordID,
			&escrow.GameType,
			&escrow.Amount,
			&escrow.State,
			&escrow.CreatedAt,
			&escrow.ReleasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow: %w", err)
		}
		escrows = append(escrows, &escrow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escrows: %w", err)
	}

	return escrows, nil
}
