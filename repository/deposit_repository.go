package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/jackc/pgx/v5"
)

// DepositRepository implements the DepositRepository interface
type DepositRepository struct {
	q queryable
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.DB) *DepositRepository {
	return &DepositRepository{q: db.Pool}
}

// newDepositRepositoryWithTx creates a new deposit repository with a transaction
func newDepositRepositoryWithTx(tx queryable) *DepositRepository {
	return &DepositRepository{q: tx}
}

const depositColumns = `discord_id, amount, accrued_interest, last_interest_date, created_at, updated_at`

// Get returns the deposit record, or nil if the actor never deposited
func (r *DepositRepository) Get(ctx context.Context, discordID int64) (*models.Deposit, error) {
	deposit, err := scanDeposit(r.q.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE discord_id = $1`, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit for user %d: %w", discordID, err)
	}
	return deposit, nil
}

// GetForUpdate locks the deposit row, creating an empty one first if needed
func (r *DepositRepository) GetForUpdate(ctx context.Context, discordID int64) (*models.Deposit, error) {
	_, err := r.q.Exec(ctx, `INSERT INTO deposits (discord_id) VALUES ($1) ON CONFLICT (discord_id) DO NOTHING`, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure deposit record for user %d: %w", discordID, err)
	}

	deposit, err := scanDeposit(r.q.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE discord_id = $1 FOR UPDATE`, discordID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock deposit for user %d: %w", discordID, err)
	}
	return deposit, nil
}

// Save writes the amount and accrued interest
func (r *DepositRepository) Save(ctx context.Context, deposit *models.Deposit) error {
	query := `
		UPDATE deposits
		SET amount = $2, accrued_interest = $3, updated_at = NOW()
		WHERE discord_id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query, deposit.DiscordID, deposit.Amount, deposit.AccruedInterest).Scan(&deposit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save deposit for user %d: %w", deposit.DiscordID, err)
	}
	return nil
}

// GetEligibleForInterest returns positive deposits not yet granted interest on
// day whose owner has nothing outstanding on a loan
func (r *DepositRepository) GetEligibleForInterest(ctx context.Context, day time.Time) ([]*models.Deposit, error) {
	query := `
		SELECT d.discord_id, d.amount, d.accrued_interest, d.last_interest_date, d.created_at, d.updated_at
		FROM deposits d
		WHERE d.amount > 0
		  AND (d.last_interest_date IS NULL OR d.last_interest_date < $1::date)
		  AND NOT EXISTS (
			  SELECT 1 FROM loans l
			  WHERE l.discord_id = d.discord_id
			    AND (l.principal > 0 OR l.penalty > 0)
		  )
		ORDER BY d.discord_id
	`

	rows, err := r.q.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposits eligible for interest: %w", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, deposit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}

	return deposits, nil
}

// GrantInterest adds amount and stamps day, unless day is already stamped
func (r *DepositRepository) GrantInterest(ctx context.Context, discordID int64, amount int64, day time.Time) (bool, error) {
	query := `
		UPDATE deposits
		SET accrued_interest = accrued_interest + $2,
		    last_interest_date = $3::date,
		    updated_at = NOW()
		WHERE discord_id = $1
		  AND (last_interest_date IS NULL OR last_interest_date < $3::date)
	`

	result, err := r.q.Exec(ctx, query, discordID, amount, day)
	if err != nil {
		return false, fmt.Errorf("failed to grant interest for user %d: %w", discordID, err)
	}
	return result.RowsAffected() == 1, nil
}

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var deposit models.Deposit
	err := row.Scan(
		&deposit.DiscordID,
		&deposit.Amount,
		&deposit.AccruedInterest,
		&deposit.LastInterestDate,
		&deposit.CreatedAt,
		&deposit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}
