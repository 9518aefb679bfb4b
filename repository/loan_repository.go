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

// LoanRepository implements the LoanRepository interface
type LoanRepository struct {
	q queryable
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *database.DB) *LoanRepository {
	return &LoanRepository{q: db.Pool}
}

// newLoanRepositoryWithTx creates a new loan repository with a transaction
func newLoanRepositoryWithTx(tx queryable) *LoanRepository {
	return &LoanRepository{q: tx}
}

const loanColumns = `discord_id, principal, penalty, due_at, penalty_applied, forced_collected,
	collected, daily_count, count_reset_date, suspended_until, created_at, updated_at`

// Get returns the loan record, or nil if the actor never borrowed
func (r *LoanRepository) Get(ctx context.Context, discordID int64) (*models.Loan, error) {
	loan, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE discord_id = $1`, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan for user %d: %w", discordID, err)
	}
	return loan, nil
}

// GetForUpdate locks the actor's loan row for the rest of the transaction,
// creating an empty record first if needed
func (r *LoanRepository) GetForUpdate(ctx context.Context, discordID int64) (*models.Loan, error) {
	_, err := r.q.Exec(ctx, `INSERT INTO loans (discord_id) VALUES ($1) ON CONFLICT (discord_id) DO NOTHING`, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure loan record for user %d: %w", discordID, err)
	}

	loan, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE discord_id = $1 FOR UPDATE`, discordID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock loan for user %d: %w", discordID, err)
	}
	return loan, nil
}

// Save writes every mutable field of the loan
func (r *LoanRepository) Save(ctx context.Context, loan *models.Loan) error {
	query := `
		UPDATE loans
		SET principal = $2,
		    penalty = $3,
		    due_at = $4,
		    penalty_applied = $5,
		    forced_collected = $6,
		    collected = $7,
		    daily_count = $8,
		    count_reset_date = $9,
		    suspended_until = $10,
		    updated_at = NOW()
		WHERE discord_id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		loan.DiscordID,
		loan.Principal,
		loan.Penalty,
		loan.DueAt,
		loan.PenaltyApplied,
		loan.ForcedCollected,
		loan.Collected,
		loan.DailyCount,
		loan.CountResetDate,
		loan.SuspendedUntil,
	).Scan(&loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save loan for user %d: %w", loan.DiscordID, err)
	}
	return nil
}

// GetOverdue returns outstanding loans due at or before cutoff that have not
// been force-collected, oldest due first
func (r *LoanRepository) GetOverdue(ctx context.Context, cutoff time.Time) ([]*models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE (principal > 0 OR penalty > 0)
		  AND due_at <= $1
		  AND NOT forced_collected
		ORDER BY due_at, discord_id
	`

	rows, err := r.q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}

	return loans, nil
}

// ApplyPenalty adds amount to the penalty unless it was already applied
func (r *LoanRepository) ApplyPenalty(ctx context.Context, discordID int64, amount int64) (bool, error) {
	query := `
		UPDATE loans
		SET penalty = penalty + $2, penalty_applied = TRUE, updated_at = NOW()
		WHERE discord_id = $1
		  AND NOT penalty_applied
		  AND (principal > 0 OR penalty > 0)
	`

	result, err := r.q.Exec(ctx, query, discordID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to apply penalty for user %d: %w", discordID, err)
	}
	return result.RowsAffected() == 1, nil
}

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var loan models.Loan
	err := row.Scan(
		&loan.DiscordID,
		&loan.Principal,
		&loan.Penalty,
		&loan.DueAt,
		&loan.PenaltyApplied,
		&loan.ForcedCollected,
		&loan.Collected,
		&loan.DailyCount,
		&loan.CountResetDate,
		&loan.SuspendedUntil,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
