package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/jackc/pgx/v5"
)

// AccrualRunRepository implements the AccrualRunRepository interface
type AccrualRunRepository struct {
	q queryable
}

// NewAccrualRunRepository creates a new accrual run repository
func NewAccrualRunRepository(db *database.DB) *AccrualRunRepository {
	return &AccrualRunRepository{q: db.Pool}
}

// newAccrualRunRepositoryWithTx creates a new accrual run repository with a transaction
func newAccrualRunRepositoryWithTx(tx queryable) *AccrualRunRepository {
	return &AccrualRunRepository{q: tx}
}

// Create records a finished accrual pass
func (r *AccrualRunRepository) Create(ctx context.Context, run *models.AccrualRun) error {
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO accrual_runs
		(started_at, finished_at, interest_granted, deposits_credited, penalties_applied,
		 loans_collected, failures, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		run.StartedAt,
		run.FinishedAt,
		run.InterestGranted,
		run.DepositsCredited,
		run.PenaltiesApplied,
		run.LoansCollected,
		run.Failures,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create accrual run started %s: %w", run.StartedAt.Format("2006-01-02 15:04:05"), err)
	}

	return nil
}

// GetLatest returns the most recent accrual run
func (r *AccrualRunRepository) GetLatest(ctx context.Context) (*models.AccrualRun, error) {
	query := `
		SELECT id, started_at, finished_at, interest_granted, deposits_credited,
		       penalties_applied, loans_collected, failures, execution_summary, created_at
		FROM accrual_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var run models.AccrualRun
	var summaryJSON []byte

	err := r.q.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.InterestGranted,
		&run.DepositsCredited,
		&run.PenaltiesApplied,
		&run.LoansCollected,
		&run.Failures,
		&summaryJSON,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest accrual run: %w", err)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}
