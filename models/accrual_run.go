package models

import (
	"time"
)

// AccrualRun records one pass of the timed accrual loop
type AccrualRun struct {
	ID               int64          `db:"id"`
	StartedAt        time.Time      `db:"started_at"`
	FinishedAt       time.Time      `db:"finished_at"`
	InterestGranted  int64          `db:"interest_granted"`
	DepositsCredited int            `db:"deposits_credited"`
	PenaltiesApplied int            `db:"penalties_applied"`
	LoansCollected   int            `db:"loans_collected"`
	Failures         int            `db:"failures"`
	ExecutionSummary map[string]any `db:"execution_summary"`
	CreatedAt        time.Time      `db:"created_at"`
}
