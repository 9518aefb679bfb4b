package models

import (
	"time"
)

// Loan is a borrower's loan record. One row per actor; zeroed on repayment.
type Loan struct {
	DiscordID       int64      `db:"discord_id"`
	Principal       int64      `db:"principal"`
	Penalty         int64      `db:"penalty"`
	DueAt           *time.Time `db:"due_at"`
	PenaltyApplied  bool       `db:"penalty_applied"`
	ForcedCollected bool       `db:"forced_collected"`
	Collected       int64      `db:"collected"`
	DailyCount      int        `db:"daily_count"`
	CountResetDate  *time.Time `db:"count_reset_date"`
	SuspendedUntil  *time.Time `db:"suspended_until"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Owed is the outstanding principal plus accrued penalty
func (l *Loan) Owed() int64 {
	return l.Principal + l.Penalty
}

// Active reports whether anything is still owed
func (l *Loan) Active() bool {
	return l.Owed() > 0
}

// Suspended reports whether new loans are blocked at now
func (l *Loan) Suspended(now time.Time) bool {
	return l.SuspendedUntil != nil && now.Before(*l.SuspendedUntil)
}

// LoansToday returns the daily count, treating a stale reset date as zero
func (l *Loan) LoansToday(today time.Time) int {
	if l.CountResetDate == nil || l.CountResetDate.Before(today) {
		return 0
	}
	return l.DailyCount
}
