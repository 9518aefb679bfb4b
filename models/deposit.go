package models

import (
	"time"
)

// Deposit is a depositor's bank record
type Deposit struct {
	DiscordID        int64      `db:"discord_id"`
	Amount           int64      `db:"amount"`
	AccruedInterest  int64      `db:"accrued_interest"`
	LastInterestDate *time.Time `db:"last_interest_date"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Total is what the depositor can withdraw
func (d *Deposit) Total() int64 {
	return d.Amount + d.AccruedInterest
}

// BankStatus is a snapshot of an actor's bank position
type BankStatus struct {
	Balance int64
	Deposit *Deposit
	Loan    *Loan
}
