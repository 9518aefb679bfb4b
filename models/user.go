package models

import (
	"time"
)

// Currency identifies one of the independent counters on an actor's ledger row
type Currency string

const (
	CurrencyBalance Currency = "balance"
	CurrencyTokens  Currency = "tokens"
	CurrencyFates   Currency = "fates"
)

// Valid reports whether c names a known counter
func (c Currency) Valid() bool {
	switch c {
	case CurrencyBalance, CurrencyTokens, CurrencyFates:
		return true
	}
	return false
}

// User represents an enrolled Discord user and their ledger counters
type User struct {
	DiscordID int64     `db:"discord_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	Tokens    int64     `db:"tokens"`
	Fates     int64     `db:"fates"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Counter returns the value of the named currency counter
func (u *User) Counter(c Currency) int64 {
	switch c {
	case CurrencyTokens:
		return u.Tokens
	case CurrencyFates:
		return u.Fates
	default:
		return u.Balance
	}
}
