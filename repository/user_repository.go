package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"
	"wagerbot/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// counterColumns whitelists the columns AdjustCounter may touch
var counterColumns = map[models.Currency]string{
	models.CurrencyBalance: "balance",
	models.CurrencyTokens:  "tokens",
	models.CurrencyFates:   "fates",
}

// GetByDiscordID retrieves a user by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	query := `
		SELECT discord_id, username, balance, tokens, fates, created_at, updated_at
		FROM users
		WHERE discord_id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&user.DiscordID,
		&user.Username,
		&user.Balance,
		&user.Tokens,
		&user.Fates,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord ID %d: %w", discordID, err)
	}

	return &user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (discord_id, username, balance)
		VALUES ($1, $2, $3)
		RETURNING discord_id, username, balance, tokens, fates, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, discordID, username, initialBalance).Scan(
		&user.DiscordID,
		&user.Username,
		&user.Balance,
		&user.Tokens,
		&user.Fates,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user with discord ID %d: %w", discordID, err)
	}

	return &user, nil
}

// AddBalance adds to a user's balance atomically and returns the new balance
func (r *UserRepository) AddBalance(ctx context.Context, discordID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE discord_id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, discordID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: discord ID %d", service.ErrUserNotFound, discordID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %d: %w", discordID, err)
	}

	return balance, nil
}

// DeductBalance deducts from a user's balance atomically, failing if the
// balance does not cover amount
func (r *UserRepository) DeductBalance(ctx context.Context, discordID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE discord_id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, discordID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		user, err := r.GetByDiscordID(ctx, discordID)
		if err != nil {
			return 0, fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return 0, fmt.Errorf("%w: discord ID %d", service.ErrUserNotFound, discordID)
		}
		return 0, fmt.Errorf("%w: have %d, need %d", service.ErrInsufficientBalance, user.Balance, amount)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", discordID, err)
	}

	return balance, nil
}

// AdjustCounter applies delta to a counter, refusing to take it below zero
func (r *UserRepository) AdjustCounter(ctx context.Context, discordID int64, currency models.Currency, delta int64) (int64, error) {
	column, ok := counterColumns[currency]
	if !ok {
		return 0, fmt.Errorf("unknown currency %q", currency)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE discord_id = $2 AND %[1]s + $1 >= 0
		RETURNING %[1]s
	`, column)

	var value int64
	err := r.q.QueryRow(ctx, query, delta, discordID).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		user, err := r.GetByDiscordID(ctx, discordID)
		if err != nil {
			return 0, fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return 0, fmt.Errorf("%w: discord ID %d", service.ErrUserNotFound, discordID)
		}
		return 0, fmt.Errorf("%w: have %d %s", service.ErrInsufficientBalance, user.Counter(currency), currency)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust %s for user %d: %w", currency, discordID, err)
	}

	return value, nil
}

// Delete removes the user. History, escrows, loans and deposits cascade.
func (r *UserRepository) Delete(ctx context.Context, discordID int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM users WHERE discord_id = $1`, discordID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", discordID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: discord ID %d", service.ErrUserNotFound, discordID)
	}
	return nil
}
