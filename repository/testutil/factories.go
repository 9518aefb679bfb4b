package testutil

import (
	"context"
	"testing"
	"time"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user with the given balance
func CreateTestUser(t *testing.T, db *database.DB, discordID int64, username string, balance int64) *models.User {
	t.Helper()

	user := &models.User{DiscordID: discordID, Username: username, Balance: balance}
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (discord_id, username, balance)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, discordID, username, balance).Scan(&user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	return user
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(discordID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   100000,
		BalanceAfter:    90000,
		ChangeAmount:    -10000,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestEscrow returns an unsaved held escrow
func CreateTestEscrow(discordID int64, sessionID uuid.UUID, amount int64) *models.Escrow {
	return &models.Escrow{
		ID:        uuid.New(),
		SessionID: sessionID,
		DiscordID: discordID,
		GameType:  models.GameTypeBlackjack,
		Amount:    amount,
		State:     models.EscrowStateHeld,
	}
}

// CreateTestLoan writes an outstanding loan row
func CreateTestLoan(t *testing.T, db *database.DB, discordID int64, principal int64, dueAt time.Time) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO loans (discord_id, principal, due_at, daily_count, count_reset_date)
		VALUES ($1, $2, $3, 1, $4)
	`, discordID, principal, dueAt, dueAt.Add(-72*time.Hour))
	require.NoError(t, err)
}

// CreateTestDeposit writes a deposit row
func CreateTestDeposit(t *testing.T, db *database.DB, discordID int64, amount int64) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO deposits (discord_id, amount) VALUES ($1, $2)
	`, discordID, amount)
	require.NoError(t, err)
}

// CreateTestAccrualRun creates an unsaved accrual run
func CreateTestAccrualRun(startedAt time.Time) *models.AccrualRun {
	return &models.AccrualRun{
		StartedAt:        startedAt,
		FinishedAt:       startedAt.Add(2 * time.Second),
		InterestGranted:  5000,
		DepositsCredited: 10,
		ExecutionSummary: map[string]any{
			"as_of": startedAt.Format(time.RFC3339),
		},
	}
}
