package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial       TransactionType = "initial"
	TransactionTypeWagerHold     TransactionType = "wager_hold"
	TransactionTypeWagerWin      TransactionType = "wager_win"
	TransactionTypeWagerLoss     TransactionType = "wager_loss"
	TransactionTypeWagerPush     TransactionType = "wager_push"
	TransactionTypeWagerRefund   TransactionType = "wager_refund"
	TransactionTypeTransferIn    TransactionType = "transfer_in"
	TransactionTypeTransferOut   TransactionType = "transfer_out"
	TransactionTypeDeposit       TransactionType = "bank_deposit"
	TransactionTypeWithdraw      TransactionType = "bank_withdraw"
	TransactionTypeLoanIssued    TransactionType = "loan_issued"
	TransactionTypeLoanRepayment TransactionType = "loan_repayment"
	TransactionTypeLoanCollected TransactionType = "loan_collected"
	TransactionTypeAdminGrant    TransactionType = "admin_grant"
	TransactionTypeAdminRevoke   TransactionType = "admin_revoke"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeSession RelatedType = "session"
	RelatedTypeLoan    RelatedType = "loan"
	RelatedTypeDeposit RelatedType = "deposit"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	DiscordID           int64           `db:"discord_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *string         `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
