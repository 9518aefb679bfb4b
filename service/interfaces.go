package service

import (
	"context"
	"time"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user ledger access. Balance
// mutations are single-statement deltas; none read-then-write.
type UserRepository interface {
	// GetByDiscordID retrieves a user, or nil if not enrolled
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// Create enrolls a user with the initial balance
	Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.User, error)

	// AddBalance credits amount and returns the new balance
	AddBalance(ctx context.Context, discordID int64, amount int64) (int64, error)

	// DeductBalance debits amount only if the balance covers it and returns
	// the new balance. Fails with ErrInsufficientBalance otherwise.
	DeductBalance(ctx context.Context, discordID int64, amount int64) (int64, error)

	// AdjustCounter applies delta to a currency counter without letting it go negative
	AdjustCounter(ctx context.Context, discordID int64, currency models.Currency, delta int64) (int64, error)

	// Delete removes the user and every record that references them
	Delete(ctx context.Context, discordID int64) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error)

	// GetRelease returns the entry that released escrowID, or nil if none
	GetRelease(ctx context.Context, discordID int64, escrowID uuid.UUID) (*models.BalanceHistory, error)
}

// EscrowRepository journals escrow holds
type EscrowRepository interface {
	// Create inserts a held escrow
	Create(ctx context.Context, escrow *models.Escrow) error

	// Release moves the listed escrows of discordID from held to state and
	// returns the rows it changed. Rows not currently held are left alone.
	Release(ctx context.Context, discordID int64, ids []uuid.UUID, state models.EscrowState) ([]*models.Escrow, error)

	// GetHeld returns every escrow still held, oldest first
	GetHeld(ctx context.Context) ([]*models.Escrow, error)

	// GetHeldByUser returns held escrows for one actor
	GetHeldByUser(ctx context.Context, discordID int64) ([]*models.Escrow, error)
}

// LoanRepository defines the interface for loan records
type LoanRepository interface {
	// Get returns the loan record, or nil if the actor never borrowed
	Get(ctx context.Context, discordID int64) (*models.Loan, error)

	// GetForUpdate returns the loan record locked for the transaction,
	// creating an empty record first if needed
	GetForUpdate(ctx context.Context, discordID int64) (*models.Loan, error)

	// Save writes every mutable field of a record obtained with GetForUpdate
	Save(ctx context.Context, loan *models.Loan) error

	// GetOverdue returns outstanding loans due before cutoff that have not been force-collected
	GetOverdue(ctx context.Context, cutoff time.Time) ([]*models.Loan, error)

	// ApplyPenalty adds amount to the penalty if it has not been applied yet.
	// Reports whether this call applied it.
	ApplyPenalty(ctx context.Context, discordID int64, amount int64) (bool, error)
}

// DepositRepository defines the interface for deposit records
type DepositRepository interface {
	// Get returns the deposit record, or nil if the actor never deposited
	Get(ctx context.Context, discordID int64) (*models.Deposit, error)

	// GetForUpdate returns the deposit locked for the transaction, creating it if needed
	GetForUpdate(ctx context.Context, discordID int64) (*models.Deposit, error)

	// Save writes the amount and accrued interest of a locked record
	Save(ctx context.Context, deposit *models.Deposit) error

	// GetEligibleForInterest returns positive deposits without a grant on day
	// whose owner has no outstanding loan
	GetEligibleForInterest(ctx context.Context, day time.Time) ([]*models.Deposit, error)

	// GrantInterest adds amount and stamps day unless day was already stamped.
	// Reports whether this call granted it.
	GrantInterest(ctx context.Context, discordID int64, amount int64, day time.Time) (bool, error)
}

// AccrualRunRepository records accrual loop passes
type AccrualRunRepository interface {
	// Create records a finished pass
	Create(ctx context.Context, run *models.AccrualRun) error

	// GetLatest returns the most recent pass, or nil if none ran yet
	GetLatest(ctx context.Context) (*models.AccrualRun, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EscrowRepository() EscrowRepository
	LoanRepository() LoanRepository
	DepositRepository() DepositRepository
	AccrualRunRepository() AccrualRunRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines the interface for enrollment and lookups
type UserService interface {
	// GetOrCreateUser retrieves an existing user or enrolls a new one
	GetOrCreateUser(ctx context.Context, discordID int64, username string) (*models.User, error)

	// GetUser retrieves an enrolled user or fails with ErrUserNotFound
	GetUser(ctx context.Context, discordID int64) (*models.User, error)
}

// EscrowService is the only path that removes currency for a wager and the
// only path that credits it back.
type EscrowService interface {
	// Reserve debits amount from discordID and returns the held escrow
	Reserve(ctx context.Context, discordID int64, sessionID uuid.UUID, gameType models.GameType, amount int64) (*models.Escrow, error)

	// Settle consumes escrows and credits payout once
	Settle(ctx context.Context, discordID int64, escrows []*models.Escrow, payout int64) (*models.Receipt, error)

	// Refund consumes escrows and credits their amounts back unchanged
	Refund(ctx context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error)

	// Receipt rebuilds the receipt of escrows that were already released
	Receipt(ctx context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error)

	// RecoverOrphaned refunds escrows left held by a previous process
	RecoverOrphaned(ctx context.Context) (int, error)
}

// TransferService moves currency between actors
type TransferService interface {
	Transfer(ctx context.Context, fromDiscordID, toDiscordID int64, amount int64) (*TransferResult, error)
}

// BankService defines deposit and loan operations
type BankService interface {
	Deposit(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error)
	Withdraw(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error)
	TakeLoan(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error)
	RepayLoan(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error)
	Status(ctx context.Context, discordID int64) (*models.BankStatus, error)
}

// AccrualService runs the timed interest and penalty passes
type AccrualService interface {
	// RunInterestPass credits daily interest on eligible deposits
	RunInterestPass(ctx context.Context, now time.Time) (*InterestPassResult, error)

	// RunPenaltyPass applies overdue surcharges and forced collections
	RunPenaltyPass(ctx context.Context, now time.Time) (*PenaltyPassResult, error)

	// Run executes both passes and records the run
	Run(ctx context.Context, now time.Time) (*models.AccrualRun, error)
}

// AdminService wraps operator commands around the same ledger primitives
type AdminService interface {
	Grant(ctx context.Context, adminID, targetID int64, currency models.Currency, amount int64) (int64, error)
	Revoke(ctx context.Context, adminID, targetID int64, currency models.Currency, amount int64) (int64, error)
	Purge(ctx context.Context, adminID, targetID int64) error
}
