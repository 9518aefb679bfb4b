package service

import (
	"context"
	"fmt"

	"wagerbot/config"
	"wagerbot/models"
)

type bankService struct {
	uowFactory UnitOfWorkFactory
	terms      config.BankTuning
	now        Clock
}

// NewBankService creates a bank service using the wall clock
func NewBankService(uowFactory UnitOfWorkFactory, terms config.BankTuning) BankService {
	return NewBankServiceWithClock(uowFactory, terms, SystemClock)
}

// NewBankServiceWithClock creates a bank service with an explicit clock
func NewBankServiceWithClock(uowFactory UnitOfWorkFactory, terms config.BankTuning, now Clock) BankService {
	return &bankService{
		uowFactory: uowFactory,
		terms:      terms,
		now:        now,
	}
}

// Deposit moves amount from the balance into the deposit record
func (s *bankService) Deposit(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Create unit of work
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	newBalance, err := uow.UserRepository().DeductBalance(ctx, discordID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct deposit: %w", err)
	}

	// Lock the deposit row; the interest pass writes it too
	deposit, err := uow.DepositRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	deposit.Amount += amount
	if err := uow.DepositRepository().Save(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance + amount,
		BalanceAfter:    newBalance,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeDeposit,
		TransactionMetadata: map[string]any{
			"deposit_total": deposit.Total(),
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	return s.commitStatus(ctx, uow, discordID, newBalance, deposit, nil)
}

// Withdraw pays out of accrued interest first, then the deposited amount
func (s *bankService) Withdraw(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireUser(ctx, uow, discordID); err != nil {
		return nil, err
	}

	deposit, err := uow.DepositRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	if amount > deposit.Total() {
		return nil, fmt.Errorf("%w: deposit holds %d, requested %d", ErrInsufficientBalance, deposit.Total(), amount)
	}

	// Interest is paid out first
	fromInterest := min(amount, deposit.AccruedInterest)
	deposit.AccruedInterest -= fromInterest
	deposit.Amount -= amount - fromInterest
	if err := uow.DepositRepository().Save(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	newBalance, err := uow.UserRepository().AddBalance(ctx, discordID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit withdrawal: %w", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance - amount,
		BalanceAfter:    newBalance,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeWithdraw,
		TransactionMetadata: map[string]any{
			"from_interest": fromInterest,
			"deposit_total": deposit.Total(),
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	return s.commitStatus(ctx, uow, discordID, newBalance, deposit, nil)
}

// TakeLoan issues a loan when none is outstanding, borrowing is not
// suspended and the daily count allows it. The fee is added to principal.
func (s *bankService) TakeLoan(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error) {
	if amount <= 0 || amount > s.terms.Loan.MaxAmount {
		return nil, fmt.Errorf("%w: loans range from 1 to %d", ErrInvalidAmount, s.terms.Loan.MaxAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireUser(ctx, uow, discordID); err != nil {
		return nil, err
	}

	loan, err := uow.LoanRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}

	now := s.now()
	today := StartOfDay(now)
	if loan.Active() {
		return nil, ErrLoanActive
	}
	if loan.Suspended(now) {
		return nil, fmt.Errorf("%w until %s", ErrLoanSuspended, loan.SuspendedUntil.Format("2006-01-02 15:04 MST"))
	}
	count := loan.LoansToday(today)
	if count >= s.terms.Loan.DailyLimit {
		return nil, ErrLoanLimitReached
	}

	// Issue the loan with the fee folded into principal
	fee := PercentOf(amount, s.terms.Loan.FeePercent)
	due := now.Add(s.terms.Loan.Term)
	loan.Principal = amount + fee
	loan.Penalty = 0
	loan.DueAt = &due
	loan.PenaltyApplied = false
	loan.ForcedCollected = false
	loan.Collected = 0
	loan.DailyCount = count + 1
	loan.CountResetDate = &today
	if err := uow.LoanRepository().Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	newBalance, err := uow.UserRepository().AddBalance(ctx, discordID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit loan: %w", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance - amount,
		BalanceAfter:    newBalance,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeLoanIssued,
		TransactionMetadata: map[string]any{
			"fee":    fee,
			"owed":   loan.Owed(),
			"due_at": due,
		},
	}
	loanRelation(history, discordID)
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	return s.commitStatus(ctx, uow, discordID, newBalance, nil, loan)
}

// RepayLoan pays down penalty first, then principal. Overpayment is capped at what is owed.
func (s *bankService) RepayLoan(ctx context.Context, discordID int64, amount int64) (*models.BankStatus, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireUser(ctx, uow, discordID); err != nil {
		return nil, err
	}

	loan, err := uow.LoanRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if !loan.Active() {
		return nil, ErrNoActiveLoan
	}

	// Never take more than is owed
	pay := min(amount, loan.Owed())
	newBalance, err := uow.UserRepository().DeductBalance(ctx, discordID, pay)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct repayment: %w", err)
	}

	fromPenalty := min(pay, loan.Penalty)
	loan.Penalty -= fromPenalty
	loan.Principal -= pay - fromPenalty
	// Paid off, clear the overdue state
	if !loan.Active() {
		loan.DueAt = nil
		loan.PenaltyApplied = false
		loan.ForcedCollected = false
		loan.Collected = 0
	}
	if err := uow.LoanRepository().Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   newBalance + pay,
		BalanceAfter:    newBalance,
		ChangeAmount:    -pay,
		TransactionType: models.TransactionTypeLoanRepayment,
		TransactionMetadata: map[string]any{
			"remaining": loan.Owed(),
		},
	}
	loanRelation(history, discordID)
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	return s.commitStatus(ctx, uow, discordID, newBalance, nil, loan)
}

// Status returns the actor's balance, deposit and loan
func (s *bankService) Status(ctx context.Context, discordID int64) (*models.BankStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.loadStatus(ctx, uow, user.Balance, nil, nil, discordID)
}

// commitStatus fills the missing half of the status, then commits
func (s *bankService) commitStatus(ctx context.Context, uow UnitOfWork, discordID, balance int64, deposit *models.Deposit, loan *models.Loan) (*models.BankStatus, error) {
	status, err := s.loadStatus(ctx, uow, balance, deposit, loan, discordID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return status, nil
}

func (s *bankService) loadStatus(ctx context.Context, uow UnitOfWork, balance int64, deposit *models.Deposit, loan *models.Loan, discordID int64) (*models.BankStatus, error) {
	var err error
	if deposit == nil {
		if deposit, err = uow.DepositRepository().Get(ctx, discordID); err != nil {
			return nil, fmt.Errorf("failed to get deposit: %w", err)
		}
	}
	if loan == nil {
		if loan, err = uow.LoanRepository().Get(ctx, discordID); err != nil {
			return nil, fmt.Errorf("failed to get loan: %w", err)
		}
	}
	return &models.BankStatus{Balance: balance, Deposit: deposit, Loan: loan}, nil
}

func requireUser(ctx context.Context, uow UnitOfWork, discordID int64) error {
	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}
