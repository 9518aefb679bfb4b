package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerbot/config"
	"wagerbot/events"
	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// InterestPassResult summarizes one interest pass
type InterestPassResult struct {
	Credited int
	Total    int64
	Failures int
}

// PenaltyPassResult summarizes one penalty pass
type PenaltyPassResult struct {
	Surcharged      int
	Collected       int
	CollectedAmount int64
	Failures        int
}

type accrualService struct {
	uowFactory UnitOfWorkFactory
	terms      config.BankTuning
}

// NewAccrualService creates the service behind the timed accrual loop
func NewAccrualService(uowFactory UnitOfWorkFactory, terms config.BankTuning) AccrualService {
	return &accrualService{
		uowFactory: uowFactory,
		terms:      terms,
	}
}

// Run executes the interest pass and the penalty pass and records the run.
// A failing pass does not stop the other one.
func (s *accrualService) Run(ctx context.Context, now time.Time) (*models.AccrualRun, error) {
	started := time.Now().UTC()

	interest, interestErr := s.RunInterestPass(ctx, now)
	if interest == nil {
		interest = &InterestPassResult{}
	}
	penalty, penaltyErr := s.RunPenaltyPass(ctx, now)
	if penalty == nil {
		penalty = &PenaltyPassResult{}
	}

	run := &models.AccrualRun{
		StartedAt:        started,
		FinishedAt:       time.Now().UTC(),
		InterestGranted:  interest.Total,
		DepositsCredited: interest.Credited,
		PenaltiesApplied: penalty.Surcharged,
		LoansCollected:   penalty.Collected,
		Failures:         interest.Failures + penalty.Failures,
		ExecutionSummary: map[string]any{
			"as_of":            now.UTC().Format(time.RFC3339),
			"collected_amount": penalty.CollectedAmount,
			"interest_error":   errString(interestErr),
			"penalty_error":    errString(penaltyErr),
		},
	}

	if err := s.recordRun(ctx, run); err != nil {
		log.WithError(err).Error("Failed to record accrual run")
	}

	return run, errors.Join(interestErr, penaltyErr)
}

// RunInterestPass credits a day's interest to each eligible deposit at most once per day
func (s *accrualService) RunInterestPass(ctx context.Context, now time.Time) (*InterestPassResult, error) {
	day := StartOfDay(now)

	deposits, err := s.eligibleDeposits(ctx, day)
	if err != nil {
		return nil, err
	}

	result := &InterestPassResult{}
	for _, deposit := range deposits {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		interest := PercentOf(deposit.Amount, s.terms.InterestRatePercent)
		granted, err := s.grantInterest(ctx, deposit.DiscordID, interest, day)
		if err != nil {
			result.Failures++
			log.WithFields(log.Fields{
				"discordID": deposit.DiscordID,
				"error":     err,
			}).Error("Failed to grant interest")
			continue
		}
		if granted && interest > 0 {
			result.Credited++
			result.Total += interest
		}
	}

	log.WithFields(log.Fields{
		"eligible": len(deposits),
		"credited": result.Credited,
		"total":    result.Total,
		"failures": result.Failures,
	}).Info("Interest pass completed")

	return result, nil
}

// RunPenaltyPass surcharges loans past the first threshold and force-collects
// loans past the second. Each stage fires at most once per loan.
func (s *accrualService) RunPenaltyPass(ctx context.Context, now time.Time) (*PenaltyPassResult, error) {
	loans, err := s.overdueLoans(ctx, now.Add(-s.terms.Loan.PenaltyAfter))
	if err != nil {
		return nil, err
	}

	result := &PenaltyPassResult{}
	for _, loan := range loans {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		fields := log.Fields{"discordID": loan.DiscordID}

		if !loan.PenaltyApplied {
			applied, err := s.surcharge(ctx, loan.DiscordID)
			if err != nil {
				result.Failures++
				log.WithFields(fields).WithError(err).Error("Failed to apply loan penalty")
				continue
			}
			if applied {
				result.Surcharged++
			}
		}

		if loan.DueAt != nil && now.Sub(*loan.DueAt) >= s.terms.Loan.CollectAfter {
			collected, ok, err := s.collect(ctx, loan.DiscordID, now)
			if err != nil {
				result.Failures++
				log.WithFields(fields).WithError(err).Error("Failed to collect overdue loan")
				continue
			}
			if ok {
				result.Collected++
				result.CollectedAmount += collected
			}
		}
	}

	log.WithFields(log.Fields{
		"overdue":    len(loans),
		"surcharged": result.Surcharged,
		"collected":  result.Collected,
		"amount":     result.CollectedAmount,
		"failures":   result.Failures,
	}).Info("Penalty pass completed")

	return result, nil
}

func (s *accrualService) eligibleDeposits(ctx context.Context, day time.Time) ([]*models.Deposit, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deposits, err := uow.DepositRepository().GetEligibleForInterest(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

func (s *accrualService) grantInterest(ctx context.Context, discordID, amount int64, day time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	granted, err := uow.DepositRepository().GrantInterest(ctx, discordID, amount, day)
	if err != nil {
		return false, fmt.Errorf("failed to grant interest: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return granted, nil
}

func (s *accrualService) overdueLoans(ctx context.Context, cutoff time.Time) ([]*models.Loan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	loans, err := uow.LoanRepository().GetOverdue(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	return loans, nil
}

// surcharge adds the first-threshold penalty, computed on the locked record
func (s *accrualService) surcharge(ctx context.Context, discordID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Re-check on the locked row; a repayment may have landed since listing
	loan, err := uow.LoanRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return false, fmt.Errorf("failed to lock loan: %w", err)
	}
	if !loan.Active() || loan.PenaltyApplied {
		return false, nil
	}

	penalty := PercentOf(loan.Owed(), s.terms.Loan.PenaltyPercent)
	applied, err := uow.LoanRepository().ApplyPenalty(ctx, discordID, penalty)
	if err != nil {
		return false, fmt.Errorf("failed to apply penalty: %w", err)
	}
	if !applied {
		return false, nil
	}

	uow.EventBus().Publish(events.LoanPenaltyEvent{
		DiscordID: discordID,
		Stage:     events.LoanPenaltyStageSurcharge,
		Amount:    penalty,
		Owed:      loan.Owed() + penalty,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"discordID": discordID,
		"penalty":   penalty,
		"owed":      loan.Owed() + penalty,
	}).Info("Applied overdue loan penalty")
	return true, nil
}

// collect force-deducts what the borrower can afford, carries the shortfall
// as principal and suspends borrowing
func (s *accrualService) collect(ctx context.Context, discordID int64, now time.Time) (int64, bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	loan, err := uow.LoanRepository().GetForUpdate(ctx, discordID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to lock loan: %w", err)
	}
	if !loan.Active() || loan.ForcedCollected {
		return 0, false, nil
	}

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, false, ErrUserNotFound
	}

	// Take what the balance covers, the rest stays owed
	owed := loan.Owed()
	take := min(user.Balance, owed)
	if take > 0 {
		newBalance, err := uow.UserRepository().DeductBalance(ctx, discordID, take)
		if err != nil {
			return 0, false, fmt.Errorf("failed to collect loan: %w", err)
		}

		history := &models.BalanceHistory{
			DiscordID:       discordID,
			BalanceBefore:   newBalance + take,
			BalanceAfter:    newBalance,
			ChangeAmount:    -take,
			TransactionType: models.TransactionTypeLoanCollected,
			TransactionMetadata: map[string]any{
				"owed":      owed,
				"shortfall": owed - take,
			},
		}
		loanRelation(history, discordID)
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return 0, false, err
		}
	}

	// Penalty is folded into the carried principal
	suspendedUntil := now.Add(s.terms.Loan.Suspension)
	loan.Principal = owed - take
	loan.Penalty = 0
	loan.Collected += take
	loan.ForcedCollected = true
	loan.SuspendedUntil = &suspendedUntil
	if err := uow.LoanRepository().Save(ctx, loan); err != nil {
		return 0, false, fmt.Errorf("failed to save loan: %w", err)
	}

	uow.EventBus().Publish(events.LoanPenaltyEvent{
		DiscordID: discordID,
		Stage:     events.LoanPenaltyStageCollection,
		Amount:    take,
		Owed:      loan.Owed(),
	})

	if err := uow.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"discordID":      discordID,
		"collected":      take,
		"shortfall":      loan.Principal,
		"suspendedUntil": suspendedUntil,
	}).Warn("Force-collected overdue loan")
	return take, true, nil
}

func (s *accrualService) recordRun(ctx context.Context, run *models.AccrualRun) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccrualRunRepository().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create accrual run: %w", err)
	}
	return uow.Commit()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
