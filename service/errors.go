package service

import "errors"

// Rejections surfaced to the actor. Check with errors.Is.
var (
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrSessionConflict         = errors.New("actor already has an active game")
	ErrNotYourTurn             = errors.New("not your turn")
	ErrNotYourSession          = errors.New("not your game")
	ErrExpiredOrAlreadySettled = errors.New("game has already ended")
	ErrStorageFailure          = errors.New("storage failure")

	ErrUserNotFound     = errors.New("user not found")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrSelfTransfer     = errors.New("cannot transfer to yourself")
	ErrLoanActive       = errors.New("a loan is already outstanding")
	ErrLoanSuspended    = errors.New("borrowing is suspended")
	ErrLoanLimitReached = errors.New("daily loan limit reached")
	ErrNoActiveLoan     = errors.New("no outstanding loan")
)

// IsRejection reports whether err is a domain rejection rather than an unexpected failure
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInsufficientBalance, ErrInvalidAmount, ErrSessionConflict, ErrNotYourTurn,
		ErrNotYourSession, ErrExpiredOrAlreadySettled, ErrUserNotFound, ErrNotAuthorized,
		ErrSelfTransfer, ErrLoanActive, ErrLoanSuspended, ErrLoanLimitReached, ErrNoActiveLoan,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
