package common

import (
	"errors"
	"strings"

	"wagerbot/games"
	"wagerbot/service"
)

const genericFailure = "Something went wrong. Please try again later."

// userMessages maps each error kind to its sentence. Kinds marked detailed
// are wrapped with text meant for the actor, which replaces the sentence.
// The rest carry log context only.
var userMessages = []struct {
	err      error
	message  string
	detailed bool
}{
	{service.ErrInsufficientBalance, "You don't have enough bits for that.", true},
	{service.ErrInvalidAmount, "That amount is not valid.", true},
	{service.ErrSessionConflict, "Finish your current game first.", true},
	{service.ErrNotYourTurn, "It's not your turn.", false},
	{service.ErrNotYourSession, "That game isn't yours.", false},
	{service.ErrExpiredOrAlreadySettled, "That game has already ended.", false},
	{games.ErrGameFinished, "That game has already ended.", false},
	{games.ErrIllegalMove, "That move isn't available right now.", true},
	{service.ErrStorageFailure, "The ledger is unavailable right now. Your bits are safe, please try again shortly.", false},
	{service.ErrUserNotFound, "That user doesn't have an account yet.", false},
	{service.ErrNotAuthorized, "You are not allowed to do that.", false},
	{service.ErrSelfTransfer, "You can't send bits to yourself.", false},
	{service.ErrLoanActive, "You already have a loan outstanding. Repay it first.", false},
	{service.ErrLoanSuspended, "Borrowing is suspended for you after a forced collection.", false},
	{service.ErrLoanLimitReached, "You've reached today's loan limit.", false},
	{service.ErrNoActiveLoan, "You don't have a loan to repay.", false},
}

// UserMessage turns an error into the sentence shown to the actor
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if !errors.Is(err, m.err) {
			continue
		}
		if !m.detailed {
			return m.message
		}
		if d := detail(err, m.err); d != "" {
			return capitalize(d) + "."
		}
		return m.message
	}
	return genericFailure
}

// IsExpected reports whether err is a rejection the actor caused, as
// opposed to a failure worth logging
func IsExpected(err error) bool {
	return service.IsRejection(err) || errors.Is(err, games.ErrIllegalMove) || errors.Is(err, games.ErrGameFinished)
}

// detail returns what a wrapper added after target's own message
func detail(err, target error) string {
	msg, prefix := err.Error(), target.Error()+": "
	idx := strings.Index(msg, prefix)
	if idx < 0 {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(msg[idx+len(prefix):]), ".")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
