package models

// GameType identifies a minigame
type GameType string

const (
	GameTypeBlackjack GameType = "blackjack"
	GameTypeWheel     GameType = "wheel"
	GameTypeMines     GameType = "mines"
	GameTypeDuel      GameType = "duel"
)

// OutcomeKind classifies a settled stake from the actor's point of view
type OutcomeKind string

const (
	OutcomeWin    OutcomeKind = "win"
	OutcomeLoss   OutcomeKind = "loss"
	OutcomePush   OutcomeKind = "push"
	OutcomeRefund OutcomeKind = "refund"
)

// ClassifyNet maps a net change to an outcome kind
func ClassifyNet(net int64) OutcomeKind {
	switch {
	case net > 0:
		return OutcomeWin
	case net < 0:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}
