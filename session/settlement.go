package session

import (
	"context"
	"errors"

	"wagerbot/games"
	"wagerbot/models"
	"wagerbot/service"

	log "github.com/sirupsen/logrus"
)

// finishLocked fixes the result of a finished game and settles it
func (m *Manager) finishLocked(ctx context.Context, s *Session) (*Result, error) {
	s.stopTimer()
	s.state = StateResolving

	if v, ok := s.Game.(games.Voidable); ok && v.Voided() {
		s.refund = true
		return m.settleLocked(ctx, s)
	}

	payouts := s.Game.Resolve()
	staked := games.StakeTotals(payouts)
	for actor, escrows := range s.escrows {
		if held := models.EscrowTotal(escrows); held != staked[actor] {
			// Paying out against stake that was never reserved would mint currency.
			log.WithFields(log.Fields{
				"sessionID": s.ID,
				"actor":     actor,
				"held":      held,
				"staked":    staked[actor],
			}).Error("Game stake does not match escrow, refunding session")
			s.refund = true
			return m.settleLocked(ctx, s)
		}
	}

	s.payouts = make(map[int64]int64)
	for _, p := range payouts {
		s.payouts[p.DiscordID] += p.Amount
	}
	return m.settleLocked(ctx, s)
}

// settleLocked releases every actor's escrows once. Actors already released
// by an earlier attempt are skipped, so a failed attempt can be retried.
func (m *Manager) settleLocked(ctx context.Context, s *Session) (*Result, error) {
	for _, actor := range s.Game.Players() {
		escrows := s.escrows[actor]
		if len(escrows) == 0 {
			continue
		}
		if _, done := s.released[actor]; done {
			continue
		}

		var receipt *models.Receipt
		var err error
		if s.refund {
			receipt, err = m.escrow.Refund(ctx, actor, escrows)
		} else {
			receipt, err = m.escrow.Settle(ctx, actor, escrows, s.payouts[actor])
		}

		if errors.Is(err, service.ErrExpiredOrAlreadySettled) {
			// Released by an attempt whose reply was lost; the journal has it.
			log.WithFields(log.Fields{
				"sessionID": s.ID,
				"actor":     actor,
			}).Warn("Escrows were already released, reading receipt")
			receipt, err = m.escrow.Receipt(ctx, actor, escrows)
		}
		if err != nil {
			log.WithFields(log.Fields{
				"sessionID": s.ID,
				"actor":     actor,
				"error":     err,
			}).Error("Failed to settle session, will retry")
			m.armLocked(s, m.retryInterval)
			return nil, err
		}

		outcome := Outcome{
			DiscordID:  actor,
			Kind:       models.ClassifyNet(receipt.Net),
			Staked:     receipt.Staked,
			Payout:     receipt.Payout,
			Net:        receipt.Net,
			NewBalance: receipt.NewBalance,
		}
		if receipt.Refunded {
			outcome.Kind = models.OutcomeRefund
		}
		s.released[actor] = outcome
		m.recorder.SessionSettled(ctx, s.Game.Type(), outcome, receipt.Refunded)
	}

	result := &Result{
		SessionID: s.ID,
		GameType:  s.Game.Type(),
		Refunded:  s.refund,
		Expired:   s.expired,
	}
	for _, actor := range s.Game.Players() {
		if o, ok := s.released[actor]; ok {
			result.Outcomes = append(result.Outcomes, o)
		}
	}

	s.stopTimer()
	s.state = StateSettled
	s.result = result
	m.unregister(s)

	log.WithFields(log.Fields{
		"sessionID": s.ID,
		"gameType":  s.Game.Type(),
		"refunded":  s.refund,
		"expired":   s.expired,
		"outcomes":  len(result.Outcomes),
	}).Info("Session settled")

	return result, nil
}
