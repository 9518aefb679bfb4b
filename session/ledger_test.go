package session

import (
	"context"
	"errors"
	"sync"

	"wagerbot/models"
	"wagerbot/service"

	"github.com/google/uuid"
)

// memoryLedger is an in-memory EscrowService with the same all-or-nothing
// release semantics as the database-backed one
type memoryLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	escrows  map[uuid.UUID]*models.Escrow

	reserved int64
	refunded int64
	paid     int64

	failReleases int
	releases     int

	// lostReply is returned once by a release that has already committed
	lostReply error
	journal   map[uuid.UUID]models.Receipt
}

func newMemoryLedger(balances map[int64]int64) *memoryLedger {
	return &memoryLedger{
		balances: balances,
		escrows:  make(map[uuid.UUID]*models.Escrow),
		journal:  make(map[uuid.UUID]models.Receipt),
	}
}

var errLedgerDown = errors.New("ledger down")

func (l *memoryLedger) balance(discordID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[discordID]
}

func (l *memoryLedger) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.escrows {
		if e.State == models.EscrowStateHeld {
			n++
		}
	}
	return n
}

func (l *memoryLedger) Reserve(_ context.Context, discordID int64, sessionID uuid.UUID, gameType models.GameType, amount int64) (*models.Escrow, error) {
	if amount <= 0 {
		return nil, service.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[discordID]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	if balance < amount {
		return nil, service.ErrInsufficientBalance
	}
	l.balances[discordID] = balance - amount
	l.reserved += amount

	e := &models.Escrow{
		ID:        uuid.New(),
		SessionID: sessionID,
		DiscordID: discordID,
		GameType:  gameType,
		Amount:    amount,
		State:     models.EscrowStateHeld,
	}
	stored := *e
	l.escrows[e.ID] = &stored
	return e, nil
}

func (l *memoryLedger) Settle(_ context.Context, discordID int64, escrows []*models.Escrow, payout int64) (*models.Receipt, error) {
	return l.release(discordID, escrows, models.EscrowStateSettled, payout)
}

func (l *memoryLedger) Refund(_ context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error) {
	return l.release(discordID, escrows, models.EscrowStateRefunded, 0)
}

func (l *memoryLedger) Receipt(_ context.Context, discordID int64, escrows []*models.Escrow) (*models.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.journal[escrows[0].ID]
	if !ok || r.DiscordID != discordID {
		return nil, service.ErrExpiredOrAlreadySettled
	}
	return &r, nil
}

func (l *memoryLedger) RecoverOrphaned(context.Context) (int, error) {
	return 0, nil
}

func (l *memoryLedger) release(discordID int64, escrows []*models.Escrow, state models.EscrowState, credit int64) (*models.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failReleases > 0 {
		l.failReleases--
		return nil, errors.Join(service.ErrStorageFailure, errLedgerDown)
	}

	var staked int64
	for _, e := range escrows {
		stored := l.escrows[e.ID]
		if stored == nil || stored.DiscordID != discordID || stored.State != models.EscrowStateHeld {
			return nil, service.ErrExpiredOrAlreadySettled
		}
		staked += stored.Amount
	}
	for _, e := range escrows {
		l.escrows[e.ID].State = state
	}
	l.releases++

	refunded := state == models.EscrowStateRefunded
	if refunded {
		credit = staked
		l.refunded += credit
	} else {
		l.paid += credit
	}
	l.balances[discordID] += credit

	receipt := models.Receipt{
		DiscordID:  discordID,
		Staked:     staked,
		Payout:     credit,
		Net:        credit - staked,
		Refunded:   refunded,
		NewBalance: l.balances[discordID],
	}
	for _, e := range escrows {
		l.journal[e.ID] = receipt
	}

	if l.lostReply != nil {
		err := l.lostReply
		l.lostReply = nil
		return nil, err
	}
	return &receipt, nil
}
