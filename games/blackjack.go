package games

import (
	"fmt"
	"math/rand/v2"

	"wagerbot/config"
	"wagerbot/models"

	"github.com/shopspring/decimal"
)

// Hand is one blackjack hand and the stake riding on it
type Hand struct {
	Cards       []Card
	Bet         int64
	Doubled     bool
	FromSplit   bool
	Stood       bool
	Surrendered bool
}

// Value returns the hand total and whether it is soft
func (h *Hand) Value() (int, bool) {
	return HandValue(h.Cards)
}

// Total returns the hand total
func (h *Hand) Total() int {
	total, _ := HandValue(h.Cards)
	return total
}

func (h *Hand) Busted() bool {
	return h.Total() > 21
}

// Natural reports a two-card 21 that did not come from a split
func (h *Hand) Natural() bool {
	return !h.FromSplit && len(h.Cards) == 2 && h.Total() == 21
}

func (h *Hand) done() bool {
	return h.Stood || h.Surrendered || h.Total() >= 21
}

// Blackjack is a single-player game against the dealer. The dealer stands
// on 17, or hits soft 17 when configured to.
type Blackjack struct {
	player   int64
	tuning   config.BlackjackTuning
	deck     *Deck
	Hands    []*Hand
	Dealer   *Hand
	active   int
	finished bool
}

// NewBlackjack deals a new game from a freshly shuffled shoe
func NewBlackjack(player, bet int64, tuning config.BlackjackTuning, rng *rand.Rand) *Blackjack {
	return NewBlackjackWithDeck(player, bet, tuning, NewDeck(tuning.Decks, rng))
}

// NewBlackjackWithDeck deals player, dealer, player, dealer from deck
func NewBlackjackWithDeck(player, bet int64, tuning config.BlackjackTuning, deck *Deck) *Blackjack {
	g := &Blackjack{
		player: player,
		tuning: tuning,
		deck:   deck,
		Hands:  []*Hand{{Bet: bet}},
		Dealer: &Hand{},
	}
	hand := g.Hands[0]
	hand.Cards = append(hand.Cards, deck.Draw())
	g.Dealer.Cards = append(g.Dealer.Cards, deck.Draw())
	hand.Cards = append(hand.Cards, deck.Draw())
	g.Dealer.Cards = append(g.Dealer.Cards, deck.Draw())

	// Either natural ends the round before the player acts.
	if hand.Natural() || g.Dealer.Natural() {
		g.finished = true
	}
	return g
}

func (g *Blackjack) Type() models.GameType { return models.GameTypeBlackjack }
func (g *Blackjack) Owner() int64          { return g.player }
func (g *Blackjack) Players() []int64      { return []int64{g.player} }
func (g *Blackjack) Finished() bool        { return g.finished }

func (g *Blackjack) CurrentActor() int64 {
	if g.finished {
		return 0
	}
	return g.player
}

// ActiveHand is the hand currently being played, or nil once finished
func (g *Blackjack) ActiveHand() *Hand {
	if g.finished {
		return nil
	}
	return g.Hands[g.active]
}

// ActiveIndex is the index of the hand being played
func (g *Blackjack) ActiveIndex() int {
	return g.active
}

// Hit draws a card to the active hand
func (g *Blackjack) Hit() error {
	hand := g.ActiveHand()
	if hand == nil {
		return ErrGameFinished
	}
	hand.Cards = append(hand.Cards, g.deck.Draw())
	g.skipFinishedHands()
	return nil
}

// Stand ends the active hand
func (g *Blackjack) Stand() error {
	hand := g.ActiveHand()
	if hand == nil {
		return ErrGameFinished
	}
	hand.Stood = true
	g.skipFinishedHands()
	return nil
}

// CanDouble reports whether the active hand may double. The caller must
// reserve DoubleCost before calling Double.
func (g *Blackjack) CanDouble() error {
	hand := g.ActiveHand()
	if hand == nil {
		return ErrGameFinished
	}
	if len(hand.Cards) != 2 || hand.Doubled {
		return fmt.Errorf("%w: double down only on your first two cards", ErrIllegalMove)
	}
	return nil
}

// DoubleCost is the extra stake a double requires
func (g *Blackjack) DoubleCost() int64 {
	if hand := g.ActiveHand(); hand != nil {
		return hand.Bet
	}
	return 0
}

// Double doubles the active hand's bet, draws exactly one card and stands
func (g *Blackjack) Double() error {
	if err := g.CanDouble(); err != nil {
		return err
	}
	hand := g.ActiveHand()
	hand.Bet *= 2
	hand.Doubled = true
	hand.Cards = append(hand.Cards, g.deck.Draw())
	hand.Stood = true
	g.skipFinishedHands()
	return nil
}

// CanSplit reports whether the active hand may split. The caller must
// reserve SplitCost before calling Split.
func (g *Blackjack) CanSplit() error {
	hand := g.ActiveHand()
	if hand == nil {
		return ErrGameFinished
	}
	if len(hand.Cards) != 2 || hand.Cards[0].Value() != hand.Cards[1].Value() {
		return fmt.Errorf("%w: split needs a pair", ErrIllegalMove)
	}
	if len(g.Hands) >= g.tuning.MaxHands {
		return fmt.Errorf("%w: at most %d hands", ErrIllegalMove, g.tuning.MaxHands)
	}
	return nil
}

// SplitCost is the extra stake a split requires
func (g *Blackjack) SplitCost() int64 {
	if hand := g.ActiveHand(); hand != nil {
		return hand.Bet
	}
	return 0
}

// Split moves the second card of the pair to a new hand with an equal bet
// and deals one card to each
func (g *Blackjack) Split() error {
	if err := g.CanSplit(); err != nil {
		return err
	}
	hand := g.ActiveHand()
	second := &Hand{
		Cards:     []Card{hand.Cards[1], g.deck.Draw()},
		Bet:       hand.Bet,
		FromSplit: true,
	}
	hand.Cards = []Card{hand.Cards[0], g.deck.Draw()}
	hand.FromSplit = true

	g.Hands = append(g.Hands, nil)
	copy(g.Hands[g.active+2:], g.Hands[g.active+1:])
	g.Hands[g.active+1] = second

	g.skipFinishedHands()
	return nil
}

// CanSurrender reports whether surrender is still available
func (g *Blackjack) CanSurrender() error {
	hand := g.ActiveHand()
	if hand == nil {
		return ErrGameFinished
	}
	if len(g.Hands) != 1 || len(hand.Cards) != 2 {
		return fmt.Errorf("%w: surrender only as your first move", ErrIllegalMove)
	}
	return nil
}

// Surrender gives up half the bet. Only allowed as the first move.
func (g *Blackjack) Surrender() error {
	if err := g.CanSurrender(); err != nil {
		return err
	}
	g.ActiveHand().Surrendered = true
	g.finished = true
	return nil
}

// Stake is the total bet across all hands
func (g *Blackjack) Stake() int64 {
	var total int64
	for _, h := range g.Hands {
		total += h.Bet
	}
	return total
}

// Resolve pays each hand against the dealer
func (g *Blackjack) Resolve() []Payout {
	payouts := make([]Payout, 0, len(g.Hands))
	for _, hand := range g.Hands {
		payouts = append(payouts, Payout{
			DiscordID: g.player,
			Stake:     hand.Bet,
			Amount:    g.handPayout(hand),
		})
	}
	return payouts
}

func (g *Blackjack) handPayout(hand *Hand) int64 {
	dealerNatural := g.Dealer.Natural()
	switch {
	case hand.Surrendered:
		return hand.Bet / 2
	case hand.Busted():
		return 0
	case hand.Natural() && dealerNatural:
		return hand.Bet
	case hand.Natural():
		bonus := Multiply(hand.Bet, decimal.NewFromFloat(g.tuning.NaturalPayout))
		return hand.Bet + bonus
	case dealerNatural:
		return 0
	}

	player, dealer := hand.Total(), g.Dealer.Total()
	switch {
	case dealer > 21 || player > dealer:
		return hand.Bet * 2
	case player == dealer:
		return hand.Bet
	default:
		return 0
	}
}

// skipFinishedHands moves past finished hands and plays the dealer once none are left
func (g *Blackjack) skipFinishedHands() {
	for g.active < len(g.Hands) && g.Hands[g.active].done() {
		g.active++
	}
	if g.active >= len(g.Hands) {
		g.active = len(g.Hands) - 1
		g.playDealer()
		g.finished = true
	}
}

func (g *Blackjack) playDealer() {
	live := false
	for _, h := range g.Hands {
		if !h.Busted() && !h.Surrendered {
			live = true
			break
		}
	}
	if !live {
		return
	}

	for {
		total, soft := g.Dealer.Value()
		if total > 17 || (total == 17 && !(soft && g.tuning.DealerHitsSoft17)) {
			return
		}
		g.Dealer.Cards = append(g.Dealer.Cards, g.deck.Draw())
	}
}
