package games

import (
	"math/rand/v2"
	"strings"
)

type Suit string

const (
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	Spades   Suit = "♠"
)

type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var (
	suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// Value is the blackjack value, counting an ace as 11
func (c Card) Value() int {
	switch c.Rank {
	case Ace:
		return 11
	case Ten, Jack, Queen, King:
		return 10
	default:
		return int(c.Rank[0] - '0')
	}
}

// HandValue returns the best total not above 21 where possible, and whether
// an ace is still counted as 11
func HandValue(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// FormatCards renders cards separated by spaces
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Deck is a shoe of one or more shuffled decks. It reshuffles a fresh shoe
// when it runs out.
type Deck struct {
	cards []Card
	decks int
	rng   *rand.Rand
}

// NewDeck returns a shuffled shoe of the given number of decks
func NewDeck(decks int, rng *rand.Rand) *Deck {
	d := &Deck{decks: max(decks, 1), rng: rng}
	d.refill()
	return d
}

// NewStackedDeck returns a deck that deals cards in the given order before
// falling back to a shuffled shoe
func NewStackedDeck(rng *rand.Rand, cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...), decks: 1, rng: rng}
}

// Draw deals the top card
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		d.refill()
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

// Remaining is the number of cards left before a reshuffle
func (d *Deck) Remaining() int {
	return len(d.cards)
}

func (d *Deck) refill() {
	if d.rng == nil {
		d.rng = NewRand()
	}
	d.cards = make([]Card, 0, d.decks*len(suits)*len(ranks))
	for range d.decks {
		for _, s := range suits {
			for _, r := range ranks {
				d.cards = append(d.cards, Card{Rank: r, Suit: s})
			}
		}
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}
