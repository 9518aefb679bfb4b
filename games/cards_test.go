package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func card(r Rank) Card {
	return Card{Rank: r, Suit: Spades}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		total int
		soft  bool
	}{
		{"hard", []Card{card(Ten), card(Seven)}, 17, false},
		{"soft", []Card{card(Ace), card(Six)}, 17, true},
		{"blackjack", []Card{card(Ace), card(King)}, 21, true},
		{"ace demoted", []Card{card(Ace), card(Six), card(Nine)}, 16, false},
		{"two aces", []Card{card(Ace), card(Ace)}, 12, true},
		{"bust", []Card{card(Queen), card(Five), card(Nine)}, 24, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, soft := HandValue(tt.cards)
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.soft, soft)
		})
	}
}

func TestDeck(t *testing.T) {
	t.Run("full shoe", func(t *testing.T) {
		deck := NewDeck(2, NewRand())
		assert.Equal(t, 104, deck.Remaining())

		seen := make(map[Card]int)
		for range 104 {
			seen[deck.Draw()]++
		}
		assert.Len(t, seen, 52)
		for c, n := range seen {
			assert.Equal(t, 2, n, c.String())
		}
	})

	t.Run("stacked then refilled", func(t *testing.T) {
		deck := NewStackedDeck(NewRand(), card(Ace), card(Two))
		assert.Equal(t, card(Ace), deck.Draw())
		assert.Equal(t, card(Two), deck.Draw())
		assert.Equal(t, 0, deck.Remaining())

		deck.Draw()
		assert.Equal(t, 51, deck.Remaining())
	})
}

func TestFormatCards(t *testing.T) {
	assert.Equal(t, "A♠ 10♥", FormatCards([]Card{card(Ace), {Rank: Ten, Suit: Hearts}}))
}
