package poker

import (
	"math/rand"
)

// Deck is a standard 52-card deck dealt without replacement.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck using the given RNG. Passing the RNG
// explicitly keeps shuffles deterministic under test.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}

	i := 0
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = Card{Rank: rank, Suit: suit}
			i++
		}
	}

	d.Shuffle()
	return d
}

// NewStackedDeck creates a deck that deals the given cards first, in order,
// with the rest of the pack behind them. No shuffle is applied; it exists to
// pin exact runouts in tests and simulations.
func NewStackedDeck(order []Card) *Deck {
	d := &Deck{}
	seen := make(map[Card]bool, len(order))
	i := 0
	for _, c := range order {
		d.cards[i] = c
		seen[c] = true
		i++
	}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			c := Card{Rank: rank, Suit: suit}
			if !seen[c] {
				d.cards[i] = c
				i++
			}
		}
	}
	return d
}

// Shuffle rewinds the deal cursor and reshuffles with Fisher-Yates.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards, or nil if fewer than n remain.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// Reset reshuffles the full deck for a new hand.
func (d *Deck) Reset() {
	d.Shuffle()
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
