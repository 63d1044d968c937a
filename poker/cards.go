// Package poker provides cards, decks and hand evaluation for Texas
// hold'em.
package poker

import (
	"fmt"
	"strings"
)

// Rank of a card, Two (2) through Ace (14).
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "23456789TJQKA"

func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string(rankChars[r-Two])
}

// Suit of a card.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const suitChars = "cdhs"

func (s Suit) String() string {
	if s > Spades {
		return "?"
	}
	return string(suitChars[s])
}

// Card is a single playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// String renders the card in compact notation, e.g. "As" or "Td".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// MarshalJSON emits the compact notation so snapshots stay readable.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses the compact notation.
func (c *Card) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseCard(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses compact notation like "As", "td" or "2c". Both characters
// are case-insensitive.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("card %q must be rank+suit, e.g. As", s)
	}

	ri := strings.IndexByte(rankChars, strings.ToUpper(s)[0])
	if ri < 0 {
		return Card{}, fmt.Errorf("bad rank %q in card %q", s[0], s)
	}
	si := strings.IndexByte(suitChars, strings.ToLower(s)[1])
	if si < 0 {
		return Card{}, fmt.Errorf("bad suit %q in card %q", s[1], s)
	}

	return Card{Rank: Rank(ri) + Two, Suit: Suit(si)}, nil
}

// MustParseCards parses a space-separated card list, panicking on error.
// For tests and fixtures.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, len(fields))
	for i, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards[i] = c
	}
	return cards
}
