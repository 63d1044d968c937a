package game

import (
	"github.com/parlourlabs/holdem/poker"
)

// Status is a player's lifecycle state within a table.
type Status int

const (
	StatusSeated Status = iota // seated, waiting for a hand
	StatusActive               // in the current hand and able to act
	StatusFolded
	StatusAllIn
	StatusSittingOut
	StatusDisconnected
)

func (s Status) String() string {
	return [...]string{"seated", "active", "folded", "all-in", "sitting-out", "disconnected"}[s]
}

// Player is one seat's state. Seat indices are stable for the life of the
// table; players reference their seat rather than back-pointers to the
// table or room.
type Player struct {
	Seat      int
	Name      string
	AI        bool
	Connected bool // transport link alive; AI seats are always connected
	Chips     int
	HoleCards []poker.Card
	Status    Status

	Bet      int // contributed this betting street
	TotalBet int // contributed this hand
}

// CanAct reports whether the player may still receive the turn this hand.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive && p.Chips > 0
}

// InHand reports whether the player still contests the pot.
func (p *Player) InHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// ResetForHand clears per-hand state for a player entering a new hand.
func (p *Player) ResetForHand() {
	p.HoleCards = nil
	p.Bet = 0
	p.TotalBet = 0
	if p.Status != StatusSittingOut && p.Status != StatusDisconnected {
		p.Status = StatusActive
	}
}
