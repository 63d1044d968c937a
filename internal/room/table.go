package room

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/parlourlabs/holdem/internal/game"
)

// Table is a concrete seating of players around one hand engine. It
// persists across hands; the hand is created per round and torn down on
// settlement.
type Table struct {
	MaxSeats  int
	ForcedBet int
	Button    int

	seats   []*game.Player // nil means empty seat
	hand    *game.HandState
	handNum int
	rng     *rand.Rand
	logger  *log.Logger
}

// NewTable creates an empty table.
func NewTable(maxSeats, forcedBet int, rng *rand.Rand, logger *log.Logger) *Table {
	return &Table{
		MaxSeats:  maxSeats,
		ForcedBet: forcedBet,
		Button:    -1,
		seats:     make([]*game.Player, maxSeats),
		rng:       rng,
		logger:    logger.WithPrefix("table"),
	}
}

// Seat claims the first free seat for an identity. Rejected if the identity
// is already seated or the table is full.
func (t *Table) Seat(name string, isAI bool, chips int) (*game.Player, error) {
	for _, p := range t.seats {
		if p != nil && p.Name == name {
			return nil, fmt.Errorf("%s is already seated at seat %d", name, p.Seat)
		}
	}

	for i, p := range t.seats {
		if p == nil {
			player := &game.Player{
				Seat:      i,
				Name:      name,
				AI:        isAI,
				Connected: true,
				Chips:     chips,
				Status:    game.StatusSeated,
			}
			t.seats[i] = player
			return player, nil
		}
	}

	return nil, fmt.Errorf("table is full (%d seats)", t.MaxSeats)
}

// Leave frees a seat. A player in a live hand is folded out first so the
// hand can complete.
func (t *Table) Leave(name string) error {
	p := t.PlayerNamed(name)
	if p == nil {
		return fmt.Errorf("%s is not seated", name)
	}
	if t.HandInProgress() && p.InHand() {
		return fmt.Errorf("%s is in a hand; disconnect or fold first", name)
	}
	t.seats[p.Seat] = nil
	return nil
}

// PlayerAt returns the player in a seat, or nil.
func (t *Table) PlayerAt(seat int) *game.Player {
	if seat < 0 || seat >= len(t.seats) {
		return nil
	}
	return t.seats[seat]
}

// PlayerNamed finds a seated player by identity.
func (t *Table) PlayerNamed(name string) *game.Player {
	for _, p := range t.seats {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// Players returns all seated players in seat order.
func (t *Table) Players() []*game.Player {
	out := make([]*game.Player, 0, len(t.seats))
	for _, p := range t.seats {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Hand returns the current hand, which may be settled.
func (t *Table) Hand() *game.HandState {
	return t.hand
}

// HandInProgress reports whether a hand is running and not yet settled.
func (t *Table) HandInProgress() bool {
	return t.hand != nil && t.hand.Result() == nil
}

// eligible returns players able to join a new hand.
func (t *Table) eligible() []*game.Player {
	var out []*game.Player
	for _, p := range t.seats {
		if p == nil || p.Chips <= 0 {
			continue
		}
		if p.Status == game.StatusSittingOut || p.Status == game.StatusDisconnected {
			continue
		}
		if !p.AI && !p.Connected {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CanStart reports whether a new hand may begin: at least two eligible
// players, at least one of them a connected human.
func (t *Table) CanStart() error {
	eligible := t.eligible()
	if len(eligible) < 2 {
		return fmt.Errorf("need at least 2 players with chips, have %d", len(eligible))
	}
	humans := 0
	for _, p := range eligible {
		if !p.AI {
			humans++
		}
	}
	if humans == 0 {
		return fmt.Errorf("need at least one connected human player")
	}
	return nil
}

// StartHand begins a new hand: the button advances to the next eligible
// seat and a fresh deck is dealt.
func (t *Table) StartHand(sink game.Sink) (*game.HandState, error) {
	if t.HandInProgress() {
		return nil, fmt.Errorf("hand %d already in progress", t.handNum)
	}
	if err := t.CanStart(); err != nil {
		return nil, err
	}

	players := t.eligible()
	t.Button = t.nextEligibleSeat(t.Button+1, players)
	t.handNum++

	hand, err := game.NewHand(game.HandConfig{
		ID:        uuid.NewString(),
		Players:   players,
		NumSeats:  t.MaxSeats,
		Button:    t.Button,
		ForcedBet: t.ForcedBet,
		RNG:       t.rng,
		Sink:      sink,
		Logger:    t.logger,
	})
	if err != nil {
		return nil, err
	}

	t.hand = hand
	t.logger.Info("hand started", "hand", t.handNum, "button", t.Button, "players", len(players))
	return hand, nil
}

// SweepAfterHand updates lifecycle states between hands: disconnected
// humans stop being dealt in, busted players sit out.
func (t *Table) SweepAfterHand() {
	for _, p := range t.seats {
		if p == nil {
			continue
		}
		if !p.AI && !p.Connected {
			p.Status = game.StatusDisconnected
			continue
		}
		if p.Chips <= 0 {
			p.Status = game.StatusSittingOut
			continue
		}
		if p.Status == game.StatusFolded || p.Status == game.StatusAllIn || p.Status == game.StatusActive {
			p.Status = game.StatusSeated
		}
	}
}

func (t *Table) nextEligibleSeat(from int, eligible []*game.Player) int {
	member := make(map[int]bool, len(eligible))
	for _, p := range eligible {
		member[p.Seat] = true
	}
	for i := 0; i < t.MaxSeats; i++ {
		seat := ((from + i) % t.MaxSeats + t.MaxSeats) % t.MaxSeats
		if member[seat] {
			return seat
		}
	}
	return 0
}
