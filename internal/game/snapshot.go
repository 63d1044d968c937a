package game

import (
	"github.com/parlourlabs/holdem/poker"
)

// SeatView is one seat's publicly visible state plus, for the observer's
// own seat (or at showdown with the reveal flag), hole cards.
type SeatView struct {
	Seat         int          `json:"seat"`
	Name         string       `json:"name"`
	AI           bool         `json:"ai"`
	Connected    bool         `json:"connected"`
	Chips        int          `json:"chips"`
	Status       string       `json:"status"`
	Bet          int          `json:"bet"`
	TotalBet     int          `json:"total_bet"`
	HoleCards    []poker.Card `json:"hole_cards,omitempty"`
	HasHoleCards bool         `json:"has_hole_cards"`
}

// Snapshot is the state broadcast to a specific observer after every
// applied action.
type Snapshot struct {
	Phase   string       `json:"phase"`
	Board   []poker.Card `json:"board"`
	Pots    []Pot        `json:"pots"`
	PotSize int          `json:"pot_size"`
	ToCall  int          `json:"to_call"`
	Turn    int          `json:"turn"` // seat holding the turn, -1 if none
	Seats   []SeatView   `json:"seats"`
	History []string     `json:"history,omitempty"`
}

// SnapshotFor builds an observer-specific snapshot of a hand in progress.
// Hole cards are visible only for observerSeat unless reveal is set, which
// the room sets once the hand reaches showdown.
func (h *HandState) SnapshotFor(observerSeat int, reveal bool) Snapshot {
	snap := Snapshot{
		Phase:   h.Phase.String(),
		Board:   h.boardCopy(),
		Pots:    h.Pots.Build(h.Players),
		PotSize: h.Pots.Total(),
		Turn:    h.turn,
		History: append([]string{}, h.history...),
	}

	if h.turn != -1 {
		if p := h.playerAt(h.turn); p != nil {
			snap.ToCall = h.Betting.CurrentBet - p.Bet
		}
	}

	for _, p := range h.Players {
		view := SeatView{
			Seat:         p.Seat,
			Name:         p.Name,
			AI:           p.AI,
			Connected:    p.Connected,
			Chips:        p.Chips,
			Status:       p.Status.String(),
			Bet:          p.Bet,
			TotalBet:     p.TotalBet,
			HasHoleCards: len(p.HoleCards) > 0,
		}
		if p.Seat == observerSeat || (reveal && p.InHand()) {
			view.HoleCards = append([]poker.Card{}, p.HoleCards...)
		}
		snap.Seats = append(snap.Seats, view)
	}

	return snap
}
