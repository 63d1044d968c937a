package game

import (
	"time"

	"github.com/parlourlabs/holdem/poker"
)

// EventType tags game domain events.
type EventType string

const (
	EventTypeHandStart    EventType = "hand_start"
	EventTypePhaseChange  EventType = "phase_change"
	EventTypePlayerAction EventType = "player_action"
	EventTypeHandSettled  EventType = "hand_settled"
	EventTypeHandAborted  EventType = "hand_aborted"
)

// Event is anything that occurs during a hand worth broadcasting.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// Sink receives events as they are emitted. A nil sink is legal.
type Sink func(Event)

func (h *HandState) emit(e Event) {
	if h.sink != nil {
		h.sink(e)
	}
}

// HandStartEvent is emitted when a new hand begins.
type HandStartEvent struct {
	HandID    string
	Button    int
	Poster    int
	ForcedBet int
	Seats     []int
	ts        time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.ts }

// PhaseChangeEvent is emitted when the hand advances a phase.
type PhaseChangeEvent struct {
	Phase Phase
	Board []poker.Card
	ts    time.Time
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.ts }

// PlayerActionEvent is emitted after an action is applied. Synthetic marks
// scheduler-generated fold/check actions.
type PlayerActionEvent struct {
	Seat      int
	Kind      ActionKind
	Amount    int
	Synthetic bool
	PotTotal  int
	NextTurn  int
	ts        time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.ts }

// HandSettledEvent carries final payouts. Deltas are stack changes versus
// the start of the hand, emitted exactly once per seat, and are the input
// to the ledger collaborator.
type HandSettledEvent struct {
	HandID  string
	Payouts map[int]int
	Deltas  map[int]int
	Reveal  map[int][]poker.Card
	ts      time.Time
}

func (e HandSettledEvent) EventType() EventType { return EventTypeHandSettled }
func (e HandSettledEvent) Timestamp() time.Time { return e.ts }

// HandAbortedEvent is emitted when an invariant check fails and the hand's
// contributions are returned instead of paid out.
type HandAbortedEvent struct {
	HandID  string
	Reason  string
	Refunds map[int]int
	ts      time.Time
}

func (e HandAbortedEvent) EventType() EventType { return EventTypeHandAborted }
func (e HandAbortedEvent) Timestamp() time.Time { return e.ts }
