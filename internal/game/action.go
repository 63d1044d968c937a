package game

import (
	"fmt"
	"time"
)

// ActionKind is the vocabulary accepted from a session.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
)

func (a ActionKind) String() string {
	return [...]string{"fold", "check", "call", "bet"}[a]
}

// Action is a requested player action. Amount is the total street bet for
// Bet ("raise to"); it is ignored for the other kinds.
type Action struct {
	Kind      ActionKind
	Amount    int
	Timestamp time.Time
}

// LegalAction describes one legal action with its amount bounds, as exposed
// to sessions and to the AI advisor.
type LegalAction struct {
	Kind ActionKind
	Min  int // Bet only: minimum total street bet
	Max  int // Bet only: maximum total street bet (all-in)
}

// RejectedActionError explains why an action was refused. The caller may
// retry with a corrected action within the same turn.
type RejectedActionError struct {
	Seat   int
	Reason string
}

func (e *RejectedActionError) Error() string {
	return fmt.Sprintf("action rejected for seat %d: %s", e.Seat, e.Reason)
}

func reject(seat int, format string, args ...any) error {
	return &RejectedActionError{Seat: seat, Reason: fmt.Sprintf(format, args...)}
}
