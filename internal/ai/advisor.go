// Package ai defines the decision contract for AI-seated players and a
// heuristic strategy used standalone or as the fallback when an external
// advisor fails or overruns its time budget.
package ai

import (
	"context"
	"time"

	"github.com/parlourlabs/holdem/internal/game"
	"github.com/parlourlabs/holdem/poker"
)

// Request is everything an advisor may see when asked for a decision.
type Request struct {
	Phase  game.Phase
	Board  []poker.Card
	Hole   []poker.Card
	Legal  []game.LegalAction
	Pot    int
	ToCall int
	Budget time.Duration
}

// Response is an advisor's proposed action. It is coerced, not trusted.
type Response struct {
	Kind   game.ActionKind
	Amount int
}

// Advisor produces a decision for an AI-seated turn. Implementations may be
// slow or fail; the room time-boxes the call and discards late results.
type Advisor interface {
	Advise(ctx context.Context, req Request) (Response, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, req Request) (Response, error)

func (f AdvisorFunc) Advise(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Coerce maps a possibly malformed or out-of-bound response onto the
// nearest legal action rather than rejecting it: an illegal check becomes a
// fold, an out-of-range bet is clamped, anything unrecognizable becomes
// check when free and fold otherwise.
func Coerce(legal []game.LegalAction, resp Response) game.Action {
	find := func(kind game.ActionKind) (game.LegalAction, bool) {
		for _, la := range legal {
			if la.Kind == kind {
				return la, true
			}
		}
		return game.LegalAction{}, false
	}

	switch resp.Kind {
	case game.Fold:
		return game.Action{Kind: game.Fold, Timestamp: time.Now()}

	case game.Check:
		if _, ok := find(game.Check); ok {
			return game.Action{Kind: game.Check, Timestamp: time.Now()}
		}
		return game.Action{Kind: game.Fold, Timestamp: time.Now()}

	case game.Call:
		if _, ok := find(game.Call); ok {
			return game.Action{Kind: game.Call, Timestamp: time.Now()}
		}
		return game.Action{Kind: game.Check, Timestamp: time.Now()}

	case game.Bet:
		la, ok := find(game.Bet)
		if !ok {
			// Cannot bet; settle for call, then check, then fold.
			if _, ok := find(game.Call); ok {
				return game.Action{Kind: game.Call, Timestamp: time.Now()}
			}
			if _, ok := find(game.Check); ok {
				return game.Action{Kind: game.Check, Timestamp: time.Now()}
			}
			return game.Action{Kind: game.Fold, Timestamp: time.Now()}
		}
		amount := resp.Amount
		if amount < la.Min {
			amount = la.Min
		}
		if amount > la.Max {
			amount = la.Max
		}
		return game.Action{Kind: game.Bet, Amount: amount, Timestamp: time.Now()}
	}

	if _, ok := find(game.Check); ok {
		return game.Action{Kind: game.Check, Timestamp: time.Now()}
	}
	return game.Action{Kind: game.Fold, Timestamp: time.Now()}
}
