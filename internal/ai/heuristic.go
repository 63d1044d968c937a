package ai

import (
	"context"
	"math/rand"
	"sync"

	"github.com/parlourlabs/holdem/internal/game"
	"github.com/parlourlabs/holdem/poker"
)

// strength buckets a hand's relative strength.
type strength int

const (
	veryWeak strength = iota
	weak
	medium
	strong
	veryStrong
)

// Heuristic is a rule-based advisor: preflop hole-card tiers, postflop
// made-hand strength against pot odds. Aggression scales bet frequency and
// sizing, 0..1. Advise is safe for concurrent use.
type Heuristic struct {
	mu         sync.Mutex
	rng        *rand.Rand
	Aggression float64
}

// NewHeuristic creates a heuristic advisor. It owns the given RNG; no
// other user may draw from it.
func NewHeuristic(rng *rand.Rand, aggression float64) *Heuristic {
	return &Heuristic{rng: rng, Aggression: aggression}
}

func (h *Heuristic) random() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

// Advise implements Advisor. It never fails and ignores the context: the
// decision is immediate.
func (h *Heuristic) Advise(_ context.Context, req Request) (Response, error) {
	str := h.evaluateStrength(req)

	betAction, canBet := findLegal(req.Legal, game.Bet)
	_, canCheck := findLegal(req.Legal, game.Check)
	_, canCall := findLegal(req.Legal, game.Call)

	switch str {
	case veryStrong:
		if canBet {
			size := betAction.Min + int(float64(betAction.Max-betAction.Min)*h.Aggression*h.random())
			return Response{Kind: game.Bet, Amount: size}, nil
		}
		if canCall {
			return Response{Kind: game.Call}, nil
		}
		return Response{Kind: game.Check}, nil

	case strong:
		if canBet && h.random() < 0.4+0.4*h.Aggression {
			return Response{Kind: game.Bet, Amount: betAction.Min}, nil
		}
		if canCall {
			return Response{Kind: game.Call}, nil
		}
		return Response{Kind: game.Check}, nil

	case medium:
		if canCheck {
			return Response{Kind: game.Check}, nil
		}
		if canCall && h.goodPotOdds(req) {
			return Response{Kind: game.Call}, nil
		}
		return Response{Kind: game.Fold}, nil

	default:
		if canCheck {
			return Response{Kind: game.Check}, nil
		}
		// Occasionally peel one cheap street with a weak hand.
		if canCall && str == weak && h.goodPotOdds(req) && h.random() < 0.25 {
			return Response{Kind: game.Call}, nil
		}
		return Response{Kind: game.Fold}, nil
	}
}

// goodPotOdds reports whether the call price is small relative to the pot.
func (h *Heuristic) goodPotOdds(req Request) bool {
	if req.ToCall <= 0 {
		return true
	}
	return float64(req.ToCall)/float64(req.Pot+req.ToCall) < 0.25
}

func (h *Heuristic) evaluateStrength(req Request) strength {
	if len(req.Hole) != 2 {
		return veryWeak
	}
	if req.Phase == game.Preflop || len(req.Board) < 3 {
		return preflopStrength(req.Hole[0], req.Hole[1])
	}
	return postflopStrength(req.Hole, req.Board)
}

// preflopStrength tiers hole cards: pairs by rank, then high/suited combos.
func preflopStrength(a, b poker.Card) strength {
	hi, lo := a.Rank, b.Rank
	if lo > hi {
		hi, lo = lo, hi
	}
	suited := a.Suit == b.Suit

	if a.Rank == b.Rank {
		switch {
		case a.Rank >= poker.Jack:
			return veryStrong
		case a.Rank >= poker.Nine:
			return strong
		case a.Rank >= poker.Six:
			return medium
		default:
			return weak
		}
	}

	if hi == poker.Ace && lo >= poker.King {
		return veryStrong
	}
	if hi >= poker.King && lo >= poker.Jack {
		if suited {
			return strong
		}
		return medium
	}
	if hi == poker.Ace && lo >= poker.Ten {
		return strong
	}
	if suited && hi-lo <= 2 && lo >= poker.Six {
		return medium
	}
	if suited || hi >= poker.Queen {
		return weak
	}
	return veryWeak
}

// postflopStrength buckets the best made hand using the shared evaluator.
func postflopStrength(hole, board []poker.Card) strength {
	v, err := poker.Evaluate(append(append([]poker.Card{}, hole...), board...))
	if err != nil {
		return veryWeak
	}

	switch {
	case v.Category >= poker.Straight:
		return veryStrong
	case v.Category >= poker.TwoPair:
		return strong
	case v.Category == poker.Pair:
		// Top pair or better plays on; low pairs are marginal.
		if v.Ranks[0] >= poker.Ten {
			return medium
		}
		return weak
	default:
		return veryWeak
	}
}

func findLegal(legal []game.LegalAction, kind game.ActionKind) (game.LegalAction, bool) {
	for _, la := range legal {
		if la.Kind == kind {
			return la, true
		}
	}
	return game.LegalAction{}, false
}
