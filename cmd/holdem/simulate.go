package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/parlourlabs/holdem/internal/ai"
	"github.com/parlourlabs/holdem/internal/game"
)

// SimulateCmd drives AI-only hands directly against the hand engine and
// verifies that chips are conserved across every settlement.
type SimulateCmd struct {
	Hands     int    `kong:"default='100',help='Number of hands to simulate'"`
	Players   int    `kong:"default='4',help='Number of AI players'"`
	Chips     int    `kong:"default='200',help='Starting chip count per player'"`
	ForcedBet int    `kong:"default='5',help='Forced bet posted each hand'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	if c.Players < 2 {
		return fmt.Errorf("need at least 2 players")
	}

	logger := setupLogger(c.Debug, "info")

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	advisor := ai.NewHeuristic(rng, 0.5)

	players := make([]*game.Player, c.Players)
	for i := range players {
		players[i] = &game.Player{
			Seat:      i,
			Name:      fmt.Sprintf("bot-%d", i+1),
			AI:        true,
			Connected: true,
			Chips:     c.Chips,
			Status:    game.StatusSeated,
		}
	}
	totalChips := c.Players * c.Chips

	button := -1
	played, aborted := 0, 0
	for h := 0; h < c.Hands; h++ {
		var inHand []*game.Player
		for _, p := range players {
			if p.Chips > 0 {
				inHand = append(inHand, p)
			}
		}
		if len(inHand) < 2 {
			logger.Info("simulation ended early, one player holds everything", "hands", played)
			break
		}

		button = nextSeatWithChips(players, button+1)
		hand, err := game.NewHand(game.HandConfig{
			ID:        uuid.NewString(),
			Players:   inHand,
			NumSeats:  c.Players,
			Button:    button,
			ForcedBet: c.ForcedBet,
			RNG:       rng,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("hand %d: %w", h+1, err)
		}

		for hand.Result() == nil {
			seat := hand.TurnSeat()
			if seat == -1 {
				return fmt.Errorf("hand %d: no turn holder while unsettled", h+1)
			}
			p := playerAt(inHand, seat)
			toCall := hand.Betting.CurrentBet - p.Bet
			if toCall < 0 {
				toCall = 0
			}
			resp, _ := advisor.Advise(context.Background(), ai.Request{
				Phase:  hand.Phase,
				Board:  hand.Board,
				Hole:   p.HoleCards,
				Legal:  hand.LegalActions(),
				Pot:    hand.Pots.Total(),
				ToCall: toCall,
			})
			act := ai.Coerce(hand.LegalActions(), resp)
			if err := hand.Apply(seat, act); err != nil {
				return fmt.Errorf("hand %d seat %d: %w", h+1, seat, err)
			}
		}

		res := hand.Result()
		if res.Aborted {
			aborted++
		}
		played++

		sum := 0
		for _, p := range players {
			sum += p.Chips
		}
		if sum != totalChips {
			return fmt.Errorf("hand %d (%s): chip conservation broken, have %d want %d",
				h+1, res.HandID, sum, totalChips)
		}
	}

	fmt.Printf("simulated %d hands (seed %d), %d aborted\n", played, seed, aborted)
	for _, p := range players {
		fmt.Printf("  %-8s %6d chips (%+d)\n", p.Name, p.Chips, p.Chips-c.Chips)
	}
	fmt.Printf("chip conservation held: %d chips throughout\n", totalChips)
	return nil
}

func nextSeatWithChips(players []*game.Player, from int) int {
	n := len(players)
	for i := 0; i < n; i++ {
		seat := ((from + i) % n + n) % n
		if players[seat].Chips > 0 {
			return seat
		}
	}
	return 0
}

func playerAt(players []*game.Player, seat int) *game.Player {
	for _, p := range players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}
