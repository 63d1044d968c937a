package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/parlourlabs/holdem/poker"
)

func testPlayers(chips ...int) []*Player {
	players := make([]*Player, len(chips))
	for i, c := range chips {
		players[i] = &Player{
			Seat:      i,
			Name:      fmt.Sprintf("p%d", i),
			Connected: true,
			Chips:     c,
			Status:    StatusSeated,
		}
	}
	return players
}

func mustHand(t *testing.T, players []*Player, button int, deck *poker.Deck, sink Sink) *HandState {
	t.Helper()
	h, err := NewHand(HandConfig{
		ID:        "test-hand",
		Players:   players,
		NumSeats:  len(players),
		Button:    button,
		ForcedBet: 5,
		Deck:      deck,
		RNG:       rand.New(rand.NewSource(1)),
		Sink:      sink,
	})
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	return h
}

func mustApply(t *testing.T, h *HandState, seat int, act Action) {
	t.Helper()
	if err := h.Apply(seat, act); err != nil {
		t.Fatalf("apply seat %d %v: %v", seat, act.Kind, err)
	}
}

// stackDeck lays out hole cards per player in seat order, then the board.
func stackDeck(holes []string, board string) *poker.Deck {
	var cards []poker.Card
	for _, h := range holes {
		cards = append(cards, poker.MustParseCards(h)...)
	}
	cards = append(cards, poker.MustParseCards(board)...)
	return poker.NewStackedDeck(cards)
}

func TestNewHand_PostsForcedBetAndSetsTurn(t *testing.T) {
	players := testPlayers(100, 100, 100)
	h := mustHand(t, players, 0, nil, nil)

	if h.Poster != 1 {
		t.Errorf("poster = %d, want seat 1 (left of button)", h.Poster)
	}
	if players[1].Bet != 5 || players[1].Chips != 95 {
		t.Errorf("poster bet=%d chips=%d, want 5/95", players[1].Bet, players[1].Chips)
	}
	if h.Pots.Total() != 5 {
		t.Errorf("pot = %d, want 5", h.Pots.Total())
	}
	if h.TurnSeat() != 2 {
		t.Errorf("turn = %d, want seat 2 (left of poster)", h.TurnSeat())
	}
	for _, p := range players {
		if len(p.HoleCards) != 2 {
			t.Errorf("seat %d has %d hole cards, want 2", p.Seat, len(p.HoleCards))
		}
	}
}

func TestApply_OutOfTurnRejected(t *testing.T) {
	players := testPlayers(100, 100, 100)
	h := mustHand(t, players, 0, nil, nil)

	if err := h.Apply(0, Action{Kind: Fold}); err == nil {
		t.Fatal("out-of-turn action should be rejected")
	}
	if h.TurnSeat() != 2 {
		t.Errorf("rejection moved the turn to %d", h.TurnSeat())
	}
	if players[0].Status != StatusActive {
		t.Errorf("rejection mutated seat 0 status to %s", players[0].Status)
	}
}

func TestApply_RejectionsLeaveHandIntact(t *testing.T) {
	players := testPlayers(100, 100, 100)
	h := mustHand(t, players, 0, nil, nil)

	cases := []struct {
		name string
		act  Action
	}{
		{"check facing a bet", Action{Kind: Check}},
		{"raise below minimum", Action{Kind: Bet, Amount: 8}},
		{"bet above stack", Action{Kind: Bet, Amount: 500}},
		{"unknown kind", Action{Kind: ActionKind(99)}},
	}
	for _, tc := range cases {
		if err := h.Apply(2, tc.act); err == nil {
			t.Errorf("%s: expected rejection", tc.name)
		}
		if h.TurnSeat() != 2 || h.Pots.Total() != 5 {
			t.Fatalf("%s: rejection mutated hand (turn=%d pot=%d)", tc.name, h.TurnSeat(), h.Pots.Total())
		}
	}
}

func TestHand_FoldsShortCircuitToWin(t *testing.T) {
	players := testPlayers(100, 100, 100)
	h := mustHand(t, players, 0, nil, nil)

	mustApply(t, h, 2, Action{Kind: Fold})
	mustApply(t, h, 0, Action{Kind: Fold})

	res := h.Result()
	if res == nil {
		t.Fatal("hand should settle when one contender remains")
	}
	if h.Phase != Settled {
		t.Errorf("phase = %s, want settled", h.Phase)
	}
	if res.Payouts[1] != 5 {
		t.Errorf("payouts = %v, want poster to recover 5", res.Payouts)
	}
	if players[1].Chips != 100 {
		t.Errorf("poster chips = %d, want 100", players[1].Chips)
	}
	// No showdown happened, so the board stays as dealt and nothing more.
	if len(h.Board) != 0 {
		t.Errorf("board has %d cards after a preflop fold-out", len(h.Board))
	}
}

func TestHand_ShowdownBestHandWins(t *testing.T) {
	deck := stackDeck([]string{"As Ah", "Kd Kh"}, "2c 7d 9h 3s 5c")
	players := testPlayers(100, 100)

	var events []Event
	h := mustHand(t, players, 0, deck, func(e Event) { events = append(events, e) })

	// Button seat 0 acts first; seat 1 posted and keeps the option.
	mustApply(t, h, 0, Action{Kind: Call})
	mustApply(t, h, 1, Action{Kind: Check})
	for street := 0; street < 3; street++ {
		mustApply(t, h, 1, Action{Kind: Check})
		mustApply(t, h, 0, Action{Kind: Check})
	}

	res := h.Result()
	if res == nil {
		t.Fatal("hand should be settled after the river checks through")
	}
	if players[0].Chips != 105 || players[1].Chips != 95 {
		t.Errorf("chips = %d/%d, want 105/95 (aces beat kings)", players[0].Chips, players[1].Chips)
	}
	if res.Deltas[0] != 5 || res.Deltas[1] != -5 {
		t.Errorf("deltas = %v, want +5/-5", res.Deltas)
	}

	last := events[len(events)-1]
	settled, ok := last.(HandSettledEvent)
	if !ok {
		t.Fatalf("last event = %T, want HandSettledEvent", last)
	}
	if len(settled.Reveal) != 2 {
		t.Errorf("showdown should reveal both hands, revealed %d", len(settled.Reveal))
	}
}

func TestHand_SplitPotOddChipGoesClockwiseFromPoster(t *testing.T) {
	// The board plays for both remaining hands; an A-high straight on
	// board splits the 35-chip pot 17/17 with one chip left over for the
	// first winner clockwise after the poster.
	deck := stackDeck([]string{"7c 8c", "2h 3h", "2d 3d"}, "Ah Kd Qc Js Ts")
	players := testPlayers(100, 100, 100)
	h := mustHand(t, players, 0, deck, nil)

	mustApply(t, h, 2, Action{Kind: Call})
	mustApply(t, h, 0, Action{Kind: Call})
	mustApply(t, h, 1, Action{Kind: Check})
	// Flop: seat 1 bets, seat 2 calls, seat 0 folds.
	mustApply(t, h, 1, Action{Kind: Bet, Amount: 10})
	mustApply(t, h, 2, Action{Kind: Call})
	mustApply(t, h, 0, Action{Kind: Fold})
	for street := 0; street < 2; street++ {
		mustApply(t, h, 1, Action{Kind: Check})
		mustApply(t, h, 2, Action{Kind: Check})
	}

	res := h.Result()
	if res == nil {
		t.Fatal("hand should be settled")
	}
	if res.Payouts[1] != 17 || res.Payouts[2] != 18 {
		t.Errorf("payouts = %v, want 17/18 with the odd chip at seat 2", res.Payouts)
	}
	if players[0].Chips != 95 || players[1].Chips != 102 || players[2].Chips != 103 {
		t.Errorf("chips = %d/%d/%d, want 95/102/103",
			players[0].Chips, players[1].Chips, players[2].Chips)
	}
}

func TestHand_AllInRunsBoardOut(t *testing.T) {
	deck := stackDeck([]string{"As Ah", "Kd Kh"}, "2c 7d 9h 3s 8c")
	players := testPlayers(50, 100)
	h := mustHand(t, players, 0, deck, nil)

	// Seat 0 shoves, seat 1 calls; nobody is left with a decision so the
	// remaining streets deal out in one step.
	mustApply(t, h, 0, Action{Kind: Bet, Amount: 50})
	mustApply(t, h, 1, Action{Kind: Call})

	res := h.Result()
	if res == nil {
		t.Fatal("hand should settle after the runout")
	}
	if len(h.Board) != 5 {
		t.Errorf("board = %d cards, want full runout of 5", len(h.Board))
	}
	if players[0].Chips != 100 || players[1].Chips != 50 {
		t.Errorf("chips = %d/%d, want 100/50", players[0].Chips, players[1].Chips)
	}
}

func TestHand_ShortPostBuildsSidePot(t *testing.T) {
	// The poster is all-in below the forced bet. The caller's excess goes
	// to a side pot only the caller can win.
	deck := stackDeck([]string{"2s 7d", "As Ah"}, "4c 9h Jd Qc 8h")
	players := testPlayers(100, 3)
	h := mustHand(t, players, 0, deck, nil)

	if players[1].Status != StatusAllIn {
		t.Fatalf("poster with 3 chips should be all-in after posting")
	}
	mustApply(t, h, 0, Action{Kind: Call})

	res := h.Result()
	if res == nil {
		t.Fatal("hand should run out and settle")
	}
	// Main pot 6 to the aces, side pot 2 back to seat 0.
	if res.Payouts[0] != 2 || res.Payouts[1] != 6 {
		t.Errorf("payouts = %v, want seat0=2 seat1=6", res.Payouts)
	}
	if players[0].Chips+players[1].Chips != 103 {
		t.Errorf("chips not conserved: %d + %d != 103", players[0].Chips, players[1].Chips)
	}
}

func TestHand_MinRaiseMatchesPreviousRaise(t *testing.T) {
	players := testPlayers(200, 200)
	h := mustHand(t, players, 0, nil, nil)

	// Raise of 10 over the forced bet sets the new minimum raise to 10.
	mustApply(t, h, 0, Action{Kind: Bet, Amount: 15})

	if err := h.Apply(1, Action{Kind: Bet, Amount: 20}); err == nil {
		t.Error("re-raise below the previous raise size should be rejected")
	}
	mustApply(t, h, 1, Action{Kind: Bet, Amount: 25})

	if h.Betting.CurrentBet != 25 {
		t.Errorf("current bet = %d, want 25", h.Betting.CurrentBet)
	}
}

func TestHand_ShortAllInDoesNotReopenBetting(t *testing.T) {
	players := testPlayers(500, 200, 33)
	h := mustHand(t, players, 0, nil, nil)

	// Seat 1 posts 5; seat 2 calls, seat 0 raises to 20 (min raise now 15),
	// seat 1 calls behind.
	mustApply(t, h, 2, Action{Kind: Call})
	mustApply(t, h, 0, Action{Kind: Bet, Amount: 20})
	mustApply(t, h, 1, Action{Kind: Call})

	// Seat 2 shoves 33 total, short of the full raise to 35. The bet to
	// match moves, but the seats that already acted get no new raise.
	mustApply(t, h, 2, Action{Kind: Bet, Amount: 33})
	if h.Betting.CurrentBet != 33 {
		t.Fatalf("current bet = %d, want 33", h.Betting.CurrentBet)
	}
	if h.TurnSeat() != 0 {
		t.Fatalf("turn = %d, want seat 0", h.TurnSeat())
	}

	var haveCall bool
	for _, a := range h.LegalActions() {
		switch a.Kind {
		case Bet:
			t.Errorf("seat 0 offered a bet after a non-reopening all-in: %+v", a)
		case Call:
			haveCall = true
		}
	}
	if !haveCall {
		t.Error("seat 0 should be offered the call")
	}

	if err := h.Apply(0, Action{Kind: Bet, Amount: 60}); err == nil {
		t.Fatal("re-raise after a non-reopening all-in should be rejected")
	}
	mustApply(t, h, 0, Action{Kind: Call})
	mustApply(t, h, 1, Action{Kind: Call})

	// Rights reset on the next street.
	if h.Phase != Flop {
		t.Fatalf("phase = %s, want flop", h.Phase)
	}
	if h.TurnSeat() != 1 {
		t.Fatalf("flop turn = %d, want seat 1", h.TurnSeat())
	}
	var flopBet bool
	for _, a := range h.LegalActions() {
		if a.Kind == Bet {
			flopBet = true
		}
	}
	if !flopBet {
		t.Error("new street should restore seat 1's right to bet")
	}
}

func TestDefaultAction_FoldFacingBetCheckOtherwise(t *testing.T) {
	players := testPlayers(100, 100)
	h := mustHand(t, players, 0, nil, nil)

	// Seat 0 faces the forced bet.
	if act := h.DefaultAction(0); act.Kind != Fold {
		t.Errorf("default facing a bet = %v, want fold", act.Kind)
	}

	mustApply(t, h, 0, Action{Kind: Call})
	mustApply(t, h, 1, Action{Kind: Check})

	// Flop, no bet yet.
	if act := h.DefaultAction(h.TurnSeat()); act.Kind != Check {
		t.Errorf("default with nothing to call = %v, want check", act.Kind)
	}
}

func TestApplySynthetic_MarksEvent(t *testing.T) {
	players := testPlayers(100, 100)
	var events []Event
	h := mustHand(t, players, 0, nil, func(e Event) { events = append(events, e) })

	if err := h.ApplySynthetic(0, h.DefaultAction(0)); err != nil {
		t.Fatalf("synthetic apply: %v", err)
	}

	found := false
	for _, e := range events {
		if pa, ok := e.(PlayerActionEvent); ok && pa.Synthetic {
			found = true
		}
	}
	if !found {
		t.Error("synthetic action should emit an event marked synthetic")
	}
}

func TestHand_DealsDistinctCards(t *testing.T) {
	players := testPlayers(100, 100)
	h := mustHand(t, players, 0, nil, nil)

	mustApply(t, h, 0, Action{Kind: Call})
	mustApply(t, h, 1, Action{Kind: Check})
	for street := 0; street < 3; street++ {
		mustApply(t, h, 1, Action{Kind: Check})
		mustApply(t, h, 0, Action{Kind: Check})
	}

	seen := map[poker.Card]bool{}
	record := func(cards []poker.Card) {
		for _, c := range cards {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	record(players[0].HoleCards)
	record(players[1].HoleCards)
	record(h.Board)
	if len(seen) != 9 {
		t.Errorf("expected 9 distinct cards in play, got %d", len(seen))
	}
}

func TestHand_ChipConservationUnderRandomPlay(t *testing.T) {
	// Drive whole hands with random legal actions and check that chips
	// never appear or vanish.
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		players := testPlayers(100, 100, 100, 100)
		total := 400
		h := mustHand(t, players, i%4, nil, nil)

		for h.Result() == nil {
			seat := h.TurnSeat()
			if seat == -1 {
				t.Fatal("no turn holder while hand is unsettled")
			}
			legal := h.LegalActions()
			choice := legal[rng.Intn(len(legal))]
			act := Action{Kind: choice.Kind}
			if choice.Kind == Bet {
				act.Amount = choice.Min + rng.Intn(choice.Max-choice.Min+1)
			}
			mustApply(t, h, seat, act)
		}

		sum := 0
		for _, p := range players {
			sum += p.Chips
		}
		if sum != total {
			t.Fatalf("hand %d: chips not conserved, have %d want %d", i, sum, total)
		}
		if h.Result().Aborted {
			t.Fatalf("hand %d aborted unexpectedly", i)
		}
	}
}

func TestSnapshot_MasksHoleCards(t *testing.T) {
	players := testPlayers(100, 100)
	h := mustHand(t, players, 0, nil, nil)

	snap := h.SnapshotFor(0, false)
	for _, v := range snap.Seats {
		if v.Seat == 0 && len(v.HoleCards) != 2 {
			t.Error("observer should see their own hole cards")
		}
		if v.Seat != 0 && len(v.HoleCards) != 0 {
			t.Error("observer must not see another seat's hole cards")
		}
		if !v.HasHoleCards {
			t.Errorf("seat %d should report holding cards", v.Seat)
		}
	}

	revealed := h.SnapshotFor(-1, true)
	for _, v := range revealed.Seats {
		if len(v.HoleCards) != 2 {
			t.Errorf("reveal snapshot should expose seat %d's cards", v.Seat)
		}
	}
}

func TestHand_RandomBetAmountsStayLegal(t *testing.T) {
	players := testPlayers(100, 100)
	h := mustHand(t, players, 0, nil, nil)

	legal := h.LegalActions()
	for _, la := range legal {
		if la.Kind != Bet {
			continue
		}
		if la.Min < h.Betting.CurrentBet+1 {
			t.Errorf("bet min %d does not exceed current bet %d", la.Min, h.Betting.CurrentBet)
		}
		if la.Max != players[0].Bet+players[0].Chips {
			t.Errorf("bet max %d != stack-bound %d", la.Max, players[0].Bet+players[0].Chips)
		}
	}
}
