package room

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/parlourlabs/holdem/internal/game"
)

func newTestTable(t *testing.T, seats int) *Table {
	t.Helper()
	return NewTable(seats, 5, rand.New(rand.NewSource(1)), log.New(io.Discard))
}

func TestTable_SeatRejectsDuplicateIdentity(t *testing.T) {
	table := newTestTable(t, 4)

	if _, err := table.Seat("alice", false, 200); err != nil {
		t.Fatalf("first seat: %v", err)
	}
	if _, err := table.Seat("alice", false, 200); err == nil {
		t.Error("seating the same identity twice should fail")
	}
}

func TestTable_SeatRejectsWhenFull(t *testing.T) {
	table := newTestTable(t, 2)

	table.Seat("a", false, 200)
	table.Seat("b", false, 200)
	if _, err := table.Seat("c", false, 200); err == nil {
		t.Error("seating past capacity should fail")
	}
}

func TestTable_CanStartNeedsHumanAndTwoStacks(t *testing.T) {
	table := newTestTable(t, 4)

	table.Seat("bot1", true, 200)
	table.Seat("bot2", true, 200)
	if err := table.CanStart(); err == nil {
		t.Error("bots alone should not start a hand")
	}

	p, _ := table.Seat("alice", false, 200)
	if err := table.CanStart(); err != nil {
		t.Errorf("human plus bots should start: %v", err)
	}

	p.Connected = false
	if err := table.CanStart(); err == nil {
		t.Error("disconnected human does not count")
	}
}

func TestTable_LeaveRefusedMidHand(t *testing.T) {
	table := newTestTable(t, 4)
	table.Seat("alice", false, 200)
	table.Seat("bot", true, 200)

	if _, err := table.StartHand(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := table.Leave("alice"); err == nil {
		t.Error("a player in a live hand cannot leave")
	}
}

func TestTable_ButtonAdvancesEachHand(t *testing.T) {
	table := newTestTable(t, 3)
	table.Seat("alice", false, 200)
	table.Seat("bob", false, 200)
	table.Seat("carol", false, 200)

	hand, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first := table.Button

	// Fold the hand down so the next one can start.
	for hand.Result() == nil {
		seat := hand.TurnSeat()
		if err := hand.Apply(seat, hand.DefaultAction(seat)); err != nil {
			t.Fatalf("fold out: %v", err)
		}
	}
	table.SweepAfterHand()

	if _, err := table.StartHand(nil); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if table.Button == first {
		t.Errorf("button stayed at %d across hands", first)
	}
}

func TestTable_SweepParksBustedAndDisconnected(t *testing.T) {
	table := newTestTable(t, 4)
	busted, _ := table.Seat("busted", false, 200)
	gone, _ := table.Seat("gone", false, 200)
	ok, _ := table.Seat("ok", false, 200)

	busted.Chips = 0
	busted.Status = game.StatusFolded
	gone.Connected = false
	ok.Status = game.StatusActive

	table.SweepAfterHand()

	if busted.Status != game.StatusSittingOut {
		t.Errorf("busted player status = %s, want sitting-out", busted.Status)
	}
	if gone.Status != game.StatusDisconnected {
		t.Errorf("disconnected player status = %s, want disconnected", gone.Status)
	}
	if ok.Status != game.StatusSeated {
		t.Errorf("surviving player status = %s, want seated", ok.Status)
	}
}
