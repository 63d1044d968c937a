package room

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, mockClock quartz.Clock) *Registry {
	t.Helper()
	cfg := Config{
		MaxSeats:    4,
		ForcedBet:   5,
		BuyIn:       200,
		TurnTimeout: time.Minute,
		TTL:         30 * time.Minute,
	}
	return NewRegistry(cfg, mockClock, nil, nil, rand.New(rand.NewSource(1)), log.New(io.Discard))
}

func TestRegistry_SeedsPermanentLobby(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))

	lobby, ok := g.Get(DefaultRoomCode)
	require.True(t, ok)
	require.Equal(t, time.Duration(0), lobby.TimeRemaining(), "lobby must never expire")
}

func TestRegistry_CreateAssignsShareCode(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))

	r, err := g.Create("friday game", "alice")
	require.NoError(t, err)
	require.Len(t, r.Code, 6)
	for _, c := range r.Code {
		require.Contains(t, codeAlphabet, string(c), "share codes avoid ambiguous characters")
	}

	got, ok := g.Get(r.Code)
	require.True(t, ok)
	require.Same(t, r, got)
}

func TestRegistry_CreateDefaultsRoomName(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))

	r, err := g.Create("", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice's room", r.Name)
}

func TestRegistry_ListPutsLobbyFirst(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))
	g.Create("one", "alice")
	g.Create("two", "bob")

	rooms := g.List()
	require.Len(t, rooms, 3)
	require.Equal(t, DefaultRoomCode, rooms[0].Code)
}

func TestRegistry_DeleteIsCreatorOnly(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))
	r, err := g.Create("mine", "alice")
	require.NoError(t, err)

	require.Error(t, g.Delete(r.Code, "bob"))
	_, ok := g.Get(r.Code)
	require.True(t, ok, "failed delete must not remove the room")

	require.NoError(t, g.Delete(r.Code, "alice"))
	_, ok = g.Get(r.Code)
	require.False(t, ok)
	require.True(t, r.Closed())
}

func TestRegistry_LobbyCannotBeDeleted(t *testing.T) {
	g := newTestRegistry(t, quartz.NewMock(t))
	require.Error(t, g.Delete(DefaultRoomCode, "anyone"))
}

func TestRegistry_SweepClosesExpiredRooms(t *testing.T) {
	mockClock := quartz.NewMock(t)
	g := newTestRegistry(t, mockClock)

	r, err := g.Create("short-lived", "alice")
	require.NoError(t, err)

	mockClock.Advance(31 * time.Minute).MustWait(context.Background())
	g.sweep()

	_, ok := g.Get(r.Code)
	require.False(t, ok, "expired room should be swept")
	require.True(t, r.Closed())

	_, ok = g.Get(DefaultRoomCode)
	require.True(t, ok, "lobby survives every sweep")
}

func TestRegistry_SweepSparesRoomsMidHand(t *testing.T) {
	mockClock := quartz.NewMock(t)
	// Turn deadlines longer than the TTL keep the hand alive across the
	// room's entire lifetime for this test.
	cfg := Config{
		MaxSeats:    4,
		ForcedBet:   5,
		BuyIn:       200,
		TurnTimeout: 2 * time.Hour,
		TTL:         30 * time.Minute,
	}
	g := NewRegistry(cfg, mockClock, nil, nil, rand.New(rand.NewSource(1)), log.New(io.Discard))

	r, err := g.Create("busy", "alice")
	require.NoError(t, err)
	_, err = r.Seat("alice", false)
	require.NoError(t, err)
	_, err = r.Seat("bob", false)
	require.NoError(t, err)
	require.NoError(t, r.Start())
	r.Stop()

	mockClock.Advance(31 * time.Minute).MustWait(context.Background())
	require.True(t, r.HandInProgress())

	g.sweep()
	_, ok := g.Get(r.Code)
	require.True(t, ok, "rooms mid-hand are not swept")

	// Once the hand resolves, the next sweep may reclaim the room.
	_, w := mockClock.AdvanceNext()
	w.MustWait(context.Background())
	require.False(t, r.HandInProgress())
	g.sweep()
	_, ok = g.Get(r.Code)
	require.False(t, ok)
}
