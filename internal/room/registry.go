package room

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/parlourlabs/holdem/internal/ai"
	"github.com/parlourlabs/holdem/internal/ledger"
)

// DefaultRoomCode names the permanent lobby room.
const DefaultRoomCode = "default"

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I

// Registry is the process-wide collection of rooms. Rooms are independent
// units of concurrency; the registry lock only guards the map.
type Registry struct {
	cfg      Config
	clock    quartz.Clock
	advisor  ai.Advisor
	recorder *ledger.Recorder
	logger   *log.Logger

	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewRegistry creates a registry seeded with the permanent default lobby.
func NewRegistry(cfg Config, clock quartz.Clock, advisor ai.Advisor, recorder *ledger.Recorder, rng *rand.Rand, logger *log.Logger) *Registry {
	g := &Registry{
		cfg:      cfg,
		clock:    clock,
		advisor:  advisor,
		recorder: recorder,
		logger:   logger.WithPrefix("registry"),
		rooms:    make(map[string]*Room),
		rng:      rng,
	}

	lobbyCfg := cfg
	lobbyCfg.TTL = 0
	g.rooms[DefaultRoomCode] = NewRoom(DefaultRoomCode, "Default Lobby", "", lobbyCfg, clock, advisor, recorder, g.roomRNG(), logger)
	return g
}

// roomRNG derives a private RNG per room; rooms shuffle and decide on
// their own goroutines, so they must not share the registry's source.
func (g *Registry) roomRNG() *rand.Rand {
	return rand.New(rand.NewSource(g.rng.Int63()))
}

// Create makes a new share-code room. A generated code that collides with
// an existing room is rejected outright rather than silently retried.
func (g *Registry) Create(name, creator string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.generateCode()
	if _, exists := g.rooms[code]; exists {
		return nil, fmt.Errorf("room code collision on %s", code)
	}

	if name == "" {
		name = fmt.Sprintf("%s's room", creator)
	}
	r := NewRoom(code, name, creator, g.cfg, g.clock, g.advisor, g.recorder, g.roomRNG(), g.logger)
	g.rooms[code] = r
	g.logger.Info("room created", "room", code, "creator", creator)
	return r, nil
}

// Get finds a room by its code.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[code]
	return r, ok
}

// List returns all rooms sorted by code, default lobby first.
func (g *Registry) List() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code == DefaultRoomCode {
			return true
		}
		if out[j].Code == DefaultRoomCode {
			return false
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Delete closes and removes a room. Only the creator may delete it, and
// the default lobby is permanent.
func (g *Registry) Delete(code, requester string) error {
	if code == DefaultRoomCode {
		return fmt.Errorf("the default lobby cannot be deleted")
	}

	g.mu.Lock()
	r, ok := g.rooms[code]
	if ok && r.Creator != requester {
		g.mu.Unlock()
		return fmt.Errorf("only the creator may delete room %s", code)
	}
	delete(g.rooms, code)
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("no room with code %s", code)
	}
	r.Close()
	g.logger.Info("room deleted", "room", code, "by", requester)
	return nil
}

// Janitor sweeps expired rooms once a minute until ctx is cancelled. Rooms
// mid-hand get a grace pass; they are closed between hands only.
func (g *Registry) Janitor(ctx context.Context) {
	ticker := g.clock.TickerFunc(ctx, time.Minute, func() error {
		g.sweep()
		return nil
	}, "room-janitor")
	_ = ticker.Wait()
}

func (g *Registry) sweep() {
	now := g.clock.Now()

	g.mu.Lock()
	var expired []*Room
	for _, r := range g.rooms {
		if r.Code != DefaultRoomCode && r.Expired(now) && !r.HandInProgress() {
			expired = append(expired, r)
			delete(g.rooms, r.Code)
		}
	}
	g.mu.Unlock()

	for _, r := range expired {
		r.Close()
		g.logger.Info("expired room closed", "room", r.Code)
	}
}

func (g *Registry) generateCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = codeAlphabet[g.rng.Intn(len(codeAlphabet))]
	}
	return string(code)
}
