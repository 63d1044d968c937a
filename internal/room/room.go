// Package room composes tables, the turn scheduler, AI advisors and the
// ledger into independently concurrent rooms. Every mutation of a room's
// hand goes through the room mutex, so at most one apply runs at a time;
// different rooms proceed in parallel.
package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/parlourlabs/holdem/internal/ai"
	"github.com/parlourlabs/holdem/internal/game"
	"github.com/parlourlabs/holdem/internal/ledger"
	"github.com/parlourlabs/holdem/poker"
)

// Config carries room tunables.
type Config struct {
	MaxSeats    int
	ForcedBet   int
	BuyIn       int
	TurnTimeout time.Duration
	AIGrace     time.Duration // shaved off the deadline for AI queries
	TTL         time.Duration // share-code room lifetime, 0 = never expires
}

func (c Config) withDefaults() Config {
	if c.MaxSeats == 0 {
		c.MaxSeats = 6
	}
	if c.ForcedBet == 0 {
		c.ForcedBet = 5
	}
	if c.BuyIn == 0 {
		c.BuyIn = 200
	}
	if c.TurnTimeout == 0 {
		c.TurnTimeout = 60 * time.Second
	}
	if c.AIGrace == 0 {
		c.AIGrace = 2 * time.Second
	}
	return c
}

// Subscriber receives observer-specific snapshots after every applied
// action. Deliver must not block.
type Subscriber interface {
	Deliver(snap game.Snapshot)
}

// Room owns one table, a roster of subscribers and the room lifecycle.
type Room struct {
	Code      string
	Name      string
	Creator   string
	CreatedAt time.Time

	cfg      Config
	clock    quartz.Clock
	sched    *TurnScheduler
	advisor  ai.Advisor // external advisor, may be nil
	fallback ai.Advisor
	recorder *ledger.Recorder // may be nil
	logger   *log.Logger

	mu        sync.Mutex
	rng       *rand.Rand // guarded by mu, shared with the table's deck
	table     *Table
	bots      map[string]ai.Advisor // per-seat strategies for built-in bots
	turnGen   uint64
	deadline  time.Time
	dealing   bool // a start request is in effect
	expiresAt time.Time
	closed    bool
	subs      map[string]Subscriber
}

// NewRoom creates a room. advisor and recorder may be nil; AI seats then
// play with the built-in heuristic and settlements are not persisted.
func NewRoom(code, name, creator string, cfg Config, clock quartz.Clock, advisor ai.Advisor, recorder *ledger.Recorder, rng *rand.Rand, logger *log.Logger) *Room {
	cfg = cfg.withDefaults()
	logger = logger.WithPrefix("room").With("room", code)

	r := &Room{
		Code:      code,
		Name:      name,
		Creator:   creator,
		CreatedAt: clock.Now(),
		cfg:       cfg,
		clock:     clock,
		sched:     NewTurnScheduler(clock, cfg.TurnTimeout),
		advisor:   advisor,
		// The fallback advises off the room lock; it gets its own source
		// rather than sharing the table's.
		fallback: ai.NewHeuristic(rand.New(rand.NewSource(rng.Int63())), 0.5),
		recorder: recorder,
		logger:   logger,
		rng:      rng,
		table:    NewTable(cfg.MaxSeats, cfg.ForcedBet, rng, logger),
		bots:     make(map[string]ai.Advisor),
		subs:     make(map[string]Subscriber),
	}
	if cfg.TTL > 0 {
		r.expiresAt = clock.Now().Add(cfg.TTL)
	}
	return r
}

// Subscribe registers a snapshot receiver for an observer identity.
func (r *Room) Subscribe(name string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[name] = sub
}

// Unsubscribe removes an observer.
func (r *Room) Unsubscribe(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, name)
}

// Seat claims a seat for an identity with the configured buy-in.
func (r *Room) Seat(name string, isAI bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("room %s is closed", r.Code)
	}
	p, err := r.table.Seat(name, isAI, r.cfg.BuyIn)
	if err != nil {
		return 0, err
	}
	r.broadcastLocked()
	return p.Seat, nil
}

// SeatBot seats a built-in AI player with its own heuristic strategy at
// the given aggression.
func (r *Room) SeatBot(name string, aggression float64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("room %s is closed", r.Code)
	}
	p, err := r.table.Seat(name, true, r.cfg.BuyIn)
	if err != nil {
		return 0, err
	}
	r.bots[name] = ai.NewHeuristic(rand.New(rand.NewSource(r.rng.Int63())), aggression)
	r.broadcastLocked()
	return p.Seat, nil
}

// Leave frees the identity's seat.
func (r *Room) Leave(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.table.Leave(name)
	if err == nil {
		delete(r.bots, name)
		r.broadcastLocked()
	}
	return err
}

// Start begins dealing hands until stopped or the table can no longer
// start one.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("room %s is closed", r.Code)
	}
	if r.table.HandInProgress() {
		return fmt.Errorf("hand already in progress")
	}
	r.dealing = true
	if err := r.startHandLocked(); err != nil {
		r.dealing = false
		return err
	}
	r.broadcastLocked()
	return nil
}

// Stop withdraws the start request; the current hand finishes normally.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dealing = false
}

// Apply routes a session's action to the hand engine. Rejections are
// returned to the caller, who may retry within the same turn.
func (r *Room) Apply(name string, act game.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %s is closed", r.Code)
	}
	p := r.table.PlayerNamed(name)
	if p == nil {
		return fmt.Errorf("%s is not seated in room %s", name, r.Code)
	}
	if !r.table.HandInProgress() {
		return fmt.Errorf("no hand in progress")
	}

	if err := r.table.Hand().Apply(p.Seat, act); err != nil {
		return err
	}
	r.postActionLocked()
	return nil
}

// Disconnect marks a player's transport link dead. It is applied between
// actions only: the room mutex guarantees it never interleaves with an
// in-progress apply. If it was the player's turn, the timeout path runs
// immediately.
func (r *Room) Disconnect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.table.PlayerNamed(name)
	if p == nil {
		return
	}
	p.Connected = false
	delete(r.subs, name)

	if !r.table.HandInProgress() || !p.InHand() {
		p.Status = game.StatusDisconnected
		r.broadcastLocked()
		return
	}
	if r.table.Hand().TurnSeat() == p.Seat {
		r.applySyntheticLocked(p.Seat)
	}
	r.broadcastLocked()
}

// Reconnect restores a player's link; between hands they are dealt back in.
func (r *Room) Reconnect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.table.PlayerNamed(name)
	if p == nil {
		return
	}
	p.Connected = true
	if p.Status == game.StatusDisconnected {
		p.Status = game.StatusSeated
	}
	r.broadcastLocked()
}

// SnapshotFor builds the observer-specific view of the room.
func (r *Room) SnapshotFor(name string) game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotForLocked(name)
}

// Players returns the current roster.
func (r *Room) Players() []*game.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Players()
}

// Deadline returns the current turn deadline, zero when no turn is armed.
func (r *Room) Deadline() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deadline
}

// Expired reports whether a share-code room has outlived its TTL.
func (r *Room) Expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// Extend pushes the expiry out by d from now.
func (r *Room) Extend(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.expiresAt.IsZero() {
		r.expiresAt = r.clock.Now().Add(d)
	}
}

// TimeRemaining reports how long until expiry, 0 for permanent rooms.
func (r *Room) TimeRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expiresAt.IsZero() {
		return 0
	}
	remaining := r.expiresAt.Sub(r.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Close shuts the room down. A hand in progress is aborted by the caller's
// choice of timing: the registry janitor only closes rooms between hands.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.dealing = false
	r.turnGen = r.sched.Cancel()
}

// Closed reports whether the room has been shut down.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// HandInProgress reports whether the room's table is mid-hand.
func (r *Room) HandInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.HandInProgress()
}

// startHandLocked deals a new hand and arms the first turn.
func (r *Room) startHandLocked() error {
	sink := func(e game.Event) {
		r.logger.Debug("game event", "type", e.EventType())
	}
	hand, err := r.table.StartHand(sink)
	if err != nil {
		return err
	}
	if res := hand.Result(); res != nil {
		// Degenerate hand that ran out during the deal.
		r.settledLocked(res)
		return nil
	}
	r.onTurnLocked()
	return nil
}

// postActionLocked runs after any successful apply: either the hand is
// over, or a new turn needs arming.
func (r *Room) postActionLocked() {
	hand := r.table.Hand()
	if res := hand.Result(); res != nil {
		r.settledLocked(res)
	} else {
		r.onTurnLocked()
	}
	r.broadcastLocked()
}

// onTurnLocked arms the scheduler for the current turn holder and kicks
// off an AI query or an immediate synthetic action as appropriate.
func (r *Room) onTurnLocked() {
	hand := r.table.Hand()
	seat := hand.TurnSeat()
	if seat == -1 {
		r.turnGen = r.sched.Cancel()
		r.deadline = time.Time{}
		return
	}

	gen := r.sched.Arm(r.onDeadline)
	r.turnGen = gen
	r.deadline = r.clock.Now().Add(r.cfg.TurnTimeout)

	p := r.table.PlayerAt(seat)
	switch {
	case p.AI:
		req := r.buildAdvisorRequestLocked(seat)
		go r.adviseAI(gen, seat, req, r.advisorForLocked(p.Name))
	case !p.Connected:
		// No session will ever answer; take the timeout path now.
		r.applySyntheticLocked(seat)
	}
}

// onDeadline fires when a turn deadline expires. A stale generation means
// a real action won the race; its effect is already applied and ours is
// discarded.
func (r *Room) onDeadline(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.turnGen || !r.table.HandInProgress() {
		return
	}
	seat := r.table.Hand().TurnSeat()
	if seat == -1 {
		return
	}
	r.logger.Info("turn deadline expired", "seat", seat)
	r.applySyntheticLocked(seat)
	r.broadcastLocked()
}

// applySyntheticLocked routes the scheduler's fold/check through the same
// gateway as a real action.
func (r *Room) applySyntheticLocked(seat int) {
	hand := r.table.Hand()
	act := hand.DefaultAction(seat)
	if err := hand.ApplySynthetic(seat, act); err != nil {
		r.logger.Error("synthetic action rejected", "seat", seat, "error", err)
		return
	}
	r.postActionLocked()
}

// buildAdvisorRequestLocked snapshots what the AI may see for one turn.
func (r *Room) buildAdvisorRequestLocked(seat int) ai.Request {
	hand := r.table.Hand()
	p := r.table.PlayerAt(seat)

	budget := r.cfg.TurnTimeout - r.cfg.AIGrace
	if budget < time.Second {
		budget = time.Second
	}

	toCall := hand.Betting.CurrentBet - p.Bet
	if toCall < 0 {
		toCall = 0
	}

	return ai.Request{
		Phase:  hand.Phase,
		Board:  append([]poker.Card{}, hand.Board...),
		Hole:   append([]poker.Card{}, p.HoleCards...),
		Legal:  hand.LegalActions(),
		Pot:    hand.Pots.Total(),
		ToCall: toCall,
		Budget: budget,
	}
}

// advisorForLocked picks the strategy for one AI turn: the bot's own
// heuristic when it has one, else the room's external advisor, else the
// shared fallback.
func (r *Room) advisorForLocked(name string) ai.Advisor {
	if a, ok := r.bots[name]; ok {
		return a
	}
	if r.advisor != nil {
		return r.advisor
	}
	return r.fallback
}

// adviseAI queries the advisor off the room lock, time-boxed under the
// turn deadline. A late or failing advisor is replaced by the heuristic;
// a result arriving after the turn moved on is discarded.
func (r *Room) adviseAI(gen uint64, seat int, req ai.Request, advisor ai.Advisor) {
	type outcome struct {
		resp ai.Response
		err  error
	}
	resCh := make(chan outcome, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		resp, err := advisor.Advise(ctx, req)
		resCh <- outcome{resp: resp, err: err}
	}()

	timedOut := make(chan struct{})
	timer := r.clock.AfterFunc(req.Budget, func() {
		close(timedOut)
	})
	defer timer.Stop()

	var resp ai.Response
	select {
	case out := <-resCh:
		if out.err != nil {
			r.logger.Warn("advisor failed, using heuristic", "seat", seat, "error", out.err)
			resp, _ = r.fallback.Advise(context.Background(), req)
		} else {
			resp = out.resp
		}
	case <-timedOut:
		cancel()
		r.logger.Warn("advisor overran budget, using heuristic", "seat", seat)
		resp, _ = r.fallback.Advise(context.Background(), req)
	}

	act := ai.Coerce(req.Legal, resp)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.turnGen || !r.table.HandInProgress() || r.table.Hand().TurnSeat() != seat {
		return // the deadline or a disconnect resolved this turn first
	}
	if err := r.table.Hand().Apply(seat, act); err != nil {
		// Coerced actions are legal by construction; if one slips through,
		// the default action cannot be rejected.
		r.logger.Error("coerced AI action rejected", "seat", seat, "error", err)
		r.applySyntheticLocked(seat)
		return
	}
	r.postActionLocked()
}

// settledLocked finishes a hand: deltas go to the ledger exactly once per
// seat, lifecycle states are swept, and the next hand starts if the start
// request still stands.
func (r *Room) settledLocked(res *game.HandResult) {
	r.turnGen = r.sched.Cancel()
	r.deadline = time.Time{}

	if r.recorder != nil && !res.Aborted {
		entries := make(map[string]int64, len(res.Deltas))
		for seat, delta := range res.Deltas {
			if p := r.table.PlayerAt(seat); p != nil {
				entries[p.Name] = int64(delta)
			}
		}
		handID := res.HandID
		// Ledger writes never block the turn machine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			for name, delta := range entries {
				_ = r.recorder.Record(ctx, name, handID, delta)
			}
		}()
	}

	r.table.SweepAfterHand()

	if r.dealing {
		if err := r.table.CanStart(); err != nil {
			r.logger.Info("dealing stopped", "reason", err)
			r.dealing = false
			return
		}
		if err := r.startHandLocked(); err != nil {
			r.logger.Error("failed to start next hand", "error", err)
			r.dealing = false
		}
	}
}

// snapshotForLocked builds the observer view; between hands it shows the
// roster only.
func (r *Room) snapshotForLocked(name string) game.Snapshot {
	observerSeat := -1
	if p := r.table.PlayerNamed(name); p != nil {
		observerSeat = p.Seat
	}

	if hand := r.table.Hand(); hand != nil {
		reveal := hand.Phase >= game.Showdown
		snap := hand.SnapshotFor(observerSeat, reveal)
		r.fillRoster(&snap, observerSeat)
		return snap
	}

	snap := game.Snapshot{Phase: "lobby", Turn: -1}
	r.fillRoster(&snap, observerSeat)
	return snap
}

// fillRoster appends seated players missing from the hand view (waiting,
// sitting out, disconnected).
func (r *Room) fillRoster(snap *game.Snapshot, observerSeat int) {
	present := make(map[int]bool, len(snap.Seats))
	for _, v := range snap.Seats {
		present[v.Seat] = true
	}
	for _, p := range r.table.Players() {
		if present[p.Seat] {
			continue
		}
		snap.Seats = append(snap.Seats, game.SeatView{
			Seat:      p.Seat,
			Name:      p.Name,
			AI:        p.AI,
			Connected: p.Connected,
			Chips:     p.Chips,
			Status:    p.Status.String(),
		})
	}
}

func (r *Room) broadcastLocked() {
	for name, sub := range r.subs {
		sub.Deliver(r.snapshotForLocked(name))
	}
}
