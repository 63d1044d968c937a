// Package ledger records settlement deltas against player balances.
//
// The store is injected: reads go through it, and every write carries the
// prior balance actually read, never an assumed default. Failed writes are
// queued with a reconciliation flag instead of being dropped or blocking
// the turn machine.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Entry is one settlement write: a per-seat delta from one hand, emitted
// exactly once per seat per hand.
type Entry struct {
	Player              string
	HandID              string
	Delta               int64
	PriorBalance        int64
	NewBalance          int64
	At                  time.Time
	NeedsReconciliation bool
}

// Store persists balances and settlement entries.
type Store interface {
	// Balance returns the current balance, creating the account with the
	// configured opening balance if it does not exist.
	Balance(ctx context.Context, player string) (int64, error)
	// RecordSettlement applies e.Delta and appends the entry. The entry's
	// PriorBalance must match the stored balance at write time.
	RecordSettlement(ctx context.Context, e Entry) error
	// Entries returns a player's settlement history, oldest first.
	Entries(ctx context.Context, player string) ([]Entry, error)
}

// Recorder wraps a Store with read-before-write balance handling and a
// pending queue for writes that failed. Round play never blocks on it.
type Recorder struct {
	store  Store
	logger *log.Logger

	mu      sync.Mutex
	pending []Entry
}

// NewRecorder creates a recorder around a store.
func NewRecorder(store Store, logger *log.Logger) *Recorder {
	return &Recorder{store: store, logger: logger.WithPrefix("ledger")}
}

// Record writes one settlement delta. On store failure the entry is queued
// with NeedsReconciliation set and a nil error is returned; the settlement
// is never lost and never re-applied to the hand.
func (r *Recorder) Record(ctx context.Context, player, handID string, delta int64) error {
	prior, err := r.store.Balance(ctx, player)
	if err != nil {
		r.queue(Entry{Player: player, HandID: handID, Delta: delta, At: time.Now()})
		r.logger.Warn("balance read failed, queued for reconciliation", "player", player, "hand", handID, "error", err)
		return nil
	}

	e := Entry{
		Player:       player,
		HandID:       handID,
		Delta:        delta,
		PriorBalance: prior,
		NewBalance:   prior + delta,
		At:           time.Now(),
	}
	if err := r.store.RecordSettlement(ctx, e); err != nil {
		r.queue(e)
		r.logger.Warn("settlement write failed, queued for reconciliation", "player", player, "hand", handID, "error", err)
		return nil
	}
	return nil
}

func (r *Recorder) queue(e Entry) {
	e.NeedsReconciliation = true
	r.mu.Lock()
	r.pending = append(r.pending, e)
	r.mu.Unlock()
}

// Pending returns the queued entries awaiting reconciliation.
func (r *Recorder) Pending() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.pending))
	copy(out, r.pending)
	return out
}

// Flush retries queued entries, re-reading the prior balance for each. It
// stops at the first failure, keeping the remainder queued.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	queued := r.pending
	r.pending = nil
	r.mu.Unlock()

	for i, e := range queued {
		prior, err := r.store.Balance(ctx, e.Player)
		if err == nil {
			e.PriorBalance = prior
			e.NewBalance = prior + e.Delta
			e.NeedsReconciliation = false
			err = r.store.RecordSettlement(ctx, e)
		}
		if err != nil {
			r.mu.Lock()
			e.NeedsReconciliation = true
			r.pending = append(append([]Entry{e}, queued[i+1:]...), r.pending...)
			r.mu.Unlock()
			return fmt.Errorf("reconciling settlement for %s: %w", e.Player, err)
		}
	}
	return nil
}

// Audit verifies that a player's entries chain: each prior balance plus
// delta equals the recorded new balance, and consecutive entries agree.
func Audit(ctx context.Context, store Store, player string) error {
	entries, err := store.Entries(ctx, player)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.PriorBalance+e.Delta != e.NewBalance {
			return fmt.Errorf("entry %d for %s: %d + %d != %d", i, player, e.PriorBalance, e.Delta, e.NewBalance)
		}
		if i > 0 && entries[i-1].NewBalance != e.PriorBalance {
			return fmt.Errorf("entry %d for %s: prior %d does not chain from %d", i, player, e.PriorBalance, entries[i-1].NewBalance)
		}
	}
	return nil
}
