package room

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// TurnScheduler owns the single turn deadline for a room. Arming it for a
// new turn invalidates every earlier deadline: a timer that fires with a
// stale generation is discarded by the room, so a real action and its
// timeout can never both apply.
type TurnScheduler struct {
	clock  quartz.Clock
	window time.Duration

	mu    sync.Mutex
	timer *quartz.Timer
	gen   uint64
}

// NewTurnScheduler creates a scheduler with a fixed deadline window.
func NewTurnScheduler(clock quartz.Clock, window time.Duration) *TurnScheduler {
	return &TurnScheduler{clock: clock, window: window}
}

// Window returns the deadline window.
func (s *TurnScheduler) Window() time.Duration {
	return s.window
}

// Arm schedules fire(gen) after the window, cancelling any earlier timer,
// and returns the new generation.
func (s *TurnScheduler) Arm(fire func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.window, func() {
		fire(gen)
	})
	return gen
}

// Cancel stops the pending timer and invalidates outstanding generations.
// Called the instant a real action is applied for the current turn holder.
func (s *TurnScheduler) Cancel() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	return s.gen
}

// Current returns the latest generation.
func (s *TurnScheduler) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
