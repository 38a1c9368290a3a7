package cooldown

import (
	"context"
	"sync"
	"time"
)

// Clock returns a monotonic reading. Only differences between readings matter.
type Clock func() time.Duration

// MonotonicClock returns a Clock measuring time since it was created.
func MonotonicClock() Clock {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Tracker remembers, per button and player, when the last successful press
// happened. State lives for the lifetime of the process, so it only gates
// presses evaluated by this process. Use RedisTracker when several processes
// evaluate presses.
type Tracker struct {
	mu    sync.Mutex
	clock Clock
	last  map[uint64]map[uint64]time.Duration
}

// NewTracker creates a tracker. A nil clock uses MonotonicClock.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = MonotonicClock()
	}
	return &Tracker{
		clock: clock,
		last:  make(map[uint64]map[uint64]time.Duration),
	}
}

// Allow reports whether player may press buttonID now. On success the press
// is recorded. When the cooldown is still running, remaining is the time left
// and nothing is recorded. A cooldown <= 0 always allows and records nothing.
// The error is always nil.
func (t *Tracker) Allow(_ context.Context, buttonID, playerID uint64, cooldown time.Duration) (remaining time.Duration, ok bool, err error) {
	if cooldown <= 0 {
		return 0, true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	byPlayer, exists := t.last[buttonID]
	if !exists {
		byPlayer = make(map[uint64]time.Duration)
		t.last[buttonID] = byPlayer
	}

	if last, seen := byPlayer[playerID]; seen {
		if elapsed := now - last; elapsed < cooldown {
			return cooldown - elapsed, false, nil
		}
	}

	byPlayer[playerID] = now
	return 0, true, nil
}

// LastPress returns the recorded reading of the last successful press.
func (t *Tracker) LastPress(buttonID, playerID uint64) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[buttonID][playerID]
	return last, ok
}

// Reset forgets every recorded press.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.last)
}
