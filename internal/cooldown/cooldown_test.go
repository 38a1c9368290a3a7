package cooldown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Duration
}

func (f *fakeClock) read() time.Duration { return f.now }

func TestTracker_FirstPressAlwaysAllowed(t *testing.T) {
	clk := &fakeClock{now: 5 * time.Second}
	tr := NewTracker(clk.read)

	remaining, ok, _ := tr.Allow(t.Context(), 1, 100, time.Minute)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	last, recorded := tr.LastPress(1, 100)
	require.True(t, recorded)
	assert.Equal(t, 5*time.Second, last)
}

func TestTracker_GatedPressLeavesTimestamp(t *testing.T) {
	clk := &fakeClock{}
	tr := NewTracker(clk.read)

	_, ok, _ := tr.Allow(t.Context(), 1, 100, 10*time.Second)
	require.True(t, ok)

	clk.now = 3 * time.Second
	remaining, ok, _ := tr.Allow(t.Context(), 1, 100, 10*time.Second)
	assert.False(t, ok)
	assert.Equal(t, 7*time.Second, remaining)

	last, _ := tr.LastPress(1, 100)
	assert.Equal(t, time.Duration(0), last, "gated press must not update the timestamp")
}

func TestTracker_PressAtExactlyCooldownSucceeds(t *testing.T) {
	clk := &fakeClock{}
	tr := NewTracker(clk.read)

	_, ok, _ := tr.Allow(t.Context(), 1, 100, 10*time.Second)
	require.True(t, ok)

	clk.now = 10 * time.Second
	_, ok, _ = tr.Allow(t.Context(), 1, 100, 10*time.Second)
	assert.True(t, ok)

	last, _ := tr.LastPress(1, 100)
	assert.Equal(t, 10*time.Second, last)

	clk.now = 15 * time.Second
	remaining, ok, _ := tr.Allow(t.Context(), 1, 100, 10*time.Second)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, remaining)
}

func TestTracker_IsolatedPerButtonAndPlayer(t *testing.T) {
	clk := &fakeClock{}
	tr := NewTracker(clk.read)

	_, ok, _ := tr.Allow(t.Context(), 1, 100, time.Minute)
	require.True(t, ok)

	_, ok, _ = tr.Allow(t.Context(), 1, 200, time.Minute)
	assert.True(t, ok, "another player is not affected")

	_, ok, _ = tr.Allow(t.Context(), 2, 100, time.Minute)
	assert.True(t, ok, "another button is not affected")

	_, ok, _ = tr.Allow(t.Context(), 1, 100, time.Minute)
	assert.False(t, ok)
}

func TestTracker_ZeroCooldownRecordsNothing(t *testing.T) {
	tr := NewTracker(nil)

	for i := 0; i < 3; i++ {
		_, ok, _ := tr.Allow(t.Context(), 1, 100, 0)
		assert.True(t, ok)
	}
	_, recorded := tr.LastPress(1, 100)
	assert.False(t, recorded)
}

func TestTracker_Reset(t *testing.T) {
	clk := &fakeClock{}
	tr := NewTracker(clk.read)

	_, _, _ = tr.Allow(t.Context(), 1, 100, time.Minute)
	tr.Reset()

	_, ok, _ := tr.Allow(t.Context(), 1, 100, time.Minute)
	assert.True(t, ok)
}

func TestTracker_ConcurrentPressesAllowOnce(t *testing.T) {
	tr := NewTracker(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := tr.Allow(t.Context(), 9, 9, time.Hour); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
}
