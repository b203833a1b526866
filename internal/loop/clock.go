package loop

import (
	"sync"
	"time"
)

// Clock provides the current time to a Loop.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real monotonic clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a controllable time source for testing. Loop.Advance moves
// it forward.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock returns a manual clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
