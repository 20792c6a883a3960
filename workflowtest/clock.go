package workflowtest

import (
	"sync"
	"time"

	"github.com/tta-dev/workflowcore/recovery"
)

// Clock is a deterministic recovery.Clock for tests: After fires
// immediately (no real sleeping) and Now moves only through Advance or
// After, so assertions about elapsed time stay exact regardless of how
// fast the test machine runs.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

var _ recovery.Clock = (*Clock)(nil)

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock's notion of now forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// After advances the clock by d and returns an already-fired channel,
// standing in for a real timer without the test waiting on it.
func (c *Clock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}
