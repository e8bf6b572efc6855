// clock.go - Manual clock so orchestration tests run without real delays
package testutil

import (
	"context"
	"sync"
	"time"
)

// ManualClock implements orchestrator.Clock. Sleep returns immediately,
// advancing the clock by the requested duration. OnSleep, when set, runs
// on each sleep with the 1-based sleep count, which lets a test cancel a
// context after N polls.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  int
	OnSleep func(n int)
}

// NewManualClock creates a clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps++
	n := c.sleeps
	hook := c.OnSleep
	c.now = c.now.Add(d)
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleeps returns how many times Sleep was called.
func (c *ManualClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
