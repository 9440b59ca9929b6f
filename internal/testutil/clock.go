package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a StoppedClock starts at.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// StoppedClock is a wall clock that only moves when told to.
//
// Artifacts stamped by a StoppedClock carry identical timestamps on every
// run, so manifests can be compared byte for byte.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StoppedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStoppedClock creates a clock stopped at Epoch.
func NewStoppedClock() *StoppedClock {
	return &StoppedClock{now: Epoch}
}

// Now returns the current stopped time.
func (c *StoppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StoppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset stops the clock at Epoch again.
func (c *StoppedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}
