// Package clock provides the single monotonic source of "now" shared by
// every component. All timing rules are functions of stored timestamps and
// the value returned here.
package clock

import (
	"fmt"
	"sync"
	"time"

	"landrent-backend/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// SystemClock follows wall time but never reports an instant earlier than
// one it already returned.
type SystemClock struct {
	mu   sync.Mutex
	last time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}

// ManualClock is driven externally, e.g. by block timestamps or tests.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start.UTC()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are rejected.
func (c *ManualClock) Advance(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: advance by %s", domain.ErrClockRegression, d)
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// Set jumps to t, which must not be before the current instant.
func (c *ManualClock) Set(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.now) {
		return fmt.Errorf("%w: %s is before %s", domain.ErrClockRegression, t, c.now)
	}
	c.now = t.UTC()
	return nil
}
