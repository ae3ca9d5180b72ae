package testfixtures

import (
	"fmt"
	"sync"
	"time"
)

// Clock is a manually driven time source shared by the services of one test.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// NowFunc is injected wherever a service takes a now func.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Current is Now under a name that reads better in assertions.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Expire moves the clock just past ttl, so anything touched at the previous
// instant with that lifetime is now stale.
func (c *Clock) Expire(ttl time.Duration) time.Time {
	return c.Advance(ttl + time.Nanosecond)
}

// SetClassTime moves the clock to a schedule date ("2006-01-02") and clock
// time ("15:04") in UTC. It panics on malformed input since fixtures are
// written by hand.
func (c *Clock) SetClassTime(date, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: bad class time %q %q: %v", date, clock, err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	return t
}
