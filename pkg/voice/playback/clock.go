package playback

import (
	"sort"
	"sync"
	"time"
)

// Clock is the output timeline the scheduler places buffers on. Positions
// are durations since an arbitrary zero, monotonically non-decreasing.
type Clock interface {
	// Now returns the current position on the timeline.
	Now() time.Duration

	// AfterFunc runs f once the timeline has advanced by d. A non-positive
	// d fires as soon as possible.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop cancels the callback. Reports whether it was still pending.
	Stop() bool
}

// wallClock is a Clock backed by the runtime's monotonic clock.
type wallClock struct {
	start time.Time
}

// NewWallClock returns a Clock positioned at zero now and advancing in
// real time.
func NewWallClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Now() time.Duration {
	return time.Since(c.start)
}

func (c *wallClock) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}

// ManualClock is a Clock driven explicitly through Advance. It backs the
// scheduler tests and session simulations; nothing fires until Advance is
// called, including zero-delay timers.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManualClock returns a ManualClock positioned at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now returns the current manual position.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to fire once Advance moves the clock past d from
// the current position.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t := &manualTimer{clock: c, when: c.now + d, seq: c.seq, f: f}
	c.seq++
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d and fires due timers in deadline
// order. Callbacks run synchronously on the caller's goroutine, without
// the clock lock held, so they may register further timers.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()

	for {
		t := c.popDue()
		if t == nil {
			return
		}
		t.f()
	}
}

// popDue removes and returns the earliest due timer, or nil.
func (c *ManualClock) popDue() *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].when != c.timers[j].when {
			return c.timers[i].when < c.timers[j].when
		}
		return c.timers[i].seq < c.timers[j].seq
	})
	for i, t := range c.timers {
		if t.when > c.now {
			break
		}
		if t.stopped {
			continue
		}
		c.timers = append(c.timers[:i:i], c.timers[i+1:]...)
		return t
	}
	return nil
}

type manualTimer struct {
	clock   *ManualClock
	when    time.Duration
	seq     int
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, o := range t.clock.timers {
		if o == t {
			t.clock.timers = append(t.clock.timers[:i:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}
