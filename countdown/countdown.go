// Package countdown runs per-second countdowns on an injectable clock.
package countdown

import (
	"math"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

const step = time.Second

// Countdown counts down from a duration once per second. Restarting or
// stopping it silences every callback scheduled by an earlier Start.
type Countdown struct {
	clock clock.Clock

	mu       sync.Mutex
	gen      uint64
	deadline time.Time
	timer    *clock.Timer
	running  bool
}

func New(c clock.Clock) *Countdown {
	if c == nil {
		c = clock.New()
	}
	return &Countdown{clock: c}
}

// Start (re)starts the countdown. onTick receives the whole seconds left after
// every step and 0 on expiry; onExpire runs once when the deadline passes.
// Either callback may be nil.
func (c *Countdown) Start(d time.Duration, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.running = true
	c.deadline = c.clock.Now().Add(d)
	c.scheduleLocked(c.gen, onTick, onExpire)
}

func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Seconds returns the whole seconds left, rounded up; 0 when not running.
func (c *Countdown) Seconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	return seconds(c.deadline.Sub(c.clock.Now()))
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
	c.gen++
}

func (c *Countdown) scheduleLocked(gen uint64, onTick func(int), onExpire func()) {
	wait := step
	if left := c.deadline.Sub(c.clock.Now()); left < wait {
		wait = left
	}
	if wait < 0 {
		wait = 0
	}
	c.timer = c.clock.AfterFunc(wait, func() {
		c.fire(gen, onTick, onExpire)
	})
}

func (c *Countdown) fire(gen uint64, onTick func(int), onExpire func()) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}

	left := c.deadline.Sub(c.clock.Now())
	if left <= 0 {
		c.running = false
		c.timer = nil
		c.mu.Unlock()

		if onTick != nil {
			onTick(0)
		}
		if onExpire != nil {
			onExpire()
		}
		return
	}

	c.scheduleLocked(gen, onTick, onExpire)
	c.mu.Unlock()

	if onTick != nil {
		onTick(seconds(left))
	}
}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
