// Package schedule maps wall-clock time onto the global match grid. Every
// component that needs "now" goes through Clock.Now so the server-offset
// correction applies everywhere; raw time.Now would let skewed clients
// disagree about the current slot.
package schedule

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the cadence of the match grid: one slot per interval.
const DefaultInterval = 3 * time.Minute

// DefaultEpoch anchors slot 0. Fixed forever; moving it renumbers every
// slot that was ever played.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type Clock struct {
	epoch    time.Time
	interval time.Duration
	clock    clockwork.Clock

	mu     sync.RWMutex
	offset time.Duration // corrected now = local now + offset
	loc    *time.Location
}

func New(epoch time.Time, interval time.Duration, cw clockwork.Clock) *Clock {
	if cw == nil {
		cw = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{epoch: epoch, interval: interval, clock: cw, loc: time.UTC}
}

// Now returns the offset-corrected current time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clock.Now().Add(c.offset)
}

// Calibrate adjusts the offset so Now tracks the store's clock. serverNow
// is the backend's idea of the current time at the moment of the call.
func (c *Clock) Calibrate(serverNow time.Time) {
	off := serverNow.Sub(c.clock.Now())
	c.mu.Lock()
	c.offset = off
	c.mu.Unlock()
}

// Offset returns the current correction, for diagnostics.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// SetLocation sets the timezone used for display. Display-only: slot math
// always runs on the instant, never the wall representation.
func (c *Clock) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
}

// Display returns t in the configured display timezone.
func (c *Clock) Display(t time.Time) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return t.In(c.loc)
}

// SlotIndex returns the slot containing t. Times before the epoch map to
// negative indices; callers treat those as "not started".
func (c *Clock) SlotIndex(t time.Time) int64 {
	d := t.Sub(c.epoch)
	if d < 0 {
		return int64((d - c.interval + 1) / c.interval)
	}
	return int64(d / c.interval)
}

// CurrentSlot is SlotIndex at the corrected now.
func (c *Clock) CurrentSlot() int64 {
	return c.SlotIndex(c.Now())
}

// SlotStart returns the wall-clock start of a slot.
func (c *Clock) SlotStart(idx int64) time.Time {
	return c.epoch.Add(time.Duration(idx) * c.interval)
}

// Interval returns the grid cadence.
func (c *Clock) Interval() time.Duration {
	return c.interval
}
