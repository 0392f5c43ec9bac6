package schedule

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSlotMath(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(epoch.Add(10 * time.Minute))
	c := New(epoch, 3*time.Minute, fc)

	if got := c.CurrentSlot(); got != 3 {
		t.Fatalf("slot %d, want 3", got)
	}
	if got := c.SlotStart(3); !got.Equal(epoch.Add(9 * time.Minute)) {
		t.Fatalf("slot 3 starts at %v", got)
	}
	if got := c.SlotIndex(epoch); got != 0 {
		t.Fatalf("epoch itself in slot %d, want 0", got)
	}
}

func TestSlotIndexBeforeEpoch(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(epoch, 3*time.Minute, clockwork.NewFakeClockAt(epoch))

	if got := c.SlotIndex(epoch.Add(-time.Second)); got != -1 {
		t.Fatalf("one second before epoch in slot %d, want -1", got)
	}
	if got := c.SlotIndex(epoch.Add(-3 * time.Minute)); got != -1 {
		t.Fatalf("exactly one interval before epoch in slot %d, want -1", got)
	}
	if got := c.SlotIndex(epoch.Add(-3*time.Minute - time.Nanosecond)); got != -2 {
		t.Fatalf("just past one interval before epoch in slot %d, want -2", got)
	}
}

func TestCalibrateShiftsNow(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(epoch.Add(10 * time.Minute))
	c := New(epoch, 3*time.Minute, fc)

	// The store's clock runs two minutes ahead of ours.
	c.Calibrate(fc.Now().Add(2 * time.Minute))
	if got := c.Offset(); got != 2*time.Minute {
		t.Fatalf("offset %v, want 2m", got)
	}
	if got := c.Now(); !got.Equal(epoch.Add(12 * time.Minute)) {
		t.Fatalf("corrected now %v", got)
	}
	if got := c.CurrentSlot(); got != 4 {
		t.Fatalf("corrected slot %d, want 4", got)
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := New(DefaultEpoch, 0, nil)
	if c.Interval() != DefaultInterval {
		t.Fatalf("interval %v, want default", c.Interval())
	}
}

func TestDisplayLocation(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(epoch, 3*time.Minute, clockwork.NewFakeClockAt(epoch))

	utc := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := c.Display(utc); got.Location() != time.UTC {
		t.Fatalf("default display location %v, want UTC", got.Location())
	}

	cet := time.FixedZone("CET", 3600)
	c.SetLocation(cet)
	got := c.Display(utc)
	if got.Location() != cet {
		t.Fatalf("display location %v, want CET", got.Location())
	}
	if !got.Equal(utc) {
		t.Fatalf("display changed the instant: %v vs %v", got, utc)
	}
	if got.Hour() != 13 {
		t.Fatalf("display hour %d, want 13", got.Hour())
	}

	c.SetLocation(nil)
	if got := c.Display(utc); got.Location() != cet {
		t.Fatalf("nil location overwrote the previous one")
	}
}
