package decode

import (
	"testing"
	"time"
)

// TestIntervalFromFramerate validates fraction parsing and the fallback
// ladder for empty or degenerate framerates.
func TestIntervalFromFramerate(t *testing.T) {
	cases := []struct {
		name      string
		framerate string
		fallback  float64
		want      time.Duration
	}{
		{"whole fraction", "30/1", 15, time.Second / 30},
		{"ntsc fraction", "30000/1001", 15, time.Duration(float64(time.Second) * 1001 / 30000)},
		{"bare integer", "25", 15, time.Second / 25},
		{"zero framerate falls back", "0/1", 15, time.Second / 15},
		{"empty falls back", "", 15, time.Second / 15},
		{"garbage falls back", "fast", 15, time.Second / 15},
		{"zero fallback defaults to 30", "", 0, time.Second / 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := intervalFromFramerate(tc.framerate, tc.fallback)
			// Allow a nanosecond of float rounding.
			diff := got - tc.want
			if diff < 0 {
				diff = -diff
			}
			if diff > time.Nanosecond {
				t.Errorf("intervalFromFramerate(%q, %v) = %v, want %v",
					tc.framerate, tc.fallback, got, tc.want)
			}
		})
	}
}

// TestNextDeadline validates drift-free pacing: deadlines advance by exact
// intervals from the previous deadline, the first frame resyncs to now, and
// a schedule slipped by more than one interval resyncs instead of bursting.
func TestNextDeadline(t *testing.T) {
	const interval = 40 * time.Millisecond
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// First frame: no previous deadline.
	if got := nextDeadline(time.Time{}, base, interval); !got.Equal(base) {
		t.Errorf("first deadline = %v, want now (%v)", got, base)
	}

	// Steady state: next = prev + interval even when the sleep overshot.
	prev := base
	now := base.Add(45 * time.Millisecond) // 5ms of jitter past the next slot
	if got, want := nextDeadline(prev, now, interval), prev.Add(interval); !got.Equal(want) {
		t.Errorf("steady deadline = %v, want %v (jitter must not accumulate)", got, want)
	}

	// Slipped schedule: now is more than one interval past the next slot.
	now = base.Add(3 * interval)
	if got := nextDeadline(prev, now, interval); !got.Equal(now) {
		t.Errorf("slipped deadline = %v, want resync to now (%v)", got, now)
	}

	// Exactly one interval late is still on schedule (no resync).
	now = prev.Add(2 * interval)
	if got, want := nextDeadline(prev, now, interval), prev.Add(interval); !got.Equal(want) {
		t.Errorf("borderline deadline = %v, want %v", got, want)
	}
}
