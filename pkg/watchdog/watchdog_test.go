package watchdog

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestShouldForceSafe(t *testing.T) {
	timeout := 5 * time.Second

	tests := []struct {
		name  string
		since time.Duration
		want  bool
	}{
		{"fresh", 0, false},
		{"within", 4 * time.Second, false},
		{"exactly timeout", 5 * time.Second, false},
		{"just over", 5*time.Second + time.Millisecond, true},
		{"long silence", time.Hour, true},
		{"clock behind", -time.Second, false},
	}

	for _, tt := range tests {
		if got := ShouldForceSafe(t0.Add(tt.since), t0, timeout); got != tt.want {
			t.Errorf("%s: ShouldForceSafe = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWatchdog_FiresOncePerGap(t *testing.T) {
	w := New(5 * time.Second)
	last := t0
	fired := 0

	// Two-second polling over 20 seconds of silence.
	for now := t0; now.Before(t0.Add(20 * time.Second)); now = now.Add(2 * time.Second) {
		if w.Check(now, last) {
			fired++
			if now.Sub(last) <= 5*time.Second {
				t.Errorf("fired early at %s", now.Sub(last))
			}
		}
	}

	if fired != 1 {
		t.Errorf("fired %d times, want 1", fired)
	}
	if !w.Tripped(last) {
		t.Error("Tripped() = false after firing")
	}
}

func TestWatchdog_CommandRearms(t *testing.T) {
	w := New(5 * time.Second)

	if !w.Check(t0.Add(6*time.Second), t0) {
		t.Fatal("first gap did not fire")
	}

	// A command arrives at t0+7s and keeps the link alive for a while.
	last := t0.Add(7 * time.Second)
	if w.Check(t0.Add(8*time.Second), last) {
		t.Error("fired right after a command")
	}
	if w.Tripped(last) {
		t.Error("still tripped after a command")
	}

	// Second gap.
	if !w.Check(last.Add(5*time.Second+time.Millisecond), last) {
		t.Error("second gap did not fire")
	}
	if w.Check(last.Add(30*time.Second), last) {
		t.Error("second gap fired twice")
	}
}

func TestWatchdog_QuietWhileCommandsFlow(t *testing.T) {
	w := New(5 * time.Second)
	last := t0

	for now := t0; now.Before(t0.Add(time.Minute)); now = now.Add(time.Second) {
		last = now // command every second
		if w.Check(now, last) {
			t.Fatalf("fired at %s with commands flowing", now.Sub(t0))
		}
	}
}
