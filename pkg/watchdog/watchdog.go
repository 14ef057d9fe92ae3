// Package watchdog forces the arm into its safe state when the command
// sender goes quiet.
package watchdog

import (
	"time"
)

// ShouldForceSafe reports whether the silence since lastCommand exceeds
// timeout.
func ShouldForceSafe(now, lastCommand time.Time, timeout time.Duration) bool {
	return now.Sub(lastCommand) > timeout
}

// Watchdog applies ShouldForceSafe once per silent gap. A gap is identified
// by the last-command time that started it, so only a newly accepted command
// re-arms the watchdog.
type Watchdog struct {
	timeout time.Duration
	tripped time.Time
	armed   bool
}

// New creates an armed watchdog.
func New(timeout time.Duration) *Watchdog {
	return &Watchdog{timeout: timeout, armed: true}
}

// Timeout returns the allowed silence.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Check returns true when the caller must force the safe state now.
func (w *Watchdog) Check(now, lastCommand time.Time) bool {
	if !w.armed && !lastCommand.Equal(w.tripped) {
		w.armed = true
	}
	if !w.armed || !ShouldForceSafe(now, lastCommand, w.timeout) {
		return false
	}
	w.armed = false
	w.tripped = lastCommand
	return true
}

// Tripped reports whether the gap that started at lastCommand has already
// forced the safe state.
func (w *Watchdog) Tripped(lastCommand time.Time) bool {
	return !w.armed && lastCommand.Equal(w.tripped)
}
