package engine

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one action: every Trigger
// resets the deadline, and only the timer that survives un-reset fires.
// This is the backpressure policy behind snapshot persistence: last
// write wins, coalesced, never one write per mutation.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	action func()
	timer  *time.Timer
}

// NewDebouncer creates a debouncer running action after window elapses
// without further triggers.
func NewDebouncer(window time.Duration, action func()) *Debouncer {
	return &Debouncer{window: window, action: action}
}

// Trigger schedules the action, resetting any pending deadline.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A later Trigger may have replaced the timer while this
		// callback waited on the lock; only clear our own.
		if d.timer == t {
			d.timer = nil
		}
		d.mu.Unlock()
		d.action()
	})
	d.timer = t
}

// Flush runs a pending action immediately. No-op when nothing is
// pending. Used at shutdown so the last mutations are not lost to the
// window.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	// Stop reports false when the timer already fired; that callback
	// owns the action, so treating it as pending would run it twice.
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()

	if pending {
		d.action()
	}
}

// Stop cancels any pending action without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
