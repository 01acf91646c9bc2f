package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	// Rapid triggers within the window collapse to one firing.
	for i := 0; i < 20; i++ {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("burst fired %d times, want 1", got)
	}
}

func TestDebouncerFlushRunsPendingImmediately(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(time.Hour, func() { fired.Add(1) })
	defer d.Stop()

	d.Trigger()
	d.Flush()

	if got := fired.Load(); got != 1 {
		t.Errorf("flush fired %d times, want 1", got)
	}

	// Nothing pending: flush is a no-op.
	d.Flush()
	if got := fired.Load(); got != 1 {
		t.Errorf("idle flush fired action: %d", got)
	}
}

func TestDebouncerFlushAfterFireDoesNotRepeat(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	d.Trigger()
	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Fatal("timer never fired")
	}

	// The action already ran; a flush now has nothing to do.
	d.Flush()
	if got := fired.Load(); got != 1 {
		t.Errorf("flush after fire ran the action again: %d", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Errorf("stopped debouncer still fired %d times", got)
	}
}
