// Package debounce coalesces rapid input into a single call issued after a
// quiescence window.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds the latest pushed value and delivers it once no new value
// has arrived for the window. Each Push, Cancel or Flush advances a
// sequence number; a receiver can compare the sequence it was called with
// against Seq to detect that its work has been superseded.
type Debouncer[T any] struct {
	mu         sync.Mutex
	window     time.Duration
	fn         func(seq uint64, value T)
	timer      *time.Timer
	pending    T
	hasPending bool
	seq        uint64
	stopped    bool
}

// New returns a debouncer calling fn on its own goroutine.
func New[T any](window time.Duration, fn func(seq uint64, value T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, fn: fn}
}

// Push replaces the pending value and restarts the window. It returns the
// sequence number the eventual call will carry.
func (d *Debouncer[T]) Push(value T) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return d.seq
	}

	d.seq++
	seq := d.seq
	d.pending = value
	d.hasPending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })

	return seq
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || !d.hasPending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.hasPending = false
	var zero T
	d.pending = zero
	d.mu.Unlock()

	d.fn(seq, value)
}

// Cancel drops the pending value, if any, and supersedes any call in
// progress. It reports whether a value was dropped.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	dropped := d.hasPending
	d.hasPending = false
	var zero T
	d.pending = zero
	return dropped
}

// Flush delivers the pending value immediately on the calling goroutine.
// It reports whether there was anything to deliver.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.hasPending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	seq := d.seq
	value := d.pending
	d.hasPending = false
	var zero T
	d.pending = zero
	d.mu.Unlock()

	d.fn(seq, value)
	return true
}

// Pending returns the value waiting for the window to elapse.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.hasPending
}

// Seq returns the current sequence number.
func (d *Debouncer[T]) Seq() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Window returns the quiescence window.
func (d *Debouncer[T]) Window() time.Duration {
	return d.window
}

// Stop cancels pending work permanently.
func (d *Debouncer[T]) Stop() {
	d.Cancel()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
