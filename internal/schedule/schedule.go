// Package schedule wraps timer primitives behind small interfaces so the
// alert policy and the countdown loop can be driven deterministically in
// tests instead of sleeping on real timers.
package schedule

import (
	"sync"
	"time"
)

// Scheduler runs a function once after a delay. The returned cancel func
// stops the pending call; canceling after the call fired is a no-op.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// New returns a Scheduler backed by time.AfterFunc.
func New() Scheduler {
	return timerScheduler{}
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Repeater invokes a callback on a fixed interval until stopped. It backs
// the 1-second exam countdown. Start and Stop are explicit; Stop waits for
// the loop goroutine to exit.
type Repeater struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewRepeater creates a stopped Repeater with the given interval.
func NewRepeater(interval time.Duration) *Repeater {
	return &Repeater{interval: interval}
}

// Start begins invoking fn every interval. Calling Start on a running
// Repeater is a no-op.
func (r *Repeater) Start(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}(r.stop, r.done)
}

// Stop halts the loop and blocks until it has exited. Stopping a stopped
// Repeater is a no-op.
func (r *Repeater) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
