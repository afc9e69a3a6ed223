package proctor

import (
	"sync"
	"time"

	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/schedule"
)

const (
	// DismissDelay is how long a transient violation overlay stays up.
	DismissDelay = 5 * time.Second
	// EscalationThreshold is the violation count at which the candidate
	// sees the non-blocking escalation note.
	EscalationThreshold = 3
)

// Alert is what the candidate currently sees: at most one violation plus
// an escalation flag once the total crosses the threshold.
type Alert struct {
	Violation *model.SecurityViolation `json:"violation,omitempty"`
	Escalated bool                     `json:"escalated"`
}

// Presenter decides which violation is surfaced and for how long. Every
// observed violation replaces the current overlay and restarts the
// dismissal timer; fullscreen-exit is the only kind that persists until
// the candidate acknowledges it, and acknowledging it also re-attempts
// fullscreen entry.
//
// Presenter is safe for concurrent use: the dismissal timer fires on a
// timer goroutine.
type Presenter struct {
	mu     sync.Mutex
	sched  schedule.Scheduler
	retry  func() // re-request fullscreen, fullscreen-exit ack only
	notify func(Alert)

	current *model.SecurityViolation
	cancel  func()
	total   int
}

// NewPresenter creates a Presenter. retry is invoked when a
// fullscreen-exit violation is acknowledged; notify (optional) is invoked
// with the new Alert on every display change.
func NewPresenter(sched schedule.Scheduler, retry func(), notify func(Alert)) *Presenter {
	return &Presenter{sched: sched, retry: retry, notify: notify}
}

// Observe handles a freshly appended violation.
func (p *Presenter) Observe(v model.SecurityViolation) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	shown := v
	p.current = &shown
	p.total++

	if v.Kind != model.ViolationFullscreenExit {
		stamp := shown.Timestamp
		p.cancel = p.sched.AfterFunc(DismissDelay, func() {
			p.dismissIf(stamp)
		})
	}
	alert := p.alertLocked()
	p.mu.Unlock()

	p.emit(alert)
}

// Acknowledge clears the current overlay. For fullscreen-exit it also
// re-attempts fullscreen entry.
func (p *Presenter) Acknowledge() {
	p.mu.Lock()
	wasFullscreenExit := p.current != nil && p.current.Kind == model.ViolationFullscreenExit
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = nil
	alert := p.alertLocked()
	p.mu.Unlock()

	if wasFullscreenExit && p.retry != nil {
		p.retry()
	}
	p.emit(alert)
}

// Current returns the violation being displayed, or nil.
func (p *Presenter) Current() *model.SecurityViolation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	shown := *p.current
	return &shown
}

// Escalated reports whether the escalation note is shown.
func (p *Presenter) Escalated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total >= EscalationThreshold
}

// Reset clears the overlay and the escalation counter. Used together with
// Monitor.ClearViolations when the candidate returns to the review screen.
func (p *Presenter) Reset() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = nil
	p.total = 0
	alert := p.alertLocked()
	p.mu.Unlock()

	p.emit(alert)
}

// dismissIf auto-dismisses the overlay, but only if the displayed
// violation is still the one the timer was armed for.
func (p *Presenter) dismissIf(stamp int64) {
	p.mu.Lock()
	if p.current == nil || p.current.Timestamp != stamp {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.cancel = nil
	alert := p.alertLocked()
	p.mu.Unlock()

	p.emit(alert)
}

func (p *Presenter) alertLocked() Alert {
	alert := Alert{Escalated: p.total >= EscalationThreshold}
	if p.current != nil {
		shown := *p.current
		alert.Violation = &shown
	}
	return alert
}

func (p *Presenter) emit(a Alert) {
	if p.notify != nil {
		p.notify(a)
	}
}
