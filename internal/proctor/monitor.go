// Package proctor implements the security-violation monitor: it classifies
// raw browser signals forwarded by the exam frontend, keeps the append-only
// violation log, owns the fullscreen state machine, and decides which
// violation the candidate sees and for how long.
package proctor

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/model"
)

// FullscreenController is the host-environment capability for entering and
// leaving fullscreen. Over a live connection the implementation sends a
// directive frame to the frontend; tests plug in a fake.
type FullscreenController interface {
	RequestFullscreen() error
	ExitFullscreen() error
}

// SignalHandler receives the raw browser signals the frontend forwards.
// The boolean returns tell the client whether to suppress the default
// browser action (or, for unload, whether to show the native prompt).
type SignalHandler interface {
	OnVisibilityHidden()
	OnFullscreenChanged(active bool)
	OnContextMenu() (suppress bool)
	OnKeyDown(ev KeyEvent) (suppress bool)
	OnBeforeUnload() (prompt bool)
	OnCameraStateChanged(active bool)
}

// SignalSource delivers browser signals to a handler. The production
// source is the WebSocket message loop; tests synthesize events directly.
type SignalSource interface {
	Subscribe(h SignalHandler) (unsubscribe func())
}

// Monitor detects and logs security-relevant browser events. Each raw
// signal appends at most one violation, in delivery order; the log is
// never truncated, reordered, or deduplicated.
//
// A Monitor is driven by a single signal-delivery goroutine and is not
// safe for concurrent use.
type Monitor struct {
	fs    FullscreenController
	log   zerolog.Logger
	clock func() time.Time

	inFullscreen bool
	explicitExit bool
	violations   []model.SecurityViolation

	// sink, when set, observes every appended violation. The session
	// service uses it to queue violations for persistence.
	sink func(model.SecurityViolation)
}

// NewMonitor creates a Monitor in the NotFullscreen state with an empty
// log. clock may be nil (time.Now).
func NewMonitor(fs FullscreenController, log zerolog.Logger, clock func() time.Time) *Monitor {
	if clock == nil {
		clock = time.Now
	}
	return &Monitor{
		fs:    fs,
		log:   log.With().Str("component", "proctor_monitor").Logger(),
		clock: clock,
	}
}

// SetSink registers an observer called for every appended violation.
func (m *Monitor) SetSink(sink func(model.SecurityViolation)) { m.sink = sink }

// InFullscreen reports the current fullscreen state.
func (m *Monitor) InFullscreen() bool { return m.inFullscreen }

// Violations returns a copy of the violation log in detection order.
func (m *Monitor) Violations() []model.SecurityViolation {
	out := make([]model.SecurityViolation, len(m.violations))
	copy(out, m.violations)
	return out
}

// Count returns the number of logged violations.
func (m *Monitor) Count() int { return len(m.violations) }

// ClearViolations empties the log. Called when the candidate returns to
// the review screen.
func (m *Monitor) ClearViolations() { m.violations = nil }

// RequestFullscreen attempts the transition to InFullscreen. A denied
// request is logged at debug level only; permission failures are never
// surfaced as violations.
func (m *Monitor) RequestFullscreen() {
	if err := m.fs.RequestFullscreen(); err != nil {
		m.log.Debug().Err(err).Msg("fullscreen request denied")
		return
	}
	m.inFullscreen = true
}

// ExitFullscreen is the explicit benign exit used on exam completion. It
// must not flow through the violation path: the environment's follow-up
// fullscreen-change notification is swallowed via explicitExit.
func (m *Monitor) ExitFullscreen() {
	m.explicitExit = true
	if err := m.fs.ExitFullscreen(); err != nil {
		m.log.Debug().Err(err).Msg("fullscreen exit failed")
	}
	m.inFullscreen = false
}

// OnFullscreenChanged handles the environment's own fullscreen-change
// notification. Leaving fullscreen outside the explicit-exit path is a
// violation.
func (m *Monitor) OnFullscreenChanged(active bool) {
	if active {
		m.inFullscreen = true
		m.explicitExit = false
		return
	}
	wasFullscreen := m.inFullscreen
	m.inFullscreen = false
	if !wasFullscreen {
		return
	}
	if m.explicitExit {
		m.explicitExit = false
		return
	}
	m.record(model.ViolationFullscreenExit, "")
}

// OnVisibilityHidden handles the page becoming hidden (tab switch or
// minimize).
func (m *Monitor) OnVisibilityHidden() {
	m.record(model.ViolationTabSwitch, "page hidden")
}

// OnContextMenu handles a context-menu request. Always suppressed.
func (m *Monitor) OnContextMenu() bool {
	m.record(model.ViolationRightClick, "")
	return true
}

// OnKeyDown classifies a key chord. Unmatched chords pass through without
// logging; matched chords log exactly one violation and are suppressed.
func (m *Monitor) OnKeyDown(ev KeyEvent) bool {
	kind, blocked := ClassifyKey(ev)
	if !blocked {
		return false
	}
	m.record(kind, ev.Chord())
	return true
}

// OnBeforeUnload handles an unload attempt. The client shows the native
// confirmation prompt; the attempt itself counts as a tab switch.
func (m *Monitor) OnBeforeUnload() bool {
	m.record(model.ViolationTabSwitch, "unload attempt")
	return true
}

// OnCameraStateChanged logs a violation when the camera feed goes
// inactive mid-exam.
func (m *Monitor) OnCameraStateChanged(active bool) {
	if active {
		return
	}
	m.record(model.ViolationCameraOff, "")
}

func (m *Monitor) record(kind model.ViolationKind, details string) {
	v := model.SecurityViolation{
		Kind:      kind,
		Timestamp: m.clock().UnixMilli(),
		Details:   details,
	}
	m.violations = append(m.violations, v)
	m.log.Warn().
		Str("kind", string(kind)).
		Str("details", details).
		Int("total", len(m.violations)).
		Msg("violation recorded")
	if m.sink != nil {
		m.sink(v)
	}
}
