package proctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
)

// manualScheduler lets tests advance time deterministically.
type manualScheduler struct {
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) func() {
	mt := &manualTimer{at: d, fn: fn}
	s.timers = append(s.timers, mt)
	return func() { mt.stopped = true }
}

// advance fires every pending timer due within d of its arming.
func (s *manualScheduler) advance(d time.Duration) {
	for _, mt := range s.timers {
		if !mt.stopped && !mt.fired && mt.at <= d {
			mt.fired = true
			mt.fn()
		}
	}
}

func violation(kind model.ViolationKind, ts int64) model.SecurityViolation {
	return model.SecurityViolation{Kind: kind, Timestamp: ts}
}

func TestTransientViolationAutoDismisses(t *testing.T) {
	sched := &manualScheduler{}
	p := NewPresenter(sched, nil, nil)

	p.Observe(violation(model.ViolationTabSwitch, 1000))
	require.NotNil(t, p.Current())

	sched.advance(DismissDelay)
	assert.Nil(t, p.Current(), "tab-switch dismisses after the delay")
}

func TestFullscreenExitPersists(t *testing.T) {
	sched := &manualScheduler{}
	p := NewPresenter(sched, nil, nil)

	p.Observe(violation(model.ViolationFullscreenExit, 1000))
	sched.advance(10 * DismissDelay)

	current := p.Current()
	require.NotNil(t, current, "fullscreen-exit has no auto-dismiss")
	assert.Equal(t, model.ViolationFullscreenExit, current.Kind)
}

func TestNewViolationReplacesAndRestartsTimer(t *testing.T) {
	sched := &manualScheduler{}
	p := NewPresenter(sched, nil, nil)

	p.Observe(violation(model.ViolationTabSwitch, 1000))
	p.Observe(violation(model.ViolationRightClick, 2000))

	current := p.Current()
	require.NotNil(t, current)
	assert.Equal(t, model.ViolationRightClick, current.Kind, "only the newest violation is surfaced")

	// The first timer was canceled; only the second can dismiss.
	require.Len(t, sched.timers, 2)
	assert.True(t, sched.timers[0].stopped)

	sched.advance(DismissDelay)
	assert.Nil(t, p.Current())
}

func TestAcknowledgeFullscreenExitRetriesFullscreen(t *testing.T) {
	sched := &manualScheduler{}
	retries := 0
	p := NewPresenter(sched, func() { retries++ }, nil)

	p.Observe(violation(model.ViolationFullscreenExit, 1000))
	p.Acknowledge()

	assert.Nil(t, p.Current())
	assert.Equal(t, 1, retries, "fullscreen-exit ack re-attempts entry")

	// Acknowledging a transient kind does not retry.
	p.Observe(violation(model.ViolationTabSwitch, 2000))
	p.Acknowledge()
	assert.Equal(t, 1, retries)
}

func TestEscalationThreshold(t *testing.T) {
	sched := &manualScheduler{}
	p := NewPresenter(sched, nil, nil)

	p.Observe(violation(model.ViolationTabSwitch, 1))
	p.Observe(violation(model.ViolationRightClick, 2))
	assert.False(t, p.Escalated())

	p.Observe(violation(model.ViolationCopyPaste, 3))
	assert.True(t, p.Escalated(), "note appears at the third violation")

	// Escalation is informational and survives dismissal.
	sched.advance(DismissDelay)
	assert.Nil(t, p.Current())
	assert.True(t, p.Escalated())
}

func TestNotifyReceivesDisplayChanges(t *testing.T) {
	sched := &manualScheduler{}
	var alerts []Alert
	p := NewPresenter(sched, nil, func(a Alert) { alerts = append(alerts, a) })

	p.Observe(violation(model.ViolationTabSwitch, 1000))
	sched.advance(DismissDelay)

	require.Len(t, alerts, 2)
	require.NotNil(t, alerts[0].Violation)
	assert.Equal(t, model.ViolationTabSwitch, alerts[0].Violation.Kind)
	assert.Nil(t, alerts[1].Violation, "dismissal emits an empty alert")
}

func TestReset(t *testing.T) {
	sched := &manualScheduler{}
	p := NewPresenter(sched, nil, nil)

	p.Observe(violation(model.ViolationTabSwitch, 1))
	p.Observe(violation(model.ViolationTabSwitch, 2))
	p.Observe(violation(model.ViolationTabSwitch, 3))
	require.True(t, p.Escalated())

	p.Reset()
	assert.Nil(t, p.Current())
	assert.False(t, p.Escalated())
}
