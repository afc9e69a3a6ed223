package proctor

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
)

// fakeFullscreen records capability calls and can simulate denial.
type fakeFullscreen struct {
	requests int
	exits    int
	denied   bool
}

func (f *fakeFullscreen) RequestFullscreen() error {
	f.requests++
	if f.denied {
		return errors.New("permission denied")
	}
	return nil
}

func (f *fakeFullscreen) ExitFullscreen() error {
	f.exits++
	return nil
}

func newTestMonitor(fs *fakeFullscreen) *Monitor {
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return NewMonitor(fs, zerolog.Nop(), func() time.Time { return clock })
}

func TestContextMenuLogsExactlyOneViolation(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})

	suppress := m.OnContextMenu()

	assert.True(t, suppress, "default action must be suppressed")
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, model.ViolationRightClick, m.Violations()[0].Kind)
}

func TestRepeatedRefreshKeysLogInOrder(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})

	assert.True(t, m.OnKeyDown(KeyEvent{Key: "F5"}))
	assert.True(t, m.OnKeyDown(KeyEvent{Key: "F5"}))

	log := m.Violations()
	require.Len(t, log, 2, "no deduplication across raw events")
	assert.Equal(t, model.ViolationRefresh, log[0].Kind)
	assert.Equal(t, model.ViolationRefresh, log[1].Kind)
}

func TestKeyClassification(t *testing.T) {
	cases := []struct {
		name     string
		ev       KeyEvent
		kind     model.ViolationKind
		blocked  bool
	}{
		{"F5", KeyEvent{Key: "F5"}, model.ViolationRefresh, true},
		{"ctrl+r", KeyEvent{Key: "r", Ctrl: true}, model.ViolationRefresh, true},
		{"ctrl+shift+r", KeyEvent{Key: "R", Ctrl: true, Shift: true}, model.ViolationRefresh, true},
		{"alt+left", KeyEvent{Key: "ArrowLeft", Alt: true}, model.ViolationShortcut, true},
		{"alt+right", KeyEvent{Key: "ArrowRight", Alt: true}, model.ViolationShortcut, true},
		{"F11", KeyEvent{Key: "F11"}, model.ViolationShortcut, true},
		{"F12", KeyEvent{Key: "F12"}, model.ViolationShortcut, true},
		{"devtools inspect", KeyEvent{Key: "I", Ctrl: true, Shift: true}, model.ViolationShortcut, true},
		{"devtools console", KeyEvent{Key: "j", Ctrl: true, Shift: true}, model.ViolationShortcut, true},
		{"view source", KeyEvent{Key: "u", Ctrl: true}, model.ViolationShortcut, true},
		{"ctrl+c", KeyEvent{Key: "c", Ctrl: true}, model.ViolationCopyPaste, true},
		{"cmd+v", KeyEvent{Key: "v", Meta: true}, model.ViolationCopyPaste, true},
		{"ctrl+a", KeyEvent{Key: "a", Ctrl: true}, model.ViolationCopyPaste, true},
		{"ctrl+x", KeyEvent{Key: "x", Ctrl: true}, model.ViolationCopyPaste, true},
		{"ctrl+p", KeyEvent{Key: "p", Ctrl: true}, model.ViolationShortcut, true},
		{"cmd+s", KeyEvent{Key: "s", Meta: true}, model.ViolationShortcut, true},
		{"ctrl+t", KeyEvent{Key: "t", Ctrl: true}, model.ViolationShortcut, true},
		{"ctrl+w", KeyEvent{Key: "w", Ctrl: true}, model.ViolationShortcut, true},
		{"ctrl+l", KeyEvent{Key: "l", Ctrl: true}, model.ViolationShortcut, true},
		{"plain letter", KeyEvent{Key: "c"}, "", false},
		{"plain arrow", KeyEvent{Key: "ArrowLeft"}, "", false},
		{"shift only", KeyEvent{Key: "C", Shift: true}, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, blocked := ClassifyKey(tc.ev)
			assert.Equal(t, tc.blocked, blocked)
			if tc.blocked {
				assert.Equal(t, tc.kind, kind)
			}
		})
	}
}

func TestVisibilityHiddenIsTabSwitch(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})
	m.OnVisibilityHidden()

	require.Len(t, m.Violations(), 1)
	assert.Equal(t, model.ViolationTabSwitch, m.Violations()[0].Kind)
}

func TestBeforeUnloadPromptsAndLogsTabSwitch(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})

	assert.True(t, m.OnBeforeUnload())
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, model.ViolationTabSwitch, m.Violations()[0].Kind)
}

func TestFullscreenStateMachine(t *testing.T) {
	fs := &fakeFullscreen{}
	m := newTestMonitor(fs)

	assert.False(t, m.InFullscreen(), "initial state is NotFullscreen")

	m.RequestFullscreen()
	assert.True(t, m.InFullscreen())
	assert.Equal(t, 1, fs.requests)

	// Environment-reported exit while in fullscreen is a violation.
	m.OnFullscreenChanged(false)
	assert.False(t, m.InFullscreen())
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, model.ViolationFullscreenExit, m.Violations()[0].Kind)

	// A change notification while already out logs nothing.
	m.OnFullscreenChanged(false)
	assert.Len(t, m.Violations(), 1)
}

func TestDeniedFullscreenRequestIsSilent(t *testing.T) {
	fs := &fakeFullscreen{denied: true}
	m := newTestMonitor(fs)

	m.RequestFullscreen()

	assert.False(t, m.InFullscreen(), "denied request stays NotFullscreen")
	assert.Empty(t, m.Violations(), "permission failures are never violations")
}

func TestExplicitExitDoesNotLog(t *testing.T) {
	fs := &fakeFullscreen{}
	m := newTestMonitor(fs)

	m.RequestFullscreen()
	m.ExitFullscreen()
	// The environment still delivers its own change notification.
	m.OnFullscreenChanged(false)

	assert.Empty(t, m.Violations())
	assert.Equal(t, 1, fs.exits)
	assert.False(t, m.InFullscreen())
}

func TestCameraOff(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})

	m.OnCameraStateChanged(true)
	assert.Empty(t, m.Violations())

	m.OnCameraStateChanged(false)
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, model.ViolationCameraOff, m.Violations()[0].Kind)
}

func TestSinkObservesEveryViolation(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})

	var seen []model.ViolationKind
	m.SetSink(func(v model.SecurityViolation) { seen = append(seen, v.Kind) })

	m.OnVisibilityHidden()
	m.OnContextMenu()

	assert.Equal(t, []model.ViolationKind{model.ViolationTabSwitch, model.ViolationRightClick}, seen)
}

func TestClearViolations(t *testing.T) {
	m := newTestMonitor(&fakeFullscreen{})
	m.OnVisibilityHidden()
	m.ClearViolations()

	assert.Zero(t, m.Count())
	assert.Empty(t, m.Violations())
}
