package proctor

import (
	"strings"

	"github.com/verisant/proctor-backend/internal/model"
)

// KeyEvent is a raw keyboard chord reported by the frontend, mirroring the
// browser KeyboardEvent fields the detector cares about.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Meta  bool   `json:"meta"`
}

// Chord renders the event as a short human-readable string for the
// violation details field.
func (e KeyEvent) Chord() string {
	var parts []string
	if e.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if e.Meta {
		parts = append(parts, "Cmd")
	}
	if e.Alt {
		parts = append(parts, "Alt")
	}
	if e.Shift {
		parts = append(parts, "Shift")
	}
	parts = append(parts, e.Key)
	return strings.Join(parts, "+")
}

// ClassifyKey maps a key chord to a violation kind. The second return is
// false when the chord is allowed; every blocked chord also requires the
// client to suppress the browser default.
func ClassifyKey(ev KeyEvent) (model.ViolationKind, bool) {
	key := strings.ToLower(ev.Key)
	accel := ev.Ctrl || ev.Meta

	switch {
	case ev.Key == "F5":
		return model.ViolationRefresh, true
	case ev.Ctrl && key == "r":
		// Plain and hard reload (Ctrl+R, Ctrl+Shift+R).
		return model.ViolationRefresh, true
	case ev.Alt && (ev.Key == "ArrowLeft" || ev.Key == "ArrowRight"):
		return model.ViolationShortcut, true
	case ev.Key == "F11":
		return model.ViolationShortcut, true
	case ev.Key == "F12":
		return model.ViolationShortcut, true
	case ev.Ctrl && ev.Shift && (key == "i" || key == "j"):
		return model.ViolationShortcut, true
	case ev.Ctrl && key == "u":
		return model.ViolationShortcut, true
	case accel && (key == "c" || key == "v" || key == "a" || key == "x"):
		return model.ViolationCopyPaste, true
	case accel && strings.ContainsAny(key, "psfgntwl") && len(key) == 1:
		return model.ViolationShortcut, true
	}
	return "", false
}
