package websocket

import (
	"encoding/json"

	"github.com/verisant/proctor-backend/internal/exam"
	"github.com/verisant/proctor-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionNavigate Action = "navigate"
	ActionAnswer   Action = "answer"
	ActionClear    Action = "clear"
	ActionMark     Action = "mark"
	ActionSignal   Action = "signal"
	ActionAckAlert Action = "ack_alert"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Signal names the raw browser events the frontend forwards verbatim.
type Signal string

const (
	SignalVisibilityHidden Signal = "visibility-hidden"
	SignalFullscreenChange Signal = "fullscreen-change"
	SignalContextMenu      Signal = "context-menu"
	SignalKeyDown          Signal = "keydown"
	SignalBeforeUnload     Signal = "before-unload"
	SignalCameraState      Signal = "camera-state"
)

// KeyPayload mirrors the browser KeyboardEvent fields the monitor needs.
type KeyPayload struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Meta  bool   `json:"meta"`
}

// RequestPayload is the single inbound frame shape. Action selects which
// fields are meaningful: Index for navigation and answer operations, Value
// for answers, Signal/Active/Key for forwarded browser events.
type RequestPayload struct {
	Action Action          `json:"action"`
	Index  *int            `json:"index,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Signal Signal          `json:"signal,omitempty"`
	Active *bool           `json:"active,omitempty"`
	Key    *KeyPayload     `json:"key,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventAlert      Event = "alert"
	EventCountdown  Event = "countdown"
	EventFullscreen Event = "fullscreen"
	EventSignalAck  Event = "signal_ack"
	EventSubmitted  Event = "submitted"
	EventExpired    Event = "expired"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse carries the palette state after every mutating action:
// the active index, the derived per-question statuses, and the rollup
// counts shown on the palette legend.
type StateResponse struct {
	Event        Event             `json:"event"`
	CurrentIndex int               `json:"current_index"`
	Statuses     []exam.Status     `json:"statuses"`
	Counts       exam.StatusCounts `json:"counts"`
}

// AlertResponse carries the violation overlay the candidate should see.
// A nil violation means the overlay was dismissed.
type AlertResponse struct {
	Event     Event                    `json:"event"`
	Violation *model.SecurityViolation `json:"violation,omitempty"`
	Escalated bool                     `json:"escalated"`
}

// CountdownResponse is the 1-second remaining-time tick.
type CountdownResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// Fullscreen directives the server sends down to the client.
const (
	FullscreenEnter = "enter"
	FullscreenExit  = "exit"
)

// FullscreenResponse instructs the client to enter or exit fullscreen.
type FullscreenResponse struct {
	Event   Event  `json:"event"`
	Command string `json:"command"`
}

// SignalAckResponse answers a forwarded browser signal: whether the
// client should suppress the default browser behavior, and for unload
// attempts whether to show the native confirmation prompt.
type SignalAckResponse struct {
	Event    Event  `json:"event"`
	Signal   Signal `json:"signal"`
	Suppress bool   `json:"suppress"`
	Prompt   bool   `json:"prompt,omitempty"`
}

// SubmittedResponse confirms the final submission.
type SubmittedResponse struct {
	Event       Event  `json:"event"`
	SubmittedAt string `json:"submitted_at"`
}

// ExpiredResponse tells the client the time budget ran out and the
// submission was forced server-side.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
