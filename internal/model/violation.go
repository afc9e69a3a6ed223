package model

// ViolationKind classifies a detected breach of the exam's browser-usage
// policy. The values are wire-level tags shared with the frontend.
type ViolationKind string

const (
	ViolationTabSwitch      ViolationKind = "tab-switch"
	ViolationFullscreenExit ViolationKind = "fullscreen-exit"
	ViolationCameraOff      ViolationKind = "camera-off"
	ViolationRightClick     ViolationKind = "right-click"
	ViolationCopyPaste      ViolationKind = "copy-paste"
	ViolationRefresh        ViolationKind = "refresh"
	ViolationShortcut       ViolationKind = "shortcut"
)

// SecurityViolation is one entry in the append-only violation log.
// Timestamp is milliseconds since the Unix epoch, matching what the
// frontend records for its own overlay.
type SecurityViolation struct {
	Kind      ViolationKind `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Details   string        `json:"details,omitempty"`
}
