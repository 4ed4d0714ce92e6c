// Package events carries the named event types the core publishes to
// whatever UI or collaborator layer is attached. The core never talks
// to a UI directly; it publishes through a Dispatcher and the attached
// layers subscribe.
package events

import (
	"photobooth/internal/domain/filter"
)

// Event is any published payload. Name returns the stable snake_case
// event identifier used in logs and over the wire.
type Event interface {
	Name() string
}

// SessionStarted fires when a new session becomes active.
type SessionStarted struct {
	SessionID   string
	EventRef    string
	TemplateRef string
	TotalPhotos int
}

func (SessionStarted) Name() string { return "session_started" }

// CountdownStarted fires when a photo slot's countdown begins.
type CountdownStarted struct {
	SlotIndex int
	Seconds   int
}

func (CountdownStarted) Name() string { return "countdown_started" }

// CountdownTick fires once per second while counting down.
type CountdownTick struct {
	SlotIndex int
	Remaining int
}

func (CountdownTick) Name() string { return "countdown_tick" }

// CountdownCompleted fires when the countdown hits zero, immediately
// before the hardware trigger.
type CountdownCompleted struct {
	SlotIndex int
}

func (CountdownCompleted) Name() string { return "countdown_completed" }

// CaptureStarted fires when the hardware trigger has been accepted.
type CaptureStarted struct {
	SlotIndex int
	IsRetake  bool
}

func (CaptureStarted) Name() string { return "capture_started" }

// CaptureCompleted fires once the captured file has been transferred
// and recorded on the session.
type CaptureCompleted struct {
	SlotIndex int
	Path      string
	IsRetake  bool
}

func (CaptureCompleted) Name() string { return "capture_completed" }

// PhotoProcessed reports sequence progress after each recorded photo.
type PhotoProcessed struct {
	Index      int
	Total      int
	IsComplete bool
}

func (PhotoProcessed) Name() string { return "photo_processed" }

// RetakeRequested fires when the operator flags a slot for reshoot.
type RetakeRequested struct {
	SlotIndex int
}

func (RetakeRequested) Name() string { return "retake_requested" }

// RetakeCompleted fires when a flagged slot has been recaptured.
type RetakeCompleted struct {
	SlotIndex int
}

func (RetakeCompleted) Name() string { return "retake_completed" }

// FilterSelectionRequested opens the interactive filter window.
type FilterSelectionRequested struct {
	Choices []filter.Choice
	Seconds int
}

func (FilterSelectionRequested) Name() string { return "filter_selection_requested" }

// FilterSelected reports the chosen filter (possibly None).
type FilterSelected struct {
	Choice filter.Choice
}

func (FilterSelected) Name() string { return "filter_selected" }

// CompositionStarted fires when rendering begins.
type CompositionStarted struct {
	SessionID string
}

func (CompositionStarted) Name() string { return "composition_started" }

// CompositionCompleted fires when the artifacts are on disk.
type CompositionCompleted struct {
	SessionID   string
	DisplayPath string
	PrintPath   string
}

func (CompositionCompleted) Name() string { return "composition_completed" }

// CompositionError fires when rendering fails; no partial artifact is
// persisted.
type CompositionError struct {
	SessionID string
	Err       string
}

func (CompositionError) Name() string { return "composition_error" }

// SessionCompleted fires when the session reaches Complete.
type SessionCompleted struct {
	SessionID           string
	ComposedDisplayPath string
	ComposedPrintPath   string
}

func (SessionCompleted) Name() string { return "session_completed" }

// SessionCleared fires when the booth returns to idle.
type SessionCleared struct {
	SessionID string
}

func (SessionCleared) Name() string { return "session_cleared" }

// SessionError reports a failure with the operation that raised it.
// Fatal session errors return the UI to the idle affordance; non-fatal
// ones (upload, print) leave the session completed with the failure
// noted.
type SessionError struct {
	Operation string
	Err       string
	Fatal     bool
}

func (SessionError) Name() string { return "session_error" }
