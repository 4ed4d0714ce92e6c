package session

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	ErrInvalidPhotoCount      = errors.New("session requires at least one photo")
	ErrAlreadyActive          = errors.New("a session is already active")
	ErrNotActive              = errors.New("session is not active")
	ErrSequenceFull           = errors.New("capture sequence is already complete")
	ErrSequenceIncomplete     = errors.New("capture sequence is not complete")
	ErrRetakeIndexOutOfRange  = errors.New("retake index is outside the captured set")
	ErrCompositionUnavailable = errors.New("composed display artifact is not set")
	ErrInvalidTransition      = errors.New("invalid session state transition")
)

// State is the lifecycle state of a capture session.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateReviewing State = "reviewing"
	StateFiltering State = "filtering"
	StateComposing State = "composing"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"
)

// Session is one guest's capture-to-composition lifecycle.
// CapturedPhotoPaths is ordered by capture and never exceeds
// TotalPhotosNeeded; retakes overwrite in place, never append.
type Session struct {
	ID                  string
	EventRef            string
	TemplateRef         string
	TotalPhotosNeeded   int
	CapturedPhotoPaths  []string
	CurrentPhotoIndex   int
	State               State
	ComposedDisplayPath string
	ComposedPrintPath   string
	StartedAt           time.Time
	CompletedAt         time.Time
}

// New creates an Active session for the given event and template.
// PRE: totalPhotosNeeded >= 1
// POST: Returns a session in StateActive with an empty captured set
func New(id, eventRef, templateRef string, totalPhotosNeeded int, now time.Time) (Session, error) {
	if totalPhotosNeeded < 1 {
		return Session{}, ErrInvalidPhotoCount
	}
	return Session{
		ID:                 id,
		EventRef:           eventRef,
		TemplateRef:        templateRef,
		TotalPhotosNeeded:  totalPhotosNeeded,
		CapturedPhotoPaths: []string{},
		State:              StateActive,
		StartedAt:          now,
	}, nil
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id cannot be empty")
	}
	if s.TotalPhotosNeeded < 1 {
		return ErrInvalidPhotoCount
	}
	if len(s.CapturedPhotoPaths) > s.TotalPhotosNeeded {
		return fmt.Errorf("captured %d photos but only %d needed", len(s.CapturedPhotoPaths), s.TotalPhotosNeeded)
	}
	if s.StartedAt.IsZero() {
		return errors.New("started_at cannot be zero")
	}
	return nil
}

// IsActive returns true while the session occupies the booth.
// INVARIANT: Session fields are not mutated
func (s Session) IsActive() bool {
	return s.State != StateIdle && s.State != StateCancelled
}

// SequenceComplete reports whether every required photo has been captured.
func (s Session) SequenceComplete() bool {
	return s.CurrentPhotoIndex >= s.TotalPhotosNeeded
}

// RecordCapturedPhoto stores a captured photo path on the session.
// A retake overwrites the flagged slot and leaves CurrentPhotoIndex
// unchanged; a normal capture appends and advances the index.
// PRE: Session is in StateActive (or StateReviewing for retakes)
// POST: Returns true when the full sequence is captured
func (s *Session) RecordCapturedPhoto(path string, isRetake bool, retakeIndex int) (bool, error) {
	if s.State != StateActive && s.State != StateReviewing {
		return false, ErrNotActive
	}
	if isRetake {
		if retakeIndex < 0 || retakeIndex >= len(s.CapturedPhotoPaths) {
			return false, ErrRetakeIndexOutOfRange
		}
		s.CapturedPhotoPaths[retakeIndex] = path
		return s.SequenceComplete(), nil
	}
	if s.SequenceComplete() {
		return false, ErrSequenceFull
	}
	s.CapturedPhotoPaths = append(s.CapturedPhotoPaths, path)
	s.CurrentPhotoIndex++
	return s.SequenceComplete(), nil
}

// ReplacePhotoPath swaps a captured path for its processed output,
// used by the filter stage.
// PRE: index is within the captured set
// POST: Only the given slot changes
func (s *Session) ReplacePhotoPath(index int, path string) error {
	if index < 0 || index >= len(s.CapturedPhotoPaths) {
		return ErrRetakeIndexOutOfRange
	}
	s.CapturedPhotoPaths[index] = path
	return nil
}

// BeginReview moves the session into the retake review window.
// PRE: Full sequence has been captured
// POST: State is StateReviewing
func (s *Session) BeginReview() error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	if !s.SequenceComplete() {
		return ErrSequenceIncomplete
	}
	s.State = StateReviewing
	return nil
}

// BeginFiltering moves the session into the filter selection window.
// POST: State is StateFiltering
func (s *Session) BeginFiltering() error {
	if s.State != StateActive && s.State != StateReviewing {
		return ErrInvalidTransition
	}
	if !s.SequenceComplete() {
		return ErrSequenceIncomplete
	}
	s.State = StateFiltering
	return nil
}

// BeginComposing moves the session into composition. Composition never
// runs against an incomplete capture set.
// POST: State is StateComposing
func (s *Session) BeginComposing() error {
	switch s.State {
	case StateActive, StateReviewing, StateFiltering:
	default:
		return ErrInvalidTransition
	}
	if !s.SequenceComplete() {
		return ErrSequenceIncomplete
	}
	s.State = StateComposing
	return nil
}

// SetComposedPaths records the composition outputs on the session.
// PRE: State is StateComposing
func (s *Session) SetComposedPaths(displayPath, printPath string) error {
	if s.State != StateComposing {
		return ErrInvalidTransition
	}
	if displayPath == "" {
		return ErrCompositionUnavailable
	}
	s.ComposedDisplayPath = displayPath
	s.ComposedPrintPath = printPath
	return nil
}

// Complete finishes the session after a successful composition.
// PRE: ComposedDisplayPath is set
// POST: State is StateComplete
func (s *Session) Complete(now time.Time) error {
	if s.State != StateComposing {
		return ErrInvalidTransition
	}
	if s.ComposedDisplayPath == "" {
		return ErrCompositionUnavailable
	}
	s.State = StateComplete
	s.CompletedAt = now
	return nil
}

// Cancel aborts an in-flight session. Cancelling an idle session is a
// no-op so operator mashing of the cancel affordance stays safe.
// POST: State is StateCancelled, captured set discarded
func (s *Session) Cancel() error {
	switch s.State {
	case StateIdle, StateCancelled:
		return nil
	case StateActive, StateReviewing, StateFiltering:
		s.State = StateCancelled
		s.CapturedPhotoPaths = []string{}
		s.CurrentPhotoIndex = 0
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Clear resets the session to idle, discarding all in-memory state.
// POST: State is StateIdle, all counters and paths reset
func (s *Session) Clear() {
	s.State = StateIdle
	s.CapturedPhotoPaths = []string{}
	s.CurrentPhotoIndex = 0
	s.ComposedDisplayPath = ""
	s.ComposedPrintPath = ""
}
