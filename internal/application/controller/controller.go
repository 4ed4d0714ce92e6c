// Package controller owns the single active session. Every mutation of
// session state goes through the Controller under one mutex, which is
// the coordination boundary the capture and composition workflows
// marshal their asynchronous results onto. Hardware callbacks carry an
// attempt token; results for a superseded token are rejected so a slow
// callback can never corrupt a newer attempt's state.
package controller

import (
	"log/slog"
	"sync"
	"time"

	"photobooth/internal/application/events"
	"photobooth/internal/domain/capture"
	"photobooth/internal/domain/session"
)

// Controller coordinates the booth's one-session-at-a-time lifecycle.
type Controller struct {
	mu            sync.Mutex
	current       session.Session
	attemptToken  uint64
	autoClear     *time.Timer
	cancelPending func()
	sessionCancel func()
	dispatcher    *events.Dispatcher
	now           func() time.Time
}

// New creates a Controller publishing through the given dispatcher.
// now is injectable for tests; nil means time.Now.
func New(dispatcher *events.Dispatcher, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		current:    session.Session{State: session.StateIdle},
		dispatcher: dispatcher,
		now:        now,
	}
}

// StartSession activates a new session. Exactly one session may be
// active at a time.
// PRE: No session is active; totalPhotosNeeded >= 1
// POST: Session is active with an empty captured set
func (c *Controller) StartSession(id, eventRef, templateRef string, totalPhotosNeeded int) (session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.IsActive() {
		return session.Session{}, session.ErrAlreadyActive
	}
	s, err := session.New(id, eventRef, templateRef, totalPhotosNeeded, c.now())
	if err != nil {
		return session.Session{}, err
	}
	c.current = s
	c.dispatcher.Publish(events.SessionStarted{
		SessionID:   s.ID,
		EventRef:    eventRef,
		TemplateRef: templateRef,
		TotalPhotos: totalPhotosNeeded,
	})
	slog.Info("session_event", "event", "session_started", "session_id", s.ID, "event_ref", eventRef, "template_ref", templateRef, "total_photos", totalPhotosNeeded)
	return c.snapshotLocked(), nil
}

// Snapshot returns a copy of the current session. The copy's path
// slice is detached so callers can hand it to worker goroutines.
func (c *Controller) Snapshot() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() session.Session {
	snap := c.current
	snap.CapturedPhotoPaths = make([]string, len(c.current.CapturedPhotoPaths))
	copy(snap.CapturedPhotoPaths, c.current.CapturedPhotoPaths)
	return snap
}

// NextAttemptToken starts a new capture attempt generation. Any result
// still in flight for an older token becomes stale the moment this
// returns.
func (c *Controller) NextAttemptToken() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attemptToken++
	return c.attemptToken
}

// RecordCapturedPhoto applies a capture result to session state, but
// only if the attempt token is still current.
// POST: Returns true when the full sequence is captured;
// capture.ErrStaleAttempt if the token was superseded
func (c *Controller) RecordCapturedPhoto(token uint64, path string, isRetake bool, retakeIndex int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.attemptToken {
		slog.Debug("capture_event", "event", "stale_result_dropped", "token", token, "current", c.attemptToken)
		return false, capture.ErrStaleAttempt
	}
	complete, err := c.current.RecordCapturedPhoto(path, isRetake, retakeIndex)
	if err != nil {
		return false, err
	}
	c.dispatcher.Publish(events.PhotoProcessed{
		Index:      c.current.CurrentPhotoIndex,
		Total:      c.current.TotalPhotosNeeded,
		IsComplete: complete,
	})
	return complete, nil
}

// ReplacePhotoPath swaps a captured path for its filtered output.
func (c *Controller) ReplacePhotoPath(index int, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.ReplacePhotoPath(index, path)
}

// BeginReview enters the retake review window.
func (c *Controller) BeginReview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.BeginReview()
}

// BeginFiltering enters the filter selection window.
func (c *Controller) BeginFiltering() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.BeginFiltering()
}

// BeginComposing enters composition; rejected on an incomplete set.
func (c *Controller) BeginComposing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.BeginComposing()
}

// SetComposedPaths records the composition outputs.
func (c *Controller) SetComposedPaths(displayPath, printPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.SetComposedPaths(displayPath, printPath)
}

// Complete moves the session to Complete.
// POST: Returns session.ErrCompositionUnavailable without a display path
func (c *Controller) Complete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Complete(c.now())
}

// BindSessionContext registers the cancel function for the running
// session workflow, so an operator cancel can stop an in-flight
// countdown deterministically.
func (c *Controller) BindSessionContext(cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionCancel = cancel
}

// Cancel aborts the active session and returns the booth to idle.
// Calling it with no active session is a no-op.
// POST: State is idle, captured set empty, pending timers released
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.current.ID
	switch c.current.State {
	case session.StateIdle:
		return nil
	case session.StateComplete, session.StateCancelled:
		// Operator "Done" on a finished session clears it.
		c.clearLocked(id)
	default:
		if err := c.current.Cancel(); err != nil {
			return err
		}
		c.clearLocked(id)
	}
	slog.Info("session_event", "event", "session_cancelled", "session_id", id)
	return nil
}

// Clear forcibly resets all session state to idle, releasing the
// auto-clear timer and cancelling pending background work. Idempotent.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.State == session.StateIdle {
		return
	}
	c.clearLocked(c.current.ID)
}

func (c *Controller) clearLocked(id string) {
	if c.autoClear != nil {
		c.autoClear.Stop()
		c.autoClear = nil
	}
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
	c.attemptToken++ // invalidate any in-flight capture result
	c.current.Clear()
	c.dispatcher.Publish(events.SessionCleared{SessionID: id})
}

// ArmAutoClear schedules the return to idle. Arming again replaces the
// previous timer; timers of one kind are never concurrent.
// cancelPending is invoked when the clear happens, stopping any
// still-running upload or compose background work.
func (c *Controller) ArmAutoClear(d time.Duration, cancelPending func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.autoClear != nil {
		c.autoClear.Stop()
	}
	c.cancelPending = cancelPending
	c.autoClear = time.AfterFunc(d, c.Clear)
}
