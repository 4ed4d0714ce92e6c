package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/domain/capture"
	"photobooth/internal/domain/session"
)

// RunSessionInput carries input for RunSession.
type RunSessionInput struct {
	EventRef          string
	TemplateRef       string
	TotalPhotosNeeded int
	CountdownSeconds  int
	PhotographerMode  bool
	RetakesEnabled    bool
	Retakes           RunRetakesInput
	Filters           ApplyFiltersInput

	// MaxSlotRestarts bounds how many times one slot is re-attempted
	// after a capture failure before the session is abandoned.
	MaxSlotRestarts int
}

// RunSessionDeps holds dependencies for RunSession.
type RunSessionDeps struct {
	Controller *controller.Controller
	Dispatcher *events.Dispatcher
	Capture    CapturePhotoDeps
	Retakes    RunRetakesDeps
	Filters    ApplyFiltersDeps
	Compose    ComposeSessionDeps
	Finish     FinishSessionDeps
	GenerateID func() string
}

// ExecuteRunSession drives one session end to end: start, the capture
// sequence, the optional retake and filter stages, composition, and
// completion. It owns the session context: an operator cancel through
// the controller cancels the context, which stops whatever stage is in
// flight.
//
// A capture failure aborts only that photo; the slot is retried up to
// MaxSlotRestarts times before the session is abandoned as fatal. An
// operator abort during a countdown cancels the whole session when no
// photo has been captured yet, and otherwise restarts the same slot.
func ExecuteRunSession(ctx context.Context, input RunSessionInput, deps RunSessionDeps) error {
	if _, err := ExecuteStartSession(StartSessionInput{
		EventRef:          input.EventRef,
		TemplateRef:       input.TemplateRef,
		TotalPhotosNeeded: input.TotalPhotosNeeded,
	}, StartSessionDeps{Controller: deps.Controller, GenerateID: deps.GenerateID}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	deps.Controller.BindSessionContext(cancel)

	if err := runCaptureSequence(ctx, input, deps); err != nil {
		return err
	}

	if input.RetakesEnabled {
		if err := ExecuteRunRetakes(ctx, input.Retakes, deps.Retakes); err != nil {
			if errors.Is(err, capture.ErrCancelled) {
				return abandonSession(deps, err)
			}
			return err
		}
	}

	choice, err := ExecuteApplyFilters(ctx, input.Filters, deps.Filters)
	if err != nil {
		if errors.Is(err, capture.ErrCancelled) {
			return abandonSession(deps, err)
		}
		return err
	}

	composed, err := ExecuteComposeSession(deps.Compose)
	if err != nil {
		// The session stays in composing; the operator decides
		// whether to retry composition or cancel.
		return err
	}

	return ExecuteFinishSession(ctx, FinishSessionInput{Composed: composed, FilterChoice: choice}, deps.Finish)
}

func runCaptureSequence(ctx context.Context, input RunSessionInput, deps RunSessionDeps) error {
	restarts := 0
	for {
		snap := deps.Controller.Snapshot()
		if snap.State == session.StateIdle {
			// Cleared out from under us by an operator cancel.
			return capture.ErrCancelled
		}
		if snap.SequenceComplete() {
			return nil
		}
		slot := snap.CurrentPhotoIndex

		res, err := ExecuteCapturePhoto(ctx, CapturePhotoInput{
			SlotIndex:        slot,
			CountdownSeconds: input.CountdownSeconds,
			PhotographerMode: input.PhotographerMode,
		}, deps.Capture)
		if err == nil {
			restarts = 0
			if res.SequenceComplete {
				return nil
			}
			continue
		}

		if errors.Is(err, capture.ErrCancelled) {
			if ctx.Err() != nil {
				return abandonSession(deps, err)
			}
			// Operator abort of this countdown only.
			if slot == 0 {
				if cancelErr := ExecuteCancelSession(CancelSessionDeps{Controller: deps.Controller}); cancelErr != nil {
					return cancelErr
				}
				return err
			}
			slog.Info("session_event", "event", "countdown_restarted", "slot", slot)
			continue
		}
		if errors.Is(err, capture.ErrStaleAttempt) {
			return abandonSession(deps, err)
		}

		restarts++
		if restarts > input.MaxSlotRestarts {
			slog.Error("session_event", "event", "slot_abandoned", "slot", slot, "restarts", restarts)
			deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: err.Error(), Fatal: true})
			if cancelErr := ExecuteCancelSession(CancelSessionDeps{Controller: deps.Controller}); cancelErr != nil {
				return fmt.Errorf("abandon slot %d: %w", slot, cancelErr)
			}
			return err
		}
		slog.Warn("session_event", "event", "slot_restarted", "slot", slot, "restart", restarts, "error", err.Error())
	}
}

// abandonSession clears a session whose workflow was cancelled from
// outside. The controller cancel path already cleared state when the
// operator initiated it, so the inner cancel may be a no-op.
func abandonSession(deps RunSessionDeps, cause error) error {
	if err := ExecuteCancelSession(CancelSessionDeps{Controller: deps.Controller}); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
		slog.Warn("session_event", "event", "abandon_failed", "error", err.Error())
	}
	return cause
}
