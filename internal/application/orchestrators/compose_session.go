package orchestrators

import (
	"fmt"
	"log/slog"

	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/compose"
	"photobooth/internal/domain/template"
)

// ComposeSessionDeps holds dependencies for ComposeSession.
type ComposeSessionDeps struct {
	Controller *controller.Controller
	Dispatcher *events.Dispatcher
	Template   template.Template
	Options    compose.Options
}

// ExecuteComposeSession renders the session's photos through the
// template and records the artifact paths on the session. Composition
// runs off the coordination lock; only the resulting paths are applied
// to session state. A render failure leaves no partial artifact and
// leaves the session in its composing state for the operator to retry
// or cancel.
// PRE: The captured sequence is complete
// POST: On success the session carries its composed artifact paths
func ExecuteComposeSession(deps ComposeSessionDeps) (compose.Result, error) {
	if err := deps.Controller.BeginComposing(); err != nil {
		return compose.Result{}, err
	}
	snap := deps.Controller.Snapshot()
	deps.Dispatcher.Publish(events.CompositionStarted{SessionID: snap.ID})

	result, err := compose.Render(deps.Template, snap.CapturedPhotoPaths, deps.Options)
	if err != nil {
		slog.Error("session_event", "event", "composition_failed", "session_id", snap.ID, "error", err.Error())
		deps.Dispatcher.Publish(events.CompositionError{SessionID: snap.ID, Err: err.Error()})
		return compose.Result{}, fmt.Errorf("compose session %s: %w", snap.ID, err)
	}

	if err := deps.Controller.SetComposedPaths(result.DisplayPath, result.PrintPath); err != nil {
		return compose.Result{}, err
	}
	deps.Dispatcher.Publish(events.CompositionCompleted{
		SessionID:   snap.ID,
		DisplayPath: result.DisplayPath,
		PrintPath:   result.PrintPath,
	})
	slog.Info("session_event", "event", "composition_completed", "session_id", snap.ID, "display", result.DisplayPath, "print", result.PrintPath)
	return result, nil
}
