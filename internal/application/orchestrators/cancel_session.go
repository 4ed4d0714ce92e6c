package orchestrators

import (
	"log/slog"

	"photobooth/internal/application/controller"
)

// CancelSessionDeps holds dependencies for CancelSession.
type CancelSessionDeps struct {
	Controller *controller.Controller
}

// ExecuteCancelSession aborts the active session (or clears a finished
// one) and returns the booth to idle. Captured photos are discarded
// from session state; files already on disk are left for the cleanup
// sweep. Cancelling with no active session is a no-op.
// POST: Booth is idle; any in-flight capture result is stale
func ExecuteCancelSession(deps CancelSessionDeps) error {
	if err := deps.Controller.Cancel(); err != nil {
		slog.Warn("session_event", "event", "cancel_rejected", "error", err.Error())
		return err
	}
	return nil
}
