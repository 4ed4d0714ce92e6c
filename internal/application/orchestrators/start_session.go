// Package orchestrators contains the application workflows. Each
// workflow is a free function taking an input struct and a deps struct,
// so every collaborator (controller, camera, stores, clock, id
// generator) is injectable from tests.
package orchestrators

import (
	"photobooth/internal/application/controller"
	"photobooth/internal/domain/session"
)

// StartSessionInput carries input for StartSession.
type StartSessionInput struct {
	EventRef          string
	TemplateRef       string
	TotalPhotosNeeded int
}

// StartSessionDeps holds dependencies for StartSession.
type StartSessionDeps struct {
	Controller *controller.Controller
	GenerateID func() string
}

// StartSessionResult carries the outcome of StartSession.
type StartSessionResult struct {
	Session session.Session
}

// ExecuteStartSession activates a new capture session. Rejection
// happens before any state changes: a second start while a session is
// active fails with session.ErrAlreadyActive and leaves the running
// session untouched.
func ExecuteStartSession(input StartSessionInput, deps StartSessionDeps) (StartSessionResult, error) {
	s, err := deps.Controller.StartSession(deps.GenerateID(), input.EventRef, input.TemplateRef, input.TotalPhotosNeeded)
	if err != nil {
		return StartSessionResult{}, err
	}
	return StartSessionResult{Session: s}, nil
}
