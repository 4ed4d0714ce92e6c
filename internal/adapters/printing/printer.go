// Package printing submits composed artifacts to the physical printer.
// Submission is fire-and-forget from the session's point of view: print
// failures surface to the operator but never abort a session.
package printing

import (
	"context"

	"photobooth/internal/domain/artifact"
)

// Printer is the interface for sending an artifact file to paper.
type Printer interface {
	Print(ctx context.Context, path string, format artifact.Format) error
}
