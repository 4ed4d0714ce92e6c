package printing

import (
	"context"
	"log/slog"

	"photobooth/internal/domain/artifact"
)

// NoopPrinter logs print jobs without sending anything to hardware.
type NoopPrinter struct{}

// NewNoopPrinter creates a new NoopPrinter.
func NewNoopPrinter() *NoopPrinter {
	return &NoopPrinter{}
}

// Print logs the job and discards it.
func (p *NoopPrinter) Print(_ context.Context, path string, format artifact.Format) error {
	slog.Info("noop_print", "path", path, "format", string(format))
	return nil
}
