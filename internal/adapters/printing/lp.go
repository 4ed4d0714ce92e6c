package printing

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"photobooth/internal/domain/artifact"
)

// LPPrinter submits jobs through the CUPS lp command. Media selection
// follows the artifact format so a 2x6 strip goes to the strip cutter
// and a 4x6 sheet to plain photo media.
type LPPrinter struct {
	printerName string
}

// NewLPPrinter creates a printer submitting to the named CUPS queue.
// An empty name uses the system default queue.
func NewLPPrinter(printerName string) *LPPrinter {
	return &LPPrinter{printerName: printerName}
}

// Print submits one copy of the file.
// PRE: path points to a finished artifact on disk
// POST: Job is queued with CUPS; queue errors are returned
func (p *LPPrinter) Print(ctx context.Context, path string, format artifact.Format) error {
	args := []string{"-n", "1"}
	if p.printerName != "" {
		args = append(args, "-d", p.printerName)
	}
	if media := mediaFor(format); media != "" {
		args = append(args, "-o", "media="+media)
	}
	args = append(args, path)

	out, err := exec.CommandContext(ctx, "lp", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("lp failed: %w: %s", err, string(out))
	}
	slog.Info("print_event", "event", "job_submitted", "path", path, "format", string(format), "output", string(out))
	return nil
}

func mediaFor(format artifact.Format) string {
	switch format {
	case artifact.Format2x6:
		return "w144h432"
	case artifact.Format4x6:
		return "w288h432"
	}
	return ""
}
