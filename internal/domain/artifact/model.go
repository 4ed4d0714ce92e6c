package artifact

import (
	"errors"
	"math"
	"time"
)

// Domain errors
var (
	ErrEmptySessionID = errors.New("artifact must belong to a session")
	ErrEmptyFilePath  = errors.New("artifact file path is required")
)

// Format tags a composed artifact with its output paper format.
type Format string

const (
	Format2x6    Format = "2x6"
	Format4x6    Format = "4x6"
	FormatCustom Format = "custom"
)

// Kind distinguishes the on-screen artifact from the print-only one.
type Kind string

const (
	KindDisplay Kind = "display"
	KindPrint   Kind = "print"
)

// Orientation selects how a strip is duplicated onto a 4x6 sheet.
// Portrait places two strips side by side with no rotation (for
// strip-capable printers); Landscape rotates the strip 90 degrees and
// stacks two copies (for standard sheet printers).
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// stripAspect is width divided by height for a 2x6 strip.
const stripAspect = 1.0 / 3.0

// stripAspectTolerance allows the declared +/-2% around the 1:3 ratio.
const stripAspectTolerance = 0.02

// stripPixelBands are exact dimensions always treated as strips even if
// rounding pushes the ratio just outside tolerance.
var stripPixelBands = [][2]int{
	{600, 1800},
	{640, 1920},
	{1200, 3600},
}

// IsStripAspect reports whether a canvas of the given pixel size is a
// narrow photo-booth strip.
// PRE: width and height are positive
// POST: True for ratios within 2% of 1:3 or known strip dimensions
func IsStripAspect(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	for _, band := range stripPixelBands {
		if width == band[0] && height == band[1] {
			return true
		}
	}
	aspect := float64(width) / float64(height)
	return math.Abs(aspect/stripAspect-1) <= stripAspectTolerance
}

// FormatFor returns the paper format tag for a canvas size.
func FormatFor(width, height int) Format {
	if IsStripAspect(width, height) {
		return Format2x6
	}
	// A 4x6 sheet in either orientation.
	aspect := float64(width) / float64(height)
	if math.Abs(aspect/(2.0/3.0)-1) <= stripAspectTolerance ||
		math.Abs(aspect/(3.0/2.0)-1) <= stripAspectTolerance {
		return Format4x6
	}
	return FormatCustom
}

// Artifact is one composed output file tied to its owning session.
type Artifact struct {
	ID        string
	SessionID string
	FilePath  string
	Format    Format
	Kind      Kind
	CreatedAt time.Time
}

// Validate checks if the Artifact has valid data.
// PRE: Artifact struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Artifact) Validate() error {
	if a.SessionID == "" {
		return ErrEmptySessionID
	}
	if a.FilePath == "" {
		return ErrEmptyFilePath
	}
	if a.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}
