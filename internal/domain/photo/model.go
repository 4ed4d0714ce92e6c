package photo

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptySessionID = errors.New("photo must belong to a session")
	ErrEmptyFilePath  = errors.New("photo file path is required")
)

// Type marks whether the stored path is the raw capture or a
// filter-stage output.
type Type string

const (
	TypeOriginal Type = "original"
	TypeFiltered Type = "filtered"
)

// Photo is one captured frame persisted against its session.
// SequenceNumber is the zero-based capture slot.
type Photo struct {
	ID             string
	SessionID      string
	FilePath       string
	SequenceNumber int
	Type           Type
	CreatedAt      time.Time
}

// Validate checks if the Photo has valid data.
// PRE: Photo struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Photo) Validate() error {
	if p.SessionID == "" {
		return ErrEmptySessionID
	}
	if p.FilePath == "" {
		return ErrEmptyFilePath
	}
	if p.SequenceNumber < 0 {
		return errors.New("sequence number cannot be negative")
	}
	if p.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}
