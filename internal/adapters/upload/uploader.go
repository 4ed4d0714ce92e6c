// Package upload pushes composed artifacts to the gallery backend.
// Uploads run in the background after completion and are best-effort;
// a failure leaves the artifact on local disk for a later sweep.
package upload

import (
	"context"
	"time"
)

// Result describes an accepted upload.
type Result struct {
	ShareURL   string    // Public gallery URL for the artifact
	UploadedAt time.Time // When the backend accepted the file
}

// Uploader is the interface for pushing an artifact to the backend.
type Uploader interface {
	Upload(ctx context.Context, path string) (Result, error)
}
