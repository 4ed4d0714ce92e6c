package upload

import (
	"context"
	"log/slog"
	"time"
)

// NoopUploader logs uploads without moving any bytes.
type NoopUploader struct{}

// NewNoopUploader creates a new NoopUploader.
func NewNoopUploader() *NoopUploader {
	return &NoopUploader{}
}

// Upload logs the path and returns an empty share URL.
func (u *NoopUploader) Upload(_ context.Context, path string) (Result, error) {
	slog.Info("noop_upload", "path", path)
	return Result{UploadedAt: time.Now()}, nil
}
