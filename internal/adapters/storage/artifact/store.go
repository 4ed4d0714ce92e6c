package artifact

import (
	"context"

	domain "photobooth/internal/domain/artifact"
)

// Store persists Artifact state and the artifact-to-photo links.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Artifact, error)
	Save(ctx context.Context, value domain.Artifact) error
	Delete(ctx context.Context, id string) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Artifact, error)
	LinkPhotos(ctx context.Context, artifactID string, photoIDs []string) error
	ListLinkedPhotoIDs(ctx context.Context, artifactID string) ([]string, error)
}
