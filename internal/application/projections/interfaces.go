// Package projections holds read-side queries for the operator console.
// Projections never mutate state; they assemble views from the stores.
package projections

import (
	"context"

	"photobooth/internal/adapters/storage/session"
	domainArtifact "photobooth/internal/domain/artifact"
	domainSession "photobooth/internal/domain/session"
)

// SessionStore interface for session history queries.
type SessionStore interface {
	List(ctx context.Context, filter session.ListFilter) ([]domainSession.Session, error)
	ListByEventRef(ctx context.Context, eventRef string) ([]domainSession.Session, error)
	CountByState(ctx context.Context, state domainSession.State) (int, error)
}

// ArtifactStore interface for artifact queries.
type ArtifactStore interface {
	ListBySessionID(ctx context.Context, sessionID string) ([]domainArtifact.Artifact, error)
}
