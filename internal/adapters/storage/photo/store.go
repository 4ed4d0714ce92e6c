package photo

import (
	"context"

	domain "photobooth/internal/domain/photo"
)

// Store persists Photo state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Photo, error)
	Save(ctx context.Context, value domain.Photo) error
	Delete(ctx context.Context, id string) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Photo, error)
	DeleteBySessionID(ctx context.Context, sessionID string) (int, error)
}
