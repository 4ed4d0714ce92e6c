package artifact

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"photobooth/internal/adapters/storage"
	domain "photobooth/internal/domain/artifact"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new artifact store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const artifactColumns = "id, session_id, file_path, format, kind, created_at"

// GetByID retrieves an Artifact by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifact WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanArtifact(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Artifact{}, fmt.Errorf("artifact not found: %w", err)
	}
	return entity, err
}

// Save persists an Artifact to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Artifact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "session_id", "file_path", "format", "kind", "created_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?"}
	updates := []string{"session_id=excluded.session_id", "file_path=excluded.file_path", "format=excluded.format", "kind=excluded.kind", "created_at=excluded.created_at"}

	query := fmt.Sprintf(
		"INSERT INTO artifact (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.SessionID,
		entity.FilePath,
		string(entity.Format),
		string(entity.Kind),
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an Artifact and its photo links from the database.
// PRE: id is non-empty
// POST: Entity and its links are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM artifact_photo WHERE artifact_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM artifact WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListBySessionID retrieves a session's artifacts, display before print.
// PRE: sessionID is non-empty
// POST: Returns artifacts for the given session
func (s *SQLiteStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifact WHERE session_id = ? ORDER BY kind ASC"
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Artifact
	for rows.Next() {
		entity, err := scanArtifact(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// LinkPhotos records which captured photos went into an artifact.
// PRE: artifactID is non-empty; photoIDs are persisted photo rows
// POST: Each (artifact, photo) pair exists exactly once
func (s *SQLiteStore) LinkPhotos(ctx context.Context, artifactID string, photoIDs []string) error {
	if len(photoIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, photoID := range photoIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO artifact_photo (artifact_id, photo_id) VALUES (?, ?) ON CONFLICT(artifact_id, photo_id) DO NOTHING",
			artifactID, photoID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListLinkedPhotoIDs returns the photo IDs composed into an artifact.
// PRE: artifactID is non-empty
// POST: Returns linked photo IDs
func (s *SQLiteStore) ListLinkedPhotoIDs(ctx context.Context, artifactID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT photo_id FROM artifact_photo WHERE artifact_id = ?", artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanArtifact(scan func(dest ...any) error) (domain.Artifact, error) {
	var entity domain.Artifact
	var format, kind, createdStr string
	err := scan(
		&entity.ID,
		&entity.SessionID,
		&entity.FilePath,
		&format,
		&kind,
		&createdStr,
	)
	if err != nil {
		return domain.Artifact{}, err
	}
	entity.Format = domain.Format(format)
	entity.Kind = domain.Kind(kind)
	entity.CreatedAt, err = parseStoredTime(createdStr)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

func parseStoredTime(value string) (time.Time, error) {
	if idx := strings.Index(value, " m="); idx != -1 {
		value = value[:idx]
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}
