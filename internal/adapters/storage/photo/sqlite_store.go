package photo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"photobooth/internal/adapters/storage"
	domain "photobooth/internal/domain/photo"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new photo store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const photoColumns = "id, session_id, file_path, sequence_number, type, created_at"

// GetByID retrieves a Photo by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Photo, error) {
	query := "SELECT " + photoColumns + " FROM photo WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanPhoto(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Photo{}, fmt.Errorf("photo not found: %w", err)
	}
	return entity, err
}

// Save persists a Photo to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Photo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "session_id", "file_path", "sequence_number", "type", "created_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?"}
	updates := []string{"session_id=excluded.session_id", "file_path=excluded.file_path", "sequence_number=excluded.sequence_number", "type=excluded.type", "created_at=excluded.created_at"}

	query := fmt.Sprintf(
		"INSERT INTO photo (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.SessionID,
		entity.FilePath,
		entity.SequenceNumber,
		string(entity.Type),
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Photo from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM photo WHERE id = ?", id)
	return err
}

// ListBySessionID retrieves all photos of a session in capture order.
// PRE: sessionID is non-empty
// POST: Returns photos ordered by sequence_number ascending
func (s *SQLiteStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Photo, error) {
	query := "SELECT " + photoColumns + " FROM photo WHERE session_id = ? ORDER BY sequence_number ASC"
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Photo
	for rows.Next() {
		entity, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// DeleteBySessionID removes every photo row of a session, used by the
// cleanup sweep.
// PRE: sessionID is non-empty
// POST: Returns the number of deleted records
func (s *SQLiteStore) DeleteBySessionID(ctx context.Context, sessionID string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM photo WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func scanPhoto(scan func(dest ...any) error) (domain.Photo, error) {
	var entity domain.Photo
	var typeStr, createdStr string
	err := scan(
		&entity.ID,
		&entity.SessionID,
		&entity.FilePath,
		&entity.SequenceNumber,
		&typeStr,
		&createdStr,
	)
	if err != nil {
		return domain.Photo{}, err
	}
	entity.Type = domain.Type(typeStr)
	entity.CreatedAt, err = parseStoredTime(createdStr)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("failed to parse created_at: %w", err)
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
