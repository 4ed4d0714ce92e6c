package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"photobooth/internal/adapters/storage"
	domain "photobooth/internal/domain/session"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sessionColumns = "id, event_ref, template_ref, total_photos, current_photo_index, state, captured_paths, composed_display_path, composed_print_path, started_at, completed_at"

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	query := "SELECT " + sessionColumns + " FROM session WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Session{}, fmt.Errorf("session not found: %w", err)
	}
	return entity, err
}

// Save persists a Session to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "event_ref", "template_ref", "total_photos", "current_photo_index", "state", "captured_paths", "composed_display_path", "composed_print_path", "started_at", "completed_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{"event_ref=excluded.event_ref", "template_ref=excluded.template_ref", "total_photos=excluded.total_photos", "current_photo_index=excluded.current_photo_index", "state=excluded.state", "captured_paths=excluded.captured_paths", "composed_display_path=excluded.composed_display_path", "composed_print_path=excluded.composed_print_path", "started_at=excluded.started_at", "completed_at=excluded.completed_at"}

	query := fmt.Sprintf(
		"INSERT INTO session (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	paths, err := json.Marshal(entity.CapturedPhotoPaths)
	if err != nil {
		return fmt.Errorf("failed to encode captured paths: %w", err)
	}

	var displayVal, printVal, completedVal interface{}
	if entity.ComposedDisplayPath != "" {
		displayVal = entity.ComposedDisplayPath
	}
	if entity.ComposedPrintPath != "" {
		printVal = entity.ComposedPrintPath
	}
	if !entity.CompletedAt.IsZero() {
		completedVal = entity.CompletedAt.Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.EventRef,
		entity.TemplateRef,
		entity.TotalPhotosNeeded,
		entity.CurrentPhotoIndex,
		string(entity.State),
		string(paths),
		displayVal,
		printVal,
		entity.StartedAt.Format(time.RFC3339Nano),
		completedVal,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Session from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = ?", id)
	return err
}

// List retrieves sessions newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Session, error) {
	query := "SELECT " + sessionColumns + " FROM session ORDER BY started_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListByEventRef retrieves all sessions shot under one event, newest first.
// PRE: eventRef is non-empty
// POST: Returns sessions for the given event
func (s *SQLiteStore) ListByEventRef(ctx context.Context, eventRef string) ([]domain.Session, error) {
	query := "SELECT " + sessionColumns + " FROM session WHERE event_ref = ? ORDER BY started_at DESC"
	rows, err := s.db.QueryContext(ctx, query, eventRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// CountByState returns how many sessions sit in the given state.
func (s *SQLiteStore) CountByState(ctx context.Context, state domain.State) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM session WHERE state = ?", string(state)).Scan(&n)
	return n, err
}

func collectSessions(rows *sql.Rows) ([]domain.Session, error) {
	var results []domain.Session
	for rows.Next() {
		entity, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanSession(scan func(dest ...any) error) (domain.Session, error) {
	var entity domain.Session
	var state, pathsJSON, startedStr string
	var display, printPath, completedStr sql.NullString
	err := scan(
		&entity.ID,
		&entity.EventRef,
		&entity.TemplateRef,
		&entity.TotalPhotosNeeded,
		&entity.CurrentPhotoIndex,
		&state,
		&pathsJSON,
		&display,
		&printPath,
		&startedStr,
		&completedStr,
	)
	if err != nil {
		return domain.Session{}, err
	}
	entity.State = domain.State(state)
	if display.Valid {
		entity.ComposedDisplayPath = display.String
	}
	if printPath.Valid {
		entity.ComposedPrintPath = printPath.String
	}
	if err := json.Unmarshal([]byte(pathsJSON), &entity.CapturedPhotoPaths); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode captured paths: %w", err)
	}
	entity.StartedAt, err = parseStoredTime(startedStr)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if completedStr.Valid {
		parsedTime, parseErr := parseStoredTime(completedStr.String)
		if parseErr != nil {
			return domain.Session{}, fmt.Errorf("failed to parse completed_at: %w", parseErr)
		}
		entity.CompletedAt = parsedTime
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
