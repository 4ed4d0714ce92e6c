package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id TEXT PRIMARY KEY,
		event_ref TEXT NOT NULL,
		template_ref TEXT NOT NULL,
		total_photos INTEGER NOT NULL,
		current_photo_index INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		captured_paths TEXT NOT NULL DEFAULT '[]',
		composed_display_path TEXT,
		composed_print_path TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS photo (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		sequence_number INTEGER NOT NULL,
		type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES session(id)
	);

	CREATE TABLE IF NOT EXISTS artifact (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		format TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES session(id)
	);

	CREATE TABLE IF NOT EXISTS artifact_photo (
		artifact_id TEXT NOT NULL,
		photo_id TEXT NOT NULL,
		PRIMARY KEY (artifact_id, photo_id),
		FOREIGN KEY (artifact_id) REFERENCES artifact(id),
		FOREIGN KEY (photo_id) REFERENCES photo(id)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_session ON photo(session_id);
	CREATE INDEX IF NOT EXISTS idx_artifact_session ON artifact(session_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// migration applies one schema version step. Migrations only ever use
// IF NOT EXISTS / ADD COLUMN so re-running a step is harmless.
type migration struct {
	version int
	apply   func(db *sql.DB) error
}

var migrations = []migration{
	{version: 1, apply: InitDB},
}

// LatestSchemaVersion returns the newest known schema version.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the database's current schema version, 0 for a
// database that predates version tracking.
// PRE: db is a valid database connection
// POST: Returns the recorded version without modifying the database
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	err = db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// MigrateDB brings the database schema up to the latest version.
// dbPath is logged so operators can tell which file was touched.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion, idempotent on re-run
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL DEFAULT (datetime('now')))"); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		slog.Info("db_migration_applied", "version", m.version, "db_path", dbPath)
	}
	return nil
}
