package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// SQLiteStore keeps documents in a single SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS devices (
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT OR REPLACE INTO schema_version (version) VALUES (1);
`

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Save inserts or replaces the document stored under name.
func (s *SQLiteStore) Save(ctx context.Context, name string, doc interchange.DeviceV1) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO devices (name, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save device %s: %w", name, err)
	}
	observability.Store().OnStoreSave(ctx, BackendSQLite, len(data))
	return nil
}

// Load returns the document stored under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (interchange.DeviceV1, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM devices WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return interchange.DeviceV1{}, loaded(ctx, BackendSQLite, notFound(name))
	}
	if err != nil {
		return interchange.DeviceV1{}, fmt.Errorf("load device %s: %w", name, err)
	}
	var doc interchange.DeviceV1
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return interchange.DeviceV1{}, fmt.Errorf("decode device %s: %w", name, err)
	}
	return doc, loaded(ctx, BackendSQLite, nil)
}

// List returns all entries ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, updated_at FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Name, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the document stored under name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete device %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(name)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
