// Package sqlite stores instance documents in a SQLite database using the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"erpcore/internal/blob/core"
	"erpcore/internal/infra/persistence/sqlstore"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "erpcore.db"

var dialect = sqlstore.Dialect{
	Driver: core.DriverSQLite,
	Schema: []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA case_sensitive_like = ON`,
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			size INTEGER NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			etag TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	},
	Upsert: `INSERT INTO documents(key, payload, size, content_type, metadata, etag, updated_at) VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, size=excluded.size, content_type=excluded.content_type,
		metadata=excluded.metadata, etag=excluded.etag, updated_at=excluded.updated_at`,
	Select: `SELECT key, payload, size, content_type, metadata, etag, updated_at FROM documents WHERE key = ?`,
	Head:   `SELECT key, size, content_type, metadata, etag, updated_at FROM documents WHERE key = ?`,
	Delete: `DELETE FROM documents WHERE key = ?`,
	List:   `SELECT key, size, content_type, metadata, etag, updated_at FROM documents WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
}

// Store persists documents to a single SQLite table.
type Store struct {
	*sqlstore.Store
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)
	inner, err := sqlstore.New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
