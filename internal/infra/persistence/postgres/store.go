// Package postgres stores instance documents in a PostgreSQL table through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"erpcore/internal/blob/core"
	"erpcore/internal/infra/persistence/sqlstore"
)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no connection string is configured.
	DefaultDSN = "postgres://localhost/erpcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var dialect = sqlstore.Dialect{
	Driver: core.DriverPostgres,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			size BIGINT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			etag TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	},
	Upsert: `INSERT INTO documents(key, payload, size, content_type, metadata, etag, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, size = EXCLUDED.size, content_type = EXCLUDED.content_type,
		metadata = EXCLUDED.metadata, etag = EXCLUDED.etag, updated_at = EXCLUDED.updated_at`,
	Select: `SELECT key, payload, size, content_type, metadata, etag, updated_at FROM documents WHERE key = $1`,
	Head:   `SELECT key, size, content_type, metadata, etag, updated_at FROM documents WHERE key = $1`,
	Delete: `DELETE FROM documents WHERE key = $1`,
	List:   `SELECT key, size, content_type, metadata, etag, updated_at FROM documents WHERE key LIKE $1 ORDER BY key`,
}

// Store persists documents to Postgres.
type Store struct {
	*sqlstore.Store
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// DefaultDSN), checks connectivity and ensures the documents table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlstore.New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
