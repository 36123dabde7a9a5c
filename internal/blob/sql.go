package blob

import (
	"context"

	"erpcore/internal/infra/persistence/postgres"
	"erpcore/internal/infra/persistence/sqlite"
)

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = sqlite.DefaultPath

// NewSQLite opens a SQLite-backed blob.Store at path. Release it with Close.
func NewSQLite(ctx context.Context, path string) (Store, error) {
	return sqlite.NewStore(ctx, path)
}

// NewPostgres opens a Postgres-backed blob.Store. Release it with Close.
func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	return postgres.NewStore(ctx, dsn)
}
