package blob

import (
	"context"
	"fmt"
	"io"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver Driver
	// FSRoot is the directory root when Driver is fs (default ./instances).
	FSRoot string
	// SQLitePath is the database file when Driver is sqlite (default erpcore.db).
	SQLitePath string
	// PostgresDSN is the connection string when Driver is postgres.
	PostgresDSN string
	// S3 configures the bucket when Driver is s3.
	S3 S3Config
}

// Open constructs the Store named by opts.Driver (default fs).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// Close releases resources held by stores backed by a database handle. Other
// stores hold nothing and are left untouched.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
