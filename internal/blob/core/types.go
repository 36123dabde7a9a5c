// Package core defines the document storage abstraction shared by every
// persistence backend.
package core

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"
)

// Driver identifies a concrete storage backend implementation.
type Driver string

const (
	// DriverFilesystem stores documents as files below a root directory.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverS3 stores documents as objects in one S3 / MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps documents in process memory.
	DriverMemory Driver = "memory" // tests
	// DriverSQLite stores documents in a SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores documents in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
)

// Drivers lists every supported driver.
var Drivers = []Driver{DriverFilesystem, DriverS3, DriverMemory, DriverSQLite, DriverPostgres}

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // small, flat key-value pairs
}

// Info describes a stored document.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a minimal key/value document store.
type Store interface {
	// Put writes the document at key, replacing any previous version
	// atomically: readers observe either the old or the new content.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns the document and its metadata. Missing keys yield an error
	// matching ErrNotFound.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a document. It returns (false, nil) when nothing was stored.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns documents whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// ErrNotFound is matched by errors for keys that hold no document.
var ErrNotFound = errors.New("blobstore: not found")

// ValidDriver reports whether d names a supported driver.
func ValidDriver(d Driver) bool {
	return slices.Contains(Drivers, d)
}

// CloneMetadata copies a metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
