// Package blob re-exports the document store abstraction and wires the
// concrete backends behind a single factory.
package blob

import (
	"erpcore/internal/blob/core"
)

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// PutOptions configures a document write.
	PutOptions = core.PutOptions
	// Info describes stored document metadata.
	Info = core.Info
	// Store is the interface for document storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the embedded SQLite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
)

// ErrNotFound is matched by errors for keys that hold no document.
var ErrNotFound = core.ErrNotFound

// ValidDriver reports whether d names a supported driver.
func ValidDriver(d Driver) bool { return core.ValidDriver(d) }
