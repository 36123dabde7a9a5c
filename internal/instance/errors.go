package instance

import "errors"

var (
	// ErrNotFound is returned when no main snapshot is stored for a name.
	ErrNotFound = errors.New("instance: not found")
	// ErrIsDirectory is returned by OpenFile for directory paths.
	ErrIsDirectory = errors.New("instance: path is a directory")
	// ErrWrongExtension is returned by OpenFile for paths not ending in the
	// main snapshot extension.
	ErrWrongExtension = errors.New("instance: wrong file extension")
	// ErrInvalidName is returned when a name has no file-safe characters.
	ErrInvalidName = errors.New("instance: invalid name")
)
