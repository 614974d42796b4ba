// Package sentinel holds the storage-level facts that stores report and
// services translate into domain errors. Callers match them with errors.Is.
package sentinel

import "errors"

var (
	// ErrNotFound means no record exists for the key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a record with the same identity is already stored.
	ErrConflict = errors.New("record already exists")
	// ErrUnavailable means the backing store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)
