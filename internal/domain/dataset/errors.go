package dataset

import "errors"

var (
	// ErrNotFound is returned when the owner has no dataset with the requested id.
	ErrNotFound = errors.New("dataset not found")
	// ErrInvalidUpload wraps file parsing failures.
	ErrInvalidUpload = errors.New("invalid dataset upload")
	// ErrEmpty is returned when an upload yields no records.
	ErrEmpty = errors.New("dataset has no records")
)
