package store

import "errors"

var (
	// ErrNotFound is returned when a meta key has never been written.
	ErrNotFound = errors.New("not found")
	// ErrStorageCorrupt marks a partition blob that could not be decoded.
	// Readers treat it as an empty partition and only log it.
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrUnknownPartition is returned for writes to a partition outside the fixed set.
	ErrUnknownPartition = errors.New("unknown partition")
)
