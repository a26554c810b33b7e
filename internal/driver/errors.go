package driver

import "errors"

// Error kinds. These are sentinels, not concrete error types, matching
// the taxonomy of the profile store's ErrNotFound/ErrNameConflict: callers
// discriminate with errors.Is. Only the kind is wrapped with %w; the
// underlying cause is formatted into the message with %v, so errors.Is and
// errors.As do not reach it.
var (
	// ErrIO covers staging copy, batch read, batch write, vacuum, or
	// publish copy failures. Fatal to the run.
	ErrIO = errors.New("driver: i/o failure")

	// ErrNotAnMBTiles means the staged file has no table literally named
	// "tiles". Fatal.
	ErrNotAnMBTiles = errors.New("driver: not an mbtiles archive")

	// ErrDB covers SQLite errors outside plain I/O (schema, constraint).
	// Fatal.
	ErrDB = errors.New("driver: database error")

	// ErrCancelled means the caller's context was cancelled between
	// batches or phases. Cleanup runs; no output is published.
	ErrCancelled = errors.New("driver: run cancelled")
)
