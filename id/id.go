// Package id generates the identifiers used to key run records.
package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID string. ULIDs are time-ordered, so run records
// keyed by them sort by creation in SQLite, and the shared entropy source is
// monotonic within a millisecond and safe for concurrent callers.
func New() string {
	return ulid.Make().String()
}
