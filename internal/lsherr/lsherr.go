// Package lsherr defines the sentinel error kinds shared across the
// similarity engine. Callers use errors.Is against these to distinguish
// failure policy; no retries or silent recovery are defined anywhere in
// the core.
package lsherr

import "errors"

var (
	// ErrNotInitialized is returned when Query or AllPairs is called
	// before an index has been built or loaded.
	ErrNotInitialized = errors.New("lsh: index not initialized")

	// ErrEmptyDocument is returned when a signature is requested for a
	// document whose shingle set is empty.
	ErrEmptyDocument = errors.New("lsh: document has no shingles")

	// ErrMalformedTag is returned when a hash-function tag fails to parse
	// or names an unknown family.
	ErrMalformedTag = errors.New("lsh: malformed hash tag")

	// ErrInconsistentIndex is returned when a loaded snapshot violates a
	// shape invariant (hash-function count, band count, etc.).
	ErrInconsistentIndex = errors.New("lsh: inconsistent index snapshot")

	// ErrConfigError is returned when construction parameters are invalid
	// (conflicting preprocessing flags, r=0, M<r, M mod r != 0).
	ErrConfigError = errors.New("lsh: invalid configuration")
)
