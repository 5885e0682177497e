package evslot

import "errors"

// Sentinel errors returned (or panicked with) by evslot operations.
var (
	// ErrClosed indicates a handle was used after Close.
	//
	// This is a programming error. Handles panic with an error wrapping
	// ErrClosed rather than returning it.
	ErrClosed = errors.New("evslot: closed")

	// ErrInvalidSnapshot indicates a [Snapshot] is internally inconsistent.
	//
	// Common causes: free list entries that are out of range, occupied, or
	// duplicated.
	ErrInvalidSnapshot = errors.New("evslot: invalid snapshot")

	// errDiverged is raised when the converge step produces a different
	// result than the first application. It means the copier or the
	// storage broke the symmetry between the two copies.
	errDiverged = errors.New("evslot: copies diverged")
)
