package domain

import "errors"

var (
	// ErrInvalidInput marks rejected caller input (empty id, blank query, k < 1).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch marks a vector whose length cannot be reconciled
	// with the collection's vocabulary by zero-padding.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStorageIO marks a durable-store read or write failure, including a
	// collection found in an inconsistent state.
	ErrStorageIO = errors.New("storage failure")

	// ErrNotFound marks a lookup of a missing record.
	ErrNotFound = errors.New("record not found")
)
