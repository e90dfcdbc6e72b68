package state

import "errors"

var (
	// ErrNotFound is returned when a mint is not in the active set.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for records without a mint.
	ErrInvalidInput = errors.New("invalid input")
)
