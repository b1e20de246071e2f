package repository

import "errors"

// Sentinel errors shared by all repository implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when creating a user whose email is
	// already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)
