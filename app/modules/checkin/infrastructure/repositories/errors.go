package checkindb

import "errors"

var (
	// ErrNotFound is returned when no token is stored under a value.
	ErrNotFound = errors.New("token not found")
	// ErrDuplicateValue is returned when a token value is already in use.
	ErrDuplicateValue = errors.New("token value already in use")
)
