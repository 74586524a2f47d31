package matchslipdb

import "errors"

var (
	ErrNotFound    = errors.New("match slip not found")
	ErrDuplicateID = errors.New("match slip id already exists")
)
