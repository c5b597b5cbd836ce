package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate id")
)
