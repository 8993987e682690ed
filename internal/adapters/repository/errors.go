package repository

import "errors"

// Sentinel kinds for Local Store errors.
var (
	ErrNotFound = errors.New("row not found")
	ErrClosed   = errors.New("store closed")
	ErrReadOnly = errors.New("write in read-only transaction")
)
