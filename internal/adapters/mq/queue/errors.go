package queue

import "errors"

// Sentinel kinds for queue and job errors.
var (
	ErrStopped = errors.New("codec queue stopped")
	ErrFull    = errors.New("codec queue full")
)
