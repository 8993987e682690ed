package index

import "errors"

// Sentinel kinds for index errors.
var (
	ErrTooManyEntries = errors.New("too many distinct entries for a 2-digit index")
	ErrOutOfRange     = errors.New("index out of range")
	ErrMalformedSlot  = errors.New("malformed index slot")
	ErrNotInList      = errors.New("key not in index list")
	ErrUnknownTeam    = errors.New("team not found in local reference table")
	ErrBadKey         = errors.New("malformed index key")
)
