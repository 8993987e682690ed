package protocol

import "errors"

// Sentinel errors for encoding and decoding messages.
var (
	// Wire parsing.
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")

	// Encode-time preconditions.
	ErrPayloadTooLarge = errors.New("encoded payload exceeds budget")
	ErrNonContiguous   = errors.New("match numbers are not contiguous")
	ErrMalformedMatch  = errors.New("match does not have 3 blue and 3 red slots")
	ErrMixedScope      = errors.New("schedule spans more than one org or event")
	ErrDuplicateKey    = errors.New("duplicate natural key")
	ErrDelimiter       = errors.New("field contains a reserved delimiter")
	ErrEmpty           = errors.New("nothing to encode")

	// Decode-time structural integrity.
	ErrStructure        = errors.New("schedule structure mismatch")
	ErrChecksumMismatch = errors.New("schedule checksum mismatch")
)
