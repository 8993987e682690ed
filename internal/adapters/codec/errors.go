package codec

import "errors"

// Sentinel errors returned by codecs.
var (
	ErrCodec        = errors.New("codec failure")
	ErrLevel        = errors.New("compression level out of range")
	ErrUnknownCodec = errors.New("unknown codec")
	ErrTooLarge     = errors.New("decompressed payload exceeds limit")
)
