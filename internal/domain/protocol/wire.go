package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
)

// Defaults for the transport.
const (
	DefaultLevel    = codec.MaxLevel
	DefaultMaxChars = 2953
)

// signShift moves a byte between the compressor's signed view (-128..127)
// and the unsigned range used for base64. Adding 128 to int8(b) flips the
// high bit, so the shift is its own inverse.
const signShift = 0x80

// WireOption configures a Wire.
type WireOption func(*Wire)

// WithLevel sets the compression level.
func WithLevel(level int) WireOption {
	return func(w *Wire) {
		if level >= codec.MinLevel && level <= codec.MaxLevel {
			w.level = level
		}
	}
}

// WithMaxChars sets the encoded length budget. Zero disables it.
func WithMaxChars(n int) WireOption {
	return func(w *Wire) {
		if n >= 0 {
			w.maxChars = n
		}
	}
}

// Wire turns records into scannable text and back:
// JSON, compress, shift, base64.
type Wire struct {
	codec    codec.Codec
	level    int
	maxChars int
}

// NewWire creates a transport over c.
func NewWire(c codec.Codec, opts ...WireOption) *Wire {
	w := &Wire{codec: c, level: DefaultLevel, maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Pack encodes v.
func (w *Wire) Pack(ctx context.Context, v any, progress chan<- int) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	packed, err := w.codec.Compress(ctx, raw, w.level, progress)
	if err != nil {
		return "", err
	}
	shift(packed)
	out := base64.StdEncoding.EncodeToString(packed)
	if w.maxChars > 0 && len(out) > w.maxChars {
		return "", fmt.Errorf("%w: %d chars > %d", ErrPayloadTooLarge, len(out), w.maxChars)
	}
	return out, nil
}

// Unpack reverses Pack and returns the JSON record.
func (w *Wire) Unpack(ctx context.Context, s string, progress chan<- int) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if w.maxChars > 0 && len(s) > w.maxChars {
		return nil, fmt.Errorf("%w: %d chars > %d", ErrPayloadTooLarge, len(s), w.maxChars)
	}
	packed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrMalformed, err)
	}
	shift(packed)
	return w.codec.Decompress(ctx, packed, progress)
}

func shift(b []byte) {
	for i := range b {
		b[i] ^= signShift
	}
}
