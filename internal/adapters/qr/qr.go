// Package qr renders exchange strings as QR codes.
package qr

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrRecovery is returned for an unknown error correction level name.
var ErrRecovery = errors.New("unknown qr recovery level")

// ErrEmpty is returned when there is nothing to render.
var ErrEmpty = errors.New("empty qr content")

const defaultSize = 512

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the PNG edge in pixels.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithRecovery sets the error correction level.
func WithRecovery(level qrcode.RecoveryLevel) Option {
	return func(r *Renderer) { r.level = level }
}

// Recovery maps a level name (low, medium, high, highest) to its value.
func Recovery(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low", "":
		return qrcode.Low, nil
	case "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrRecovery, name)
}

// Renderer turns one encoded message into one QR code.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewRenderer creates a renderer. Low recovery is the default since it
// carries the most data per code.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{size: defaultSize, level: qrcode.Low}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PNG renders content as a PNG image.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmpty
	}
	png, err := qrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

// Terminal renders content with block characters for a text console.
func (r *Renderer) Terminal(content string) (string, error) {
	if content == "" {
		return "", ErrEmpty
	}
	q, err := qrcode.New(content, r.level)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return q.ToSmallString(false), nil
}
