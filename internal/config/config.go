// Package config defines the Voyager process configuration and its loader.
package config

import (
	"fmt"
	"strings"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the listen address of the local scan endpoint.
	Addr string `koanf:"addr"`

	// Store selects the Local Store backend: sqlite or memory.
	Store string `koanf:"store"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// Compression selects the codec: flate, zstd or lz4. Both devices of an
	// exchange must use the same codec.
	Compression string `koanf:"compression"`

	// CompressionLevel is the 1..9 compressor level.
	CompressionLevel int `koanf:"compression_level"`

	// ChecksumPrefixLen is how many hex characters of the schedule digest
	// are embedded in a schedule message.
	ChecksumPrefixLen int `koanf:"checksum_prefix_len"`

	// MaxPayloadChars bounds the emitted base64 string. 0 disables the check.
	MaxPayloadChars int `koanf:"max_payload_chars"`

	// QRSize is the rendered QR image edge in pixels.
	QRSize int `koanf:"qr_size"`

	// QRRecovery is the QR error correction level: low, medium, high, highest.
	QRRecovery string `koanf:"qr_recovery"`

	// DedupeSize bounds the repeat-scan memory.
	DedupeSize int `koanf:"dedupe_size"`

	// CodecWorkers and CodecQueueSize size the compressor worker pool.
	CodecWorkers   int `koanf:"codec_workers"`
	CodecQueueSize int `koanf:"codec_queue_size"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              "127.0.0.1:9102",
		Store:             StoreSQLite,
		DBPath:            "voyager.db",
		Compression:       "flate",
		CompressionLevel:  9,
		ChecksumPrefixLen: 4,
		MaxPayloadChars:   2953,
		QRSize:            512,
		QRRecovery:        "low",
		DedupeSize:        1024,
		CodecWorkers:      1,
		CodecQueueSize:    16,
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreSQLite && c.Store != StoreMemory:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreSQLite && strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty for the sqlite store", ErrInvalidConfig)
	case c.CompressionLevel < 1 || c.CompressionLevel > 9:
		return fmt.Errorf("%w: compression_level %d outside 1..9", ErrInvalidConfig, c.CompressionLevel)
	case c.ChecksumPrefixLen < 1 || c.ChecksumPrefixLen > 64:
		return fmt.Errorf("%w: checksum_prefix_len %d outside 1..64", ErrInvalidConfig, c.ChecksumPrefixLen)
	case c.MaxPayloadChars < 0:
		return fmt.Errorf("%w: max_payload_chars must not be negative", ErrInvalidConfig)
	case c.QRSize <= 0:
		return fmt.Errorf("%w: qr_size must be positive", ErrInvalidConfig)
	case c.CodecWorkers <= 0 || c.CodecQueueSize <= 0:
		return fmt.Errorf("%w: codec pool must have workers and queue", ErrInvalidConfig)
	}
	switch c.Compression {
	case "flate", "zstd", "lz4":
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidConfig, c.Compression)
	}
	switch c.QRRecovery {
	case "low", "medium", "high", "highest":
	default:
		return fmt.Errorf("%w: unknown qr_recovery %q", ErrInvalidConfig, c.QRRecovery)
	}
	return nil
}
