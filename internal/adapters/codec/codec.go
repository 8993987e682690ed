// Package codec adapts general-purpose byte compressors to the exchange.
//
// Every codec accepts a level in [MinLevel, MaxLevel] and an optional
// progress channel that receives percentages in 0..100. Progress sends
// never block; a slow reader simply misses intermediate values.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Level bounds accepted by Compress.
const (
	MinLevel = 1
	MaxLevel = 9
)

// Names understood by New.
const (
	NameFlate    = "flate"
	NameZstd     = "zstd"
	NameLZ4      = "lz4"
	NameIdentity = "identity"
)

const chunkSize = 4 << 10

// MaxDecompressed caps the output of Decompress. A full QR payload inflates
// to a few tens of kilobytes at most.
const MaxDecompressed = 1 << 20

// Codec compresses and decompresses whole payloads.
type Codec interface {
	Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error)
	Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error)
}

// New returns the codec registered under name.
func New(name string) (Codec, error) {
	switch name {
	case NameFlate:
		return Flate{}, nil
	case NameZstd:
		return NewZstd(), nil
	case NameLZ4:
		return LZ4{}, nil
	case NameIdentity:
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Report sends pct on progress without blocking.
func Report(progress chan<- int, pct int) {
	if progress == nil {
		return
	}
	select {
	case progress <- pct:
	default:
	}
}

func checkLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %d", ErrLevel, level)
	}
	return nil
}

// writeChunks feeds in to w in chunks, reporting progress and honoring ctx
// between chunks.
func writeChunks(ctx context.Context, w io.Writer, in []byte, progress chan<- int) error {
	total := len(in)
	for off := 0; off < total; off += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+chunkSize, total)
		if _, err := w.Write(in[off:end]); err != nil {
			return err
		}
		Report(progress, end*100/total)
	}
	return nil
}

// readAll drains r, reporting progress as a share of the compressed input
// consumed so far.
func readAll(ctx context.Context, r io.Reader, src *countingReader, progress chan<- int) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, chunkSize)
	r = io.LimitReader(r, MaxDecompressed+1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if out.Len() > MaxDecompressed {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxDecompressed)
		}
		if src.total > 0 {
			Report(progress, src.read*100/src.total)
		}
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

type countingReader struct {
	r     io.Reader
	read  int
	total int
}

func newCountingReader(in []byte) *countingReader {
	return &countingReader{r: bytes.NewReader(in), total: len(in)}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCodec, op, err)
}
