package codec

import (
	"bytes"
	"context"

	"github.com/klauspost/compress/flate"
)

// Flate is raw DEFLATE; levels map one to one onto flate levels.
type Flate struct{}

// Compress implements Codec.
func (Flate) Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	Report(progress, 0)
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, wrap("flate compress", err)
	}
	if err := writeChunks(ctx, w, in, progress); err != nil {
		return nil, wrap("flate compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, wrap("flate compress", err)
	}
	Report(progress, 100)
	return buf.Bytes(), nil
}

// Decompress implements Codec.
func (Flate) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	Report(progress, 0)
	src := newCountingReader(in)
	r := flate.NewReader(src)
	defer r.Close()
	out, err := readAll(ctx, r, src, progress)
	if err != nil {
		return nil, wrap("flate decompress", err)
	}
	Report(progress, 100)
	return out, nil
}
