package codec

import (
	"bytes"
	"context"

	"github.com/pierrec/lz4/v4"
)

var lz4Levels = [MaxLevel + 1]lz4.CompressionLevel{
	1: lz4.Level1,
	2: lz4.Level2,
	3: lz4.Level3,
	4: lz4.Level4,
	5: lz4.Level5,
	6: lz4.Level6,
	7: lz4.Level7,
	8: lz4.Level8,
	9: lz4.Level9,
}

// LZ4 uses the LZ4 frame format so the decoder needs no size hint.
type LZ4 struct{}

// Compress implements Codec.
func (LZ4) Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	Report(progress, 0)
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
		return nil, wrap("lz4 compress", err)
	}
	if err := writeChunks(ctx, w, in, progress); err != nil {
		return nil, wrap("lz4 compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, wrap("lz4 compress", err)
	}
	Report(progress, 100)
	return buf.Bytes(), nil
}

// Decompress implements Codec.
func (LZ4) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	Report(progress, 0)
	src := newCountingReader(in)
	out, err := readAll(ctx, lz4.NewReader(src), src, progress)
	if err != nil {
		return nil, wrap("lz4 decompress", err)
	}
	Report(progress, 100)
	return out, nil
}
