package codec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd holds one encoder per level plus a shared decoder. zstd encoders
// and decoders are safe for concurrent EncodeAll/DecodeAll.
type Zstd struct {
	mu       sync.Mutex
	encoders [MaxLevel + 1]*zstd.Encoder
	decoder  *zstd.Decoder
}

// NewZstd returns a Zstd codec with lazily built encoders.
func NewZstd() *Zstd {
	return &Zstd{}
}

func (z *Zstd) encoder(level int) (*zstd.Encoder, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if enc := z.encoders[level]; enc != nil {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}
	z.encoders[level] = enc
	return enc, nil
}

func (z *Zstd) dec() (*zstd.Decoder, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.decoder != nil {
		return z.decoder, nil
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxDecompressed),
	)
	if err != nil {
		return nil, err
	}
	z.decoder = dec
	return dec, nil
}

// Compress implements Codec.
func (z *Zstd) Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap("zstd compress", err)
	}
	Report(progress, 0)
	enc, err := z.encoder(level)
	if err != nil {
		return nil, wrap("zstd compress", err)
	}
	out := enc.EncodeAll(in, nil)
	Report(progress, 100)
	return out, nil
}

// Decompress implements Codec.
func (z *Zstd) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("zstd decompress", err)
	}
	Report(progress, 0)
	dec, err := z.dec()
	if err != nil {
		return nil, wrap("zstd decompress", err)
	}
	out, err := dec.DecodeAll(in, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) || (err == nil && len(out) > MaxDecompressed) {
		return nil, wrap("zstd decompress", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxDecompressed))
	}
	if err != nil {
		return nil, wrap("zstd decompress", err)
	}
	Report(progress, 100)
	return out, nil
}
