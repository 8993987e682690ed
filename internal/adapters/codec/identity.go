package codec

import (
	"context"
	"fmt"
)

// Identity copies bytes unchanged. Tests use it as a deterministic codec.
type Identity struct{}

// Compress implements Codec.
func (Identity) Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap("identity compress", err)
	}
	Report(progress, 100)
	return append([]byte(nil), in...), nil
}

// Decompress implements Codec.
func (Identity) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("identity decompress", err)
	}
	if len(in) > MaxDecompressed {
		return nil, wrap("identity decompress", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxDecompressed))
	}
	Report(progress, 100)
	return append([]byte(nil), in...), nil
}
