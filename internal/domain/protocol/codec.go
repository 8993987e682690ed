package protocol

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/checksum"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/metrics"
)

// DefaultChecksumPrefix is the number of hex digest characters embedded in
// schedule messages.
const DefaultChecksumPrefix = 4

// Option configures an Encoder or Decoder.
type Option func(*options)

type options struct {
	prefixLen int
	progress  chan<- int
	logger    logger.Logger
}

// WithChecksumPrefix sets how many digest characters schedules carry.
func WithChecksumPrefix(n int) Option {
	return func(o *options) {
		if n > 0 && n <= 2*checksum.Size {
			o.prefixLen = n
		}
	}
}

// WithProgress forwards codec progress to ch.
func WithProgress(ch chan<- int) Option {
	return func(o *options) { o.progress = ch }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(name string, opts []Option) options {
	o := options{prefixLen: DefaultChecksumPrefix, logger: logger.Get().Named(name)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Encoder turns domain payloads into scannable strings.
type Encoder struct {
	wire *Wire
	opts options
}

// NewEncoder creates an encoder writing through w.
func NewEncoder(w *Wire, opts ...Option) *Encoder {
	return &Encoder{wire: w, opts: newOptions("encoder", opts)}
}

// Meta encodes org context.
func (e *Encoder) Meta(ctx context.Context, m *Meta) (string, error) {
	w, err := encodeMeta(m)
	if err != nil {
		return "", e.fail(ctx, TypeMeta, err)
	}
	return e.pack(ctx, TypeMeta, w)
}

// MatchSchedule encodes a full match schedule. Every precondition is
// checked before any compression work starts.
func (e *Encoder) MatchSchedule(ctx context.Context, as []model.MatchAssignment) (string, error) {
	w, err := encodeMatchSchedule(as, e.opts.prefixLen)
	if err != nil {
		return "", e.fail(ctx, TypeMatchSchedule, err)
	}
	return e.pack(ctx, TypeMatchSchedule, w)
}

// PitSchedule encodes a full pit schedule.
func (e *Encoder) PitSchedule(ctx context.Context, as []model.PitAssignment) (string, error) {
	w, err := encodePitSchedule(as, e.opts.prefixLen)
	if err != nil {
		return "", e.fail(ctx, TypePitSchedule, err)
	}
	return e.pack(ctx, TypePitSchedule, w)
}

// MatchResult encodes one completed match record.
func (e *Encoder) MatchResult(ctx context.Context, r *MatchResult) (string, error) {
	w, err := encodeMatchResult(r)
	if err != nil {
		return "", e.fail(ctx, TypeMatchResult, err)
	}
	return e.pack(ctx, TypeMatchResult, w)
}

// PitResult encodes one completed pit record.
func (e *Encoder) PitResult(ctx context.Context, r *PitResult) (string, error) {
	w, err := encodePitResult(r)
	if err != nil {
		return "", e.fail(ctx, TypePitResult, err)
	}
	return e.pack(ctx, TypePitResult, w)
}

func (e *Encoder) pack(ctx context.Context, t Type, v any) (string, error) {
	s, err := e.wire.Pack(ctx, v, e.opts.progress)
	if err != nil {
		return "", e.fail(ctx, t, err)
	}
	metrics.RecordMessageEncoded(string(t), len(s))
	e.opts.logger.Debug(ctx, "message encoded", logger.String("type", string(t)), logger.Int("chars", len(s)))
	return s, nil
}

func (e *Encoder) fail(ctx context.Context, t Type, err error) error {
	metrics.RecordError("encoder", string(t))
	e.opts.logger.Debug(ctx, "encode failed", logger.String("type", string(t)), logger.Error(err))
	return fmt.Errorf("encode %s: %w", t, err)
}

// Decoder turns scanned strings back into typed messages.
type Decoder struct {
	wire     *Wire
	resolver *index.Resolver
	opts     options
}

// NewDecoder creates a decoder reading through w and resolving indices
// with r.
func NewDecoder(w *Wire, r *index.Resolver, opts ...Option) *Decoder {
	return &Decoder{wire: w, resolver: r, opts: newOptions("decoder", opts)}
}

// Decode unpacks s and dispatches on its tag. Nothing is written anywhere;
// a malformed or tampered message fails here.
func (d *Decoder) Decode(ctx context.Context, s string) (Message, error) {
	raw, err := d.wire.Unpack(ctx, s, d.opts.progress)
	if err != nil {
		return nil, d.fail(ctx, "", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, d.fail(ctx, "", fmt.Errorf("%w: %w", ErrMalformed, err))
	}

	msg, err := d.dispatch(ctx, env.Type, raw)
	if err != nil {
		return nil, d.fail(ctx, env.Type, err)
	}
	metrics.RecordMessageDecoded(string(env.Type))
	return msg, nil
}

func (d *Decoder) dispatch(ctx context.Context, t Type, raw []byte) (Message, error) {
	switch t {
	case TypeMeta:
		var w metaWire
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return decodeMeta(&w)
	case TypeMatchSchedule:
		var w schedWire
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return decodeMatchSchedule(ctx, &w, d.resolver)
	case TypePitSchedule:
		var w pitSchedWire
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return decodePitSchedule(ctx, &w, d.resolver)
	case TypeMatchResult:
		var w matchResultWire
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return decodeMatchResult(&w)
	case TypePitResult:
		var w pitResultWire
		if err := unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return decodePitResult(&w)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func unmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

func (d *Decoder) fail(ctx context.Context, t Type, err error) error {
	kind := string(t)
	if kind == "" {
		kind = "wire"
	}
	metrics.RecordError("decoder", kind)
	d.opts.logger.Debug(ctx, "decode failed", logger.String("type", kind), logger.Error(err))
	if t == "" {
		return fmt.Errorf("decode: %w", err)
	}
	return fmt.Errorf("decode %s: %w", t, err)
}
