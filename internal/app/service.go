// Package service wires the codec pool, Local Store, encoder, decoder,
// importer and scan dedupe into the operations the CLI and HTTP surfaces use.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/queue"
	workerpool "github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/worker"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/dedupe"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/importer"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/types"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the exchange operations for one device.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	codec    codec.Codec
	pool     *workerpool.Pool
	deduper  dedupe.Deduper
	inflight singleflight.Group
	encoder  *protocol.Encoder
	decoder  *protocol.Decoder
	importer *importer.Importer

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	level       int
	prefixLen   int
	maxChars    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the Local Store. The service closes it on Stop.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithCodec sets the compressor run by the worker pool.
func WithCodec(c codec.Codec) Option {
	return func(s *Service) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithWorkerCount sets the number of codec workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the codec job queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many scans are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCompressionLevel sets the 1..9 compressor level.
func WithCompressionLevel(level int) Option {
	return func(s *Service) {
		if level >= codec.MinLevel && level <= codec.MaxLevel {
			s.level = level
		}
	}
}

// WithChecksumPrefix sets how many digest characters schedules carry.
func WithChecksumPrefix(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.prefixLen = n
		}
	}
}

// WithMaxChars sets the encoded length budget. Zero disables it.
func WithMaxChars(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxChars = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 1,
		queueSize:   16,
		dedupeSize:  1024,
		level:       protocol.DefaultLevel,
		prefixLen:   protocol.DefaultChecksumPrefix,
		maxChars:    protocol.DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts the components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.codec == nil {
		c, err := codec.New(codec.NameFlate)
		if err != nil {
			return err
		}
		s.codec = c
	}

	s.pool = workerpool.NewPool(s.codec,
		workerpool.WithWorkers(s.workerCount),
		workerpool.WithQueue(queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))),
		workerpool.WithPoolLogger(s.logger.Named("codec-pool")),
	)
	// Workers outlive the ctx of the Start call; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	wire := protocol.NewWire(s.pool, protocol.WithLevel(s.level), protocol.WithMaxChars(s.maxChars))
	resolver := index.NewResolver(repository.NewReferences(s.store), index.WithLogger(s.logger.Named("resolver")))
	s.encoder = protocol.NewEncoder(wire, protocol.WithChecksumPrefix(s.prefixLen), protocol.WithLogger(s.logger.Named("encoder")))
	s.decoder = protocol.NewDecoder(wire, resolver, protocol.WithLogger(s.logger.Named("decoder")))
	s.importer = importer.New(s.store, importer.WithLogger(s.logger.Named("importer")))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "exchange service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("level", s.level),
		logger.Int("checksum_prefix", s.prefixLen),
	)
	return nil
}

// Stop shuts the pool down and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "codec pool shutdown failed", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "store close failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "exchange service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Store returns the Local Store.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// EncodeMeta encodes an org context.
func (s *Service) EncodeMeta(ctx context.Context, m *protocol.Meta) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.encoder.Meta(ctx, m)
}

// EncodeMatchSchedule encodes a match schedule.
func (s *Service) EncodeMatchSchedule(ctx context.Context, rows []model.MatchAssignment) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.encoder.MatchSchedule(ctx, rows)
}

// EncodePitSchedule encodes a pit schedule.
func (s *Service) EncodePitSchedule(ctx context.Context, rows []model.PitAssignment) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.encoder.PitSchedule(ctx, rows)
}

// EncodeMatchResult encodes one match result.
func (s *Service) EncodeMatchResult(ctx context.Context, r *protocol.MatchResult) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.encoder.MatchResult(ctx, r)
}

// EncodePitResult encodes one pit result.
func (s *Service) EncodePitResult(ctx context.Context, r *protocol.PitResult) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.encoder.PitResult(ctx, r)
}

// ExportMeta encodes the stored org context for orgKey.
func (s *Service) ExportMeta(ctx context.Context, orgKey string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var m protocol.Meta
	err := s.store.View(ctx, func(tx repository.Tx) error {
		org, err := tx.Org(ctx, orgKey)
		if err != nil {
			return err
		}
		ev, err := tx.Event(ctx, org.EventKey)
		if err != nil {
			return err
		}
		users, err := tx.Users(ctx, orgKey)
		if err != nil {
			return err
		}
		teams, err := tx.Teams(ctx)
		if err != nil {
			return err
		}
		m = protocol.Meta{Org: org, Teams: teams, Users: users, Event: ev}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("export meta %s: %w", orgKey, err)
	}
	return s.encoder.Meta(ctx, &m)
}

// ExportMatchSchedule encodes the stored match schedule of an event.
func (s *Service) ExportMatchSchedule(ctx context.Context, orgKey, eventKey string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var rows []model.MatchAssignment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		rows, err = tx.MatchAssignments(ctx, orgKey, eventKey)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("export match schedule %s/%s: %w", orgKey, eventKey, err)
	}
	return s.encoder.MatchSchedule(ctx, rows)
}

// ExportPitSchedule encodes the stored pit schedule of an event.
func (s *Service) ExportPitSchedule(ctx context.Context, orgKey, eventKey string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var rows []model.PitAssignment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		rows, err = tx.PitAssignments(ctx, orgKey, eventKey)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("export pit schedule %s/%s: %w", orgKey, eventKey, err)
	}
	return s.encoder.PitSchedule(ctx, rows)
}

// ExportMatchResult encodes the stored result of one match assignment.
func (s *Service) ExportMatchResult(ctx context.Context, matchTeamKey string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var row model.MatchAssignment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		row, err = tx.MatchAssignment(ctx, matchTeamKey)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("export match result %s: %w", matchTeamKey, err)
	}
	return s.encoder.MatchResult(ctx, protocol.MatchResultOf(&row))
}

// ExportPitResult encodes the stored result of one pit assignment.
func (s *Service) ExportPitResult(ctx context.Context, key model.PitKey) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var row model.PitAssignment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		row, err = tx.PitAssignment(ctx, key)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("export pit result %s: %w", key.TeamKey, err)
	}
	return s.encoder.PitResult(ctx, protocol.PitResultOf(&row))
}

// Scan decodes one scanned string and imports it. A string already
// imported is reported as a duplicate without touching the store. Copies
// of a string that arrive while it is being imported wait for that import
// and share its outcome; a scan is remembered only once its import commits.
func (s *Service) Scan(ctx context.Context, scanned string) (types.ImportSummary, error) {
	if err := s.ready(); err != nil {
		return types.ImportSummary{}, err
	}
	scanned = strings.TrimSpace(scanned)
	id := uuid.NewString()

	if s.deduper.Seen(ctx, scanned) {
		return s.duplicate(ctx, id), nil
	}

	key := dedupe.KeyOf(scanned)
	leader := false
	v, err, _ := s.inflight.Do(string(key[:]), func() (any, error) {
		leader = true
		if s.deduper.Seen(ctx, scanned) {
			return nil, nil
		}
		return s.importScan(ctx, id, scanned)
	})
	if err != nil {
		return types.ImportSummary{}, err
	}
	if !leader || v == nil {
		return s.duplicate(ctx, id), nil
	}
	return v.(types.ImportSummary), nil
}

func (s *Service) importScan(ctx context.Context, id, scanned string) (types.ImportSummary, error) {
	summary := types.ImportSummary{ID: id}
	msg, err := s.decoder.Decode(ctx, scanned)
	if err != nil {
		return types.ImportSummary{}, err
	}
	summary.Type = string(msg.Type())

	st, err := s.importer.Import(ctx, msg)
	if err != nil {
		return types.ImportSummary{}, err
	}
	summary.Rows = st.Rows
	summary.Preserved = st.Preserved
	s.deduper.SeenAndRecord(ctx, scanned)

	s.logger.Info(ctx, "scan imported",
		logger.String("import_id", summary.ID),
		logger.String("type", summary.Type),
		logger.Int("rows", summary.Rows),
		logger.Int("preserved", summary.Preserved),
	)
	return summary, nil
}

func (s *Service) duplicate(ctx context.Context, id string) types.ImportSummary {
	metrics.RecordDuplicateScan()
	s.logger.Debug(ctx, "duplicate scan skipped", logger.String("import_id", id))
	return types.ImportSummary{ID: id, Duplicate: true}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"compressionLevel": s.level,
		"checksumPrefix":   s.prefixLen,
		"maxPayloadChars":  s.maxChars,
	}
	if s.started {
		stats["rememberedScans"] = s.deduper.Size()
	}
	return stats
}
