package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/queue"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive jobs.
type Queue interface {
	Enqueue(ctx context.Context, j *queue.Job) bool
	Dequeue(ctx context.Context) <-chan *queue.Job
	Len(ctx context.Context) int
	Close() error
}

// InMemoryWorker executes jobs against a codec.
type InMemoryWorker struct {
	queue Queue
	codec codec.Codec
	name  string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, c codec.Codec, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		codec:    c,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until ctx ends, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			failPending(jobs)
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

// Shutdown stops the worker and waits for the current job. Jobs still
// queued fail with queue.ErrStopped.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// failPending completes every job already waiting in jobs with
// queue.ErrStopped.
func failPending(jobs <-chan *queue.Job) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			job.Complete(nil, queue.ErrStopped)
		default:
			return
		}
	}
}

func (w *InMemoryWorker) process(job *queue.Job) {
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	defer func() {
		metrics.RecordCodecLatency(job.Op.String(), float64(time.Since(start).Microseconds())/1000)
	}()

	var (
		out []byte
		err error
	)
	switch job.Op {
	case queue.OpCompress:
		out, err = w.codec.Compress(ctx, job.Input, job.Level, job.Progress)
	case queue.OpDecompress:
		out, err = w.codec.Decompress(ctx, job.Input, job.Progress)
	default:
		err = fmt.Errorf("%w: unsupported %s", codec.ErrCodec, job.Op)
	}
	if err != nil {
		metrics.RecordError("worker", job.Op.String())
		w.logger.Debug(ctx, "codec job failed",
			logger.String("op", job.Op.String()),
			logger.Int("input_bytes", len(job.Input)),
			logger.Error(err),
		)
	}
	job.Complete(out, err)
}

// Pool runs a fixed set of workers over one queue. A started Pool is itself
// a codec.Codec: calls enqueue a job and wait for its result.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	codec   codec.Codec
	size    int
	started bool

	logger logger.Logger
}

var _ codec.Codec = (*Pool)(nil)

// NewPool creates a pool over c.
func NewPool(c codec.Codec, opts ...PoolOption) *Pool {
	p := &Pool{
		codec:  c,
		size:   1,
		logger: logger.Get().Named("codec-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue == nil {
		p.queue = queue.NewInMemoryQueue()
	}
	p.workers = make([]*InMemoryWorker, p.size)
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(p.queue, c,
			WithName("codec-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}
	return p
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateCodecWorkers(len(p.workers))
}

// Compress implements codec.Codec.
func (p *Pool) Compress(ctx context.Context, in []byte, level int, progress chan<- int) ([]byte, error) {
	return p.submit(ctx, queue.NewJob(ctx, queue.OpCompress, in, level, progress))
}

// Decompress implements codec.Codec.
func (p *Pool) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	return p.submit(ctx, queue.NewJob(ctx, queue.OpDecompress, in, 0, progress))
}

func (p *Pool) submit(ctx context.Context, job *queue.Job) ([]byte, error) {
	if closer, ok := p.queue.(interface{ IsClosed() bool }); ok && closer.IsClosed() {
		return nil, queue.ErrStopped
	}
	if !p.queue.Enqueue(ctx, job) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d waiting", queue.ErrFull, p.queue.Len(ctx))
	}
	return job.Wait(ctx)
}

// Shutdown closes the queue and stops every worker. Jobs still queued fail
// with queue.ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	if !p.started {
		failPending(p.queue.Dequeue(ctx))
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	metrics.UpdateCodecWorkers(0)
	return errors.Join(errs...)
}
