package worker_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/queue"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/worker"
	logging "github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// blockingCodec holds every call until release is closed.
type blockingCodec struct {
	release chan struct{}
}

func (b *blockingCodec) Compress(ctx context.Context, in []byte, _ int, _ chan<- int) ([]byte, error) {
	select {
	case <-b.release:
		return in, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingCodec) Decompress(ctx context.Context, in []byte, p chan<- int) ([]byte, error) {
	return b.Compress(ctx, in, 1, p)
}

type failingCodec struct{}

func (failingCodec) Compress(context.Context, []byte, int, chan<- int) ([]byte, error) {
	return nil, errors.New("boom")
}

func (failingCodec) Decompress(context.Context, []byte, chan<- int) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestPool(t *testing.T) {
	convey.Convey("Given a started codec pool over flate", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool := worker.NewPool(codec.Flate{}, worker.WithWorkers(3), worker.WithPoolLogger(logging.Nop()))
		pool.Start(ctx)
		defer func() { _ = pool.Shutdown(ctx) }()

		convey.Convey("When many callers compress concurrently", func() {
			input := bytes.Repeat([]byte("blue red blue red "), 200)
			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					packed, err := pool.Compress(ctx, input, 9, nil)
					if err != nil {
						errs <- err
						return
					}
					out, err := pool.Decompress(ctx, packed, nil)
					if err != nil {
						errs <- err
						return
					}
					if !bytes.Equal(out, input) {
						errs <- errors.New("round trip mismatch")
					}
				}()
			}
			wg.Wait()
			close(errs)

			convey.Convey("Then every call round-trips", func() {
				for err := range errs {
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When progress is requested", func() {
			progress := make(chan int, 16)
			_, err := pool.Compress(ctx, []byte("frc102"), 5, progress)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the worker reported completion", func() {
				var seen []int
				for len(progress) > 0 {
					seen = append(seen, <-progress)
				}
				convey.So(seen, convey.ShouldContain, 100)
			})
		})

		convey.Convey("When the codec rejects the level", func() {
			_, err := pool.Compress(ctx, []byte("x"), 42, nil)
			convey.So(errors.Is(err, codec.ErrLevel), convey.ShouldBeTrue)
		})
	})
}

func TestPoolFailures(t *testing.T) {
	convey.Convey("Given pools in unusual states", t, func() {
		ctx := context.Background()

		convey.Convey("When the codec fails", func() {
			pool := worker.NewPool(failingCodec{}, worker.WithPoolLogger(logging.Nop()))
			pool.Start(ctx)
			_, err := pool.Decompress(ctx, []byte("x"), nil)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldEqual, "boom")
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When the queue is full", func() {
			blocker := &blockingCodec{release: make(chan struct{})}
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			pool := worker.NewPool(blocker, worker.WithQueue(q), worker.WithPoolLogger(logging.Nop()))

			// Not started: the first job sits in the queue.
			go func() { _, _ = pool.Compress(ctx, []byte("a"), 1, nil) }()
			time.Sleep(20 * time.Millisecond)
			_, err := pool.Compress(ctx, []byte("b"), 1, nil)
			convey.So(errors.Is(err, queue.ErrFull), convey.ShouldBeTrue)
			close(blocker.release)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When the caller gives up waiting", func() {
			blocker := &blockingCodec{release: make(chan struct{})}
			pool := worker.NewPool(blocker, worker.WithPoolLogger(logging.Nop()))
			pool.Start(ctx)
			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := pool.Compress(short, []byte("a"), 1, nil)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			close(blocker.release)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When a job is still queued at shutdown", func() {
			pool := worker.NewPool(codec.Identity{}, worker.WithPoolLogger(logging.Nop()))
			errCh := make(chan error, 1)
			go func() {
				_, err := pool.Compress(ctx, []byte("a"), 1, nil)
				errCh <- err
			}()
			time.Sleep(20 * time.Millisecond)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(errors.Is(<-errCh, queue.ErrStopped), convey.ShouldBeTrue)
		})

		convey.Convey("When the pool is shut down", func() {
			pool := worker.NewPool(codec.Identity{}, worker.WithPoolLogger(logging.Nop()))
			pool.Start(ctx)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			_, err := pool.Compress(ctx, []byte("a"), 1, nil)
			convey.So(errors.Is(err, queue.ErrStopped), convey.ShouldBeTrue)
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, codec.Identity{}, worker.WithLogger(logging.Nop()))
		go w.Run(ctx)

		convey.Convey("When it is shut down twice", func() {
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When it is busy past the deadline", func() {
			blocker := &blockingCodec{release: make(chan struct{})}
			busy := worker.NewInMemoryWorker(q, blocker, worker.WithLogger(logging.Nop()))
			_ = w.Shutdown(ctx)
			go busy.Run(ctx)
			job := queue.NewJob(ctx, queue.OpCompress, []byte("a"), 1, nil)
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeTrue)
			time.Sleep(20 * time.Millisecond)

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := busy.Shutdown(short)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			close(blocker.release)
			_, err = job.Wait(ctx)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
