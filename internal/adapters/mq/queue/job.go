package queue

import (
	"context"
	"fmt"
)

// Op selects the codec direction of a job.
type Op int

// Job operations.
const (
	OpCompress Op = iota
	OpDecompress
)

func (o Op) String() string {
	switch o {
	case OpCompress:
		return "compress"
	case OpDecompress:
		return "decompress"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Result is the outcome of a job.
type Result struct {
	Data []byte
	Err  error
}

// Job is one compress or decompress request. The submitter waits on it;
// a worker completes it exactly once.
type Job struct {
	Ctx      context.Context //nolint:containedctx // the job outlives the enqueue call
	Op       Op
	Input    []byte
	Level    int
	Progress chan<- int

	done chan Result
}

// NewJob creates a job bound to ctx.
func NewJob(ctx context.Context, op Op, input []byte, level int, progress chan<- int) *Job {
	return &Job{
		Ctx:      ctx,
		Op:       op,
		Input:    input,
		Level:    level,
		Progress: progress,
		done:     make(chan Result, 1),
	}
}

// Complete delivers the result. Only the first call has effect.
func (j *Job) Complete(data []byte, err error) {
	select {
	case j.done <- Result{Data: data, Err: err}:
	default:
	}
}

// Wait blocks until the job completes or ctx ends.
func (j *Job) Wait(ctx context.Context) ([]byte, error) {
	select {
	case r := <-j.done:
		return r.Data, r.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s job: %w", j.Op, ctx.Err())
	}
}
