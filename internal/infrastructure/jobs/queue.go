// Package jobs runs keyed background work on a bounded worker pool.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"go.uber.org/zap"
)

var _ mediaapp.ThumbnailQueue = (*Queue)(nil)

// ErrStopped is returned by Await for jobs dropped at shutdown
var ErrStopped = errors.New("jobs: queue stopped")

// Options configures a Queue
type Options struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

type job struct {
	key string
	fn  func(ctx context.Context) error
	st  *state
}

// state is shared between the worker running a job and everyone awaiting it
type state struct {
	done chan struct{}
	err  error
}

// Queue executes submitted jobs on a fixed number of workers and tracks the pending ones by key
type Queue struct {
	opts    Options
	logger  *zap.Logger
	jobs    chan job
	mu      sync.Mutex
	pending map[string]*state
	running atomic.Bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewQueue creates a Queue; call Start before submitting
func NewQueue(opts Options, logger *zap.Logger) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 64
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		opts:    opts,
		logger:  logger,
		jobs:    make(chan job, opts.Size),
		pending: make(map[string]*state),
	}
}

// Start launches the workers
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running.Load() {
		return
	}
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	q.running.Store(true)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work(fmt.Sprintf("worker-%d", i))
	}
	q.logger.Info("job queue started", zap.Int("workers", q.opts.Workers), zap.Int("size", q.opts.Size))
}

// Submit enqueues fn under key. It returns false when a job with the same key is
// already pending, when the queue is full or when it has been stopped.
func (q *Queue) Submit(key string, fn func(ctx context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running.Load() {
		q.logger.Warn("job rejected, queue not running", zap.String("key", key))
		return false
	}
	if _, ok := q.pending[key]; ok {
		return false
	}
	st := &state{done: make(chan struct{})}
	select {
	case q.jobs <- job{key: key, fn: fn, st: st}:
		q.pending[key] = st
		return true
	default:
		q.logger.Warn("job rejected, queue full", zap.String("key", key))
		return false
	}
}

// Pending reports whether a job for key is queued or running
func (q *Queue) Pending(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// Len returns the number of pending jobs
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Await waits for the job under key. It returns false immediately when nothing is pending.
func (q *Queue) Await(ctx context.Context, key string) (bool, error) {
	q.mu.Lock()
	st, ok := q.pending[key]
	q.mu.Unlock()
	if !ok {
		return false, nil
	}
	select {
	case <-st.done:
		return true, st.err
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// Stop rejects new jobs and waits for queued ones to finish. When ctx expires first,
// running jobs are cancelled and the remaining ones are released with ErrStopped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running.Load() {
		q.mu.Unlock()
		return nil
	}
	q.running.Store(false)
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("job queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		q.logger.Warn("job queue stopped before draining", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (q *Queue) work(id string) {
	defer q.wg.Done()
	for j := range q.jobs {
		if q.ctx.Err() != nil {
			q.finish(j, ErrStopped)
			continue
		}
		q.finish(j, q.run(id, j))
	}
}

func (q *Queue) run(worker string, j job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.key, r)
		}
		if err != nil {
			q.logger.Warn("job failed",
				zap.String("worker", worker),
				zap.String("key", j.key),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return
		}
		q.logger.Debug("job completed",
			zap.String("worker", worker),
			zap.String("key", j.key),
			zap.Duration("duration", time.Since(start)))
	}()

	ctx, cancel := context.WithTimeout(q.ctx, q.opts.JobTimeout)
	defer cancel()
	return j.fn(ctx)
}

func (q *Queue) finish(j job, err error) {
	j.st.err = err
	q.mu.Lock()
	if q.pending[j.key] == j.st {
		delete(q.pending, j.key)
	}
	q.mu.Unlock()
	close(j.st.done)
}
