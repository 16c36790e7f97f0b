// Package jobs runs batches of independent jobs on a bounded worker pool
// with retries.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of work carrying a typed payload.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler[T any] func(context.Context, Job[T]) error

// QueueConfig configures a queue. RetryDelay doubles on each attempt up to
// MaxRetryDelay. A negative MaxRetries disables retries.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Logger        *zap.Logger
}

// Result summarises the jobs a queue has finished. Failed holds the ids of
// jobs that exhausted their retries, in completion order.
type Result struct {
	Succeeded int
	Failed    []string
}

// Queue is an in-memory dispatcher backed by a fixed set of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     QueueConfig

	jobs    chan Job[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending sync.WaitGroup

	mu      sync.Mutex
	started bool
	result  Result
}

// NewQueue builds a queue that feeds handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 3
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job[T], cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.cfg.Logger.Debug("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for them to exit.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.cfg.Logger.Debug("queue stopped", zap.String("queue", q.name))
}

// Enqueue adds a job. It blocks while the buffer is full.
func (q *Queue[T]) Enqueue(job Job[T]) error {
	q.pending.Add(1)
	if err := q.push(job); err != nil {
		q.pending.Done()
		return err
	}
	return nil
}

// Drain waits until every enqueued job has succeeded or exhausted its
// retries, or ctx ends.
func (q *Queue[T]) Drain(ctx context.Context) (Result, error) {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return q.Result(), nil
	case <-ctx.Done():
		return q.Result(), ctx.Err()
	}
}

// Result returns a copy of the running totals.
func (q *Queue[T]) Result() Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := Result{Succeeded: q.result.Succeeded}
	out.Failed = append(out.Failed, q.result.Failed...)
	return out
}

func (q *Queue[T]) push(job Job[T]) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()
	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
				continue
			}
			q.finish(job.ID, true)
		}
	}
}

func (q *Queue[T]) finish(id string, ok bool) {
	q.mu.Lock()
	if ok {
		q.result.Succeeded++
	} else {
		q.result.Failed = append(q.result.Failed, id)
	}
	q.mu.Unlock()
	q.pending.Done()
}

func (q *Queue[T]) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < q.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.cfg.MaxRetryDelay {
		delay = q.cfg.MaxRetryDelay
	}
	return delay
}

func (q *Queue[T]) retry(job Job[T], err error) {
	job.Attempt++
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.String("jobId", job.ID), zap.Int("attempt", job.Attempt))
	if job.Attempt > q.cfg.MaxRetries {
		log.Warn("job exhausted retries", zap.Error(err))
		q.finish(job.ID, false)
		return
	}
	delay := q.backoff(job.Attempt)
	log.Info("job failed, retrying", zap.Duration("delay", delay), zap.Error(err))

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.finish(job.ID, false)
		case <-timer.C:
			if err := q.push(job); err != nil {
				log.Warn("requeue job failed", zap.Error(err))
				q.finish(job.ID, false)
			}
		}
	}()
}
