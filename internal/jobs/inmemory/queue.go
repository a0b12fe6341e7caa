package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/household-ledger/internal/jobs"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/google/uuid"
)

// Options configures a Queue.
type Options struct {
	// BufferSize determines how many jobs can be queued before PublishMessage blocks.
	BufferSize int
	// Workers is the number of concurrent handlers.
	Workers int
	// JobTimeout bounds a single handler call. Zero means no limit.
	JobTimeout time.Duration
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// Each job is attempted exactly once.
type Queue struct {
	jobChan   chan *jobs.MessageJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	workers    int
	jobTimeout time.Duration
}

// NewQueue creates a new in-memory job queue. store may be nil.
func NewQueue(opts Options, store jobs.JobStore) *Queue {
	if opts.BufferSize < 1 {
		opts.BufferSize = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Queue{
		jobChan:    make(chan *jobs.MessageJob, opts.BufferSize),
		closeChan:  make(chan struct{}),
		store:      store,
		workers:    opts.Workers,
		jobTimeout: opts.JobTimeout,
	}
}

// PublishMessage implements the Publisher interface.
func (q *Queue) PublishMessage(ctx context.Context, job *jobs.MessageJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface.
// It starts the configured number of workers, each calling handler for one job at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			q.drain(ctx, handler)
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// drain runs the jobs still buffered when the queue stops. Their senders were already
// acknowledged, so they are processed rather than dropped.
func (q *Queue) drain(ctx context.Context, handler jobs.JobHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		default:
			return
		}
	}
}

// processJob executes a single job once and records the outcome.
func (q *Queue) processJob(ctx context.Context, job *jobs.MessageJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	q.setStatus(ctx, job, jobs.JobStatusRunning, "")

	jobCtx := ctx
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	if err := q.runHandler(jobCtx, job, handler); err != nil {
		log.Debug().Err(err).Msg("Job failed")
		q.setStatus(ctx, job, jobs.JobStatusFailed, err.Error())
		return
	}
	q.setStatus(ctx, job, jobs.JobStatusCompleted, "")
}

// setStatus applies a transition to job and mirrors it into the store.
func (q *Queue) setStatus(ctx context.Context, job *jobs.MessageJob, status jobs.JobStatus, errorMsg string) {
	job.SetStatus(status, errorMsg, time.Now())
	if q.store == nil {
		return
	}
	if err := q.store.UpdateJobStatus(ctx, job.JobID, status, errorMsg); err != nil {
		// The job fell out of the bounded history.
		log := logger.FromContext(ctx)
		log.Debug().Err(err).Str("status", string(status)).Msg("Job status not recorded")
	}
}

// runHandler converts a handler panic into a job failure so the worker survives.
func (q *Queue) runHandler(ctx context.Context, job *jobs.MessageJob, handler jobs.JobHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Error().Interface("panic", r).Msg("Job handler panicked")
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
