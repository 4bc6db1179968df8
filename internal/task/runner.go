package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/events"
	"github.com/altscribe/altscribe-api/internal/platform/redis"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many jobs execute concurrently.
	// Zero starts no workers; Submit still enqueues.
	WorkerCount int

	// JobTimeout is the wall-clock ceiling of one job execution.
	JobTimeout time.Duration

	// StuckJobAge is how long an unfinished job may go without an update
	// before it is re-enqueued.
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stale jobs.
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		JobTimeout:            30 * time.Minute,
		StuckJobAge:           10 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background job execution
type Runner struct {
	queue     Queue
	jobs      JobRepository
	proposals ProposalRepository
	processor Processor
	emitter   events.EventEmitter
	config    RunnerConfig
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	running map[uuid.UUID]struct{}
}

// NewRunner creates a new Runner. A nil emitter disables job events.
func NewRunner(queue Queue, jobs JobRepository, proposals ProposalRepository, processor Processor,
	emitter events.EventEmitter, config RunnerConfig, logger *slog.Logger,
) *Runner {
	defaults := DefaultRunnerConfig()
	if config.StuckJobCheckInterval <= 0 {
		config.StuckJobCheckInterval = defaults.StuckJobCheckInterval
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.StuckJobAge <= 0 {
		config.StuckJobAge = defaults.StuckJobAge
	}
	if config.WorkerCount < 0 {
		config.WorkerCount = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      queue,
		jobs:       jobs,
		proposals:  proposals,
		processor:  processor,
		emitter:    emitter,
		config:     config,
		logger:     logger.With("component", "job_runner"),
		ctx:        ctx,
		cancelFunc: cancel,
		running:    make(map[uuid.UUID]struct{}),
	}
}

// Submit enqueues a stored job for execution. The job id is the handle
// callers poll for status.
func (r *Runner) Submit(ctx context.Context, jobID uuid.UUID) error {
	if err := r.queue.Enqueue(ctx, jobID.String()); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Start recovers unfinished jobs and starts the workers and the stale-job
// monitor. Without workers it does nothing.
func (r *Runner) Start() error {
	if r.config.WorkerCount == 0 {
		r.logger.Info("no workers configured, jobs are only enqueued")
		return nil
	}

	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.staleJobMonitor()

	r.logger.Info("job runner started",
		"worker_count", r.config.WorkerCount,
		"job_timeout", r.config.JobTimeout.String(),
		"durable_queue", r.queue.Durable())
	return nil
}

// Stop cancels running jobs and waits for the workers to exit. Interrupted
// jobs stay in processing and are recovered by the next Start.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// Recover re-enqueues jobs left behind by a previous process. With a
// non-durable queue every unfinished job is re-enqueued; with a durable
// queue only jobs idle longer than StuckJobAge are, since fresh queued ids
// are still waiting.
func (r *Runner) Recover(ctx context.Context) error {
	active, err := r.jobs.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unfinished jobs: %w", err)
	}

	cutoff := time.Now().UTC().Add(-r.config.StuckJobAge)
	durable := r.queue.Durable()
	requeued := 0

	// ListActive is newest first; requeue oldest first.
	for _, job := range slices.Backward(active) {
		if durable && !job.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := r.requeue(ctx, job); err != nil {
			r.logger.Error("failed to requeue job",
				"job_id", job.ID,
				"status", job.Status,
				"error", err)
			continue
		}
		requeued++
	}

	r.logger.Info("recovered unfinished jobs",
		"active_count", len(active),
		"requeued_count", requeued,
		"durable_queue", durable)
	return nil
}

// requeue puts an unfinished job back on the queue. A queued job is touched
// afterwards so the next monitor pass does not enqueue it again while it
// waits behind other jobs.
func (r *Runner) requeue(ctx context.Context, job *domain.Job) error {
	if err := r.queue.Enqueue(ctx, job.ID.String()); err != nil {
		return err
	}
	if job.Status != domain.JobStatusQueued {
		return nil
	}
	_, err := r.jobs.Update(ctx, job.ID, func(*domain.Job) error { return nil })
	if err != nil && !errors.Is(err, store.ErrJobTerminal) {
		r.logger.Warn("failed to touch requeued job", "job_id", job.ID, "error", err)
	}
	return nil
}

// worker processes jobs from the queue
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		raw, err := r.queue.Dequeue(r.ctx)
		if err != nil {
			if r.ctx.Err() != nil || errors.Is(err, ErrQueueClosed) || errors.Is(err, redis.ErrQueueClosed) {
				r.logger.Debug("stopping worker", "worker_id", id)
				return
			}
			r.logger.Error("failed to dequeue job", "worker_id", id, "error", err)
			continue
		}

		jobID, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Error("discarding malformed job id", "worker_id", id, "raw_id", raw)
			continue
		}

		r.processJob(jobID, id)
	}
}

// processJob executes a single job under the job timeout.
func (r *Runner) processJob(jobID uuid.UUID, workerID int) {
	logger := r.logger.With("job_id", jobID, "worker_id", workerID)

	if !r.claim(jobID) {
		logger.Debug("job already executing in this process, skipping")
		return
	}
	defer r.release(jobID)

	job, err := r.jobs.Get(r.ctx, jobID)
	if err != nil {
		logger.Error("failed to load job", "error", err)
		return
	}
	if job.Status.IsTerminal() {
		logger.Debug("job already finished, skipping", "status", job.Status)
		return
	}

	logger.Info("processing job", "item_count", len(job.ItemIDs))

	ctx, cancel := context.WithTimeout(r.ctx, r.config.JobTimeout)
	err = r.processor.Execute(ctx, jobID)
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	cancel()

	// Final writes must not inherit the expired job context.
	final := context.WithoutCancel(ctx)

	switch {
	case timedOut:
		logger.Error("job exceeded time limit", "job_timeout", r.config.JobTimeout.String())
		if _, err := r.jobs.MarkFailed(final, jobID, r.timeoutMessage()); err != nil && !errors.Is(err, store.ErrJobTerminal) {
			logger.Error("failed to mark job failed", "error", err)
		}
	case r.ctx.Err() != nil:
		logger.Warn("job interrupted by shutdown, leaving it for recovery")
		return
	case err != nil:
		logger.Error("job execution failed", "error", err)
	default:
		logger.Info("job finished")
	}

	r.emitTerminal(final, jobID)
}

// staleJobMonitor periodically re-enqueues jobs that stopped making
// progress and fails those running past the job timeout.
func (r *Runner) staleJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.CheckStaleJobs(r.ctx)
		}
	}
}

// CheckStaleJobs runs one pass of the stale-job monitor. Queued jobs idle
// longer than StuckJobAge are re-enqueued too: their id may never have
// reached the queue, or a worker may have taken it and died before
// claiming the job. Duplicate ids are harmless since finished jobs are
// skipped.
func (r *Runner) CheckStaleJobs(ctx context.Context) {
	active, err := r.jobs.ListActive(ctx)
	if err != nil {
		r.logger.Error("failed to check for stale jobs", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, job := range active {
		if r.isRunning(job.ID) {
			continue
		}

		switch {
		case job.Status == domain.JobStatusProcessing && job.StartedAt != nil && now.Sub(*job.StartedAt) > r.config.JobTimeout:
			if _, err := r.jobs.MarkFailed(ctx, job.ID, r.timeoutMessage()); err != nil {
				if !errors.Is(err, store.ErrJobTerminal) {
					r.logger.Error("failed to fail overdue job", "job_id", job.ID, "error", err)
				}
				continue
			}
			r.logger.Warn("failed overdue job", "job_id", job.ID)
			r.emitTerminal(ctx, job.ID)

		case now.Sub(job.UpdatedAt) > r.config.StuckJobAge:
			if err := r.requeue(ctx, job); err != nil {
				r.logger.Error("failed to requeue stale job",
					"job_id", job.ID,
					"status", job.Status,
					"error", err)
				continue
			}
			r.logger.Info("requeued stale job",
				"job_id", job.ID,
				"status", job.Status,
				"last_update", job.UpdatedAt)
		}
	}
}

func (r *Runner) timeoutMessage() string {
	return fmt.Sprintf("job exceeded time limit of %s", r.config.JobTimeout)
}

// emitTerminal publishes the event matching the job's terminal state.
func (r *Runner) emitTerminal(ctx context.Context, jobID uuid.UUID) {
	if r.emitter == nil {
		return
	}

	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		r.logger.Error("failed to load job for event", "job_id", jobID, "error", err)
		return
	}

	var event *events.JobEvent
	switch job.Status {
	case domain.JobStatusCompleted:
		proposals, err := r.proposals.List(ctx, jobID)
		if err != nil {
			r.logger.Error("failed to count proposals for event", "job_id", jobID, "error", err)
		}
		event = events.NewJobCompletedEvent(jobID, len(job.ItemIDs), len(proposals))
	case domain.JobStatusFailed:
		event = events.NewJobFailedEvent(jobID, len(job.ItemIDs), job.ErrorMessage)
	default:
		return
	}

	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		r.logger.Warn("job event handler failed", "job_id", jobID, "event_type", event.Type, "error", err)
	}
}

func (r *Runner) claim(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[id]; ok {
		return false
	}
	r.running[id] = struct{}{}
	return true
}

func (r *Runner) release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, id)
}

func (r *Runner) isRunning(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[id]
	return ok
}
