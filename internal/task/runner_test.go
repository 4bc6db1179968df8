package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/events"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects emitted job events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.JobEvent
}

func (r *eventRecorder) HandleEvent(_ context.Context, e *events.JobEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) all() []*events.JobEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*events.JobEvent(nil), r.events...)
}

// blockingProcessor waits for its context to end.
type blockingProcessor struct{}

func (blockingProcessor) Execute(ctx context.Context, _ uuid.UUID) error {
	<-ctx.Done()
	return ctx.Err()
}

func newRunner(f *fixture, queue Queue, processor Processor, cfg RunnerConfig) (*Runner, *eventRecorder) {
	recorder := &eventRecorder{}
	emitter := events.NewInMemoryEventEmitter(logger.Discard())
	emitter.RegisterHandler(recorder)
	return NewRunner(queue, f.jobs, f.proposals, processor, emitter, cfg, logger.Discard()), recorder
}

func TestRunnerSubmitEnqueues(t *testing.T) {
	f := newFixture(t)
	q := NewMemoryQueue(1, logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{WorkerCount: 0})
	id := uuid.New()

	require.NoError(t, r.Submit(context.Background(), id))
	assert.ErrorIs(t, r.Submit(context.Background(), uuid.New()), ErrQueueFull)

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
}

func TestRunnerExecutesSubmittedJobs(t *testing.T) {
	f := newFixture(t)
	r, recorder := newRunner(f, NewMemoryQueue(10, logger.Discard()), f.processor, RunnerConfig{
		WorkerCount: 2,
		JobTimeout:  time.Minute,
	})
	require.NoError(t, r.Start())
	defer r.Stop()

	job := f.createJob(t, []string{"item_001", "item_002"}, nil)
	require.NoError(t, r.Submit(context.Background(), job.ID))

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(context.Background(), job.ID)
		return err == nil && j.Status == domain.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 10*time.Millisecond)
	event := recorder.all()[0]
	assert.Equal(t, events.JobCompleted, event.Type)
	assert.Equal(t, job.ID, event.JobID)
	assert.Equal(t, 2, event.ItemCount)
	assert.Equal(t, 3, event.ProposalCount)
}

func TestRunnerEnforcesJobTimeout(t *testing.T) {
	f := newFixture(t)
	r, recorder := newRunner(f, NewMemoryQueue(10, logger.Discard()), blockingProcessor{}, RunnerConfig{
		WorkerCount: 1,
		JobTimeout:  50 * time.Millisecond,
	})
	require.NoError(t, r.Start())
	defer r.Stop()

	job := f.createJob(t, []string{"item_001"}, nil)
	require.NoError(t, r.Submit(context.Background(), job.ID))

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(context.Background(), job.ID)
		return err == nil && j.Status == domain.JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := f.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "job exceeded time limit of 50ms", stored.ErrorMessage)

	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, events.JobFailed, recorder.all()[0].Type)
}

func TestRunnerRecoverMemoryQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := f.createJob(t, []string{"a"}, nil)
	newer, err := domain.NewJob("col_1", []string{"b"}, nil)
	require.NoError(t, err)
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	require.NoError(t, f.jobs.Create(ctx, newer))
	done := f.createJob(t, []string{"c"}, nil)
	_, err = f.jobs.MarkFailed(ctx, done.ID, "boom")
	require.NoError(t, err)

	q := NewMemoryQueue(10, logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{WorkerCount: 1})
	require.NoError(t, r.Recover(ctx))

	require.Equal(t, 2, q.Len())
	first, _ := q.Dequeue(ctx)
	second, _ := q.Dequeue(ctx)
	assert.Equal(t, []string{older.ID.String(), newer.ID.String()}, []string{first, second})
}

func TestRunnerRecoverDurableQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hourAgo := time.Now().UTC().Add(-time.Hour)

	f.createJob(t, []string{"queued"}, nil)

	stale, err := domain.NewJob("col_1", []string{"stale"}, nil)
	require.NoError(t, err)
	stale.Status = domain.JobStatusProcessing
	stale.UpdatedAt = hourAgo
	require.NoError(t, f.jobs.Create(ctx, stale))

	// Stored queued but its id never reached the queue.
	stranded, err := domain.NewJob("col_1", []string{"stranded"}, nil)
	require.NoError(t, err)
	stranded.UpdatedAt = hourAgo
	require.NoError(t, f.jobs.Create(ctx, stranded))

	q := redis.NewQueue(f.backend.Client(), "", logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{WorkerCount: 1, StuckJobAge: time.Minute})
	require.NoError(t, r.Recover(ctx))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n, "fresh queued ids are still in the durable queue")
	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{stale.ID.String(), stranded.ID.String()}, []string{first, second})

	touched, err := f.jobs.Get(ctx, stranded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, touched.Status)
	assert.True(t, touched.UpdatedAt.After(hourAgo))
}

func TestRunnerCheckStaleJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := time.Now().UTC().Add(-2 * time.Hour)
	recent := time.Now().UTC().Add(-time.Minute)

	overdue, err := domain.NewJob("col_1", []string{"a"}, nil)
	require.NoError(t, err)
	overdue.Status = domain.JobStatusProcessing
	overdue.StartedAt = &long
	overdue.UpdatedAt = long
	require.NoError(t, f.jobs.Create(ctx, overdue))

	stuck, err := domain.NewJob("col_1", []string{"b"}, nil)
	require.NoError(t, err)
	stuck.Status = domain.JobStatusProcessing
	stuck.StartedAt = &recent
	stuck.UpdatedAt = time.Now().UTC().Add(-30 * time.Minute)
	require.NoError(t, f.jobs.Create(ctx, stuck))

	q := NewMemoryQueue(10, logger.Discard())
	r, recorder := newRunner(f, q, f.processor, RunnerConfig{
		WorkerCount: 1,
		JobTimeout:  time.Hour,
		StuckJobAge: 10 * time.Minute,
	})

	r.CheckStaleJobs(ctx)

	failed, err := f.jobs.Get(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, failed.Status)
	assert.Equal(t, "job exceeded time limit of 1h0m0s", failed.ErrorMessage)
	require.Len(t, recorder.all(), 1)
	assert.Equal(t, events.JobFailed, recorder.all()[0].Type)

	require.Equal(t, 1, q.Len())
	id, _ := q.Dequeue(ctx)
	assert.Equal(t, stuck.ID.String(), id)
}

func TestRunnerCheckStaleJobsRequeuesStrandedQueuedJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stranded, err := domain.NewJob("col_1", []string{"a"}, nil)
	require.NoError(t, err)
	stranded.UpdatedAt = time.Now().UTC().Add(-30 * time.Minute)
	require.NoError(t, f.jobs.Create(ctx, stranded))

	f.createJob(t, []string{"b"}, nil)

	q := NewMemoryQueue(10, logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{
		WorkerCount: 1,
		JobTimeout:  time.Hour,
		StuckJobAge: 10 * time.Minute,
	})

	r.CheckStaleJobs(ctx)
	r.CheckStaleJobs(ctx)

	require.Equal(t, 1, q.Len(), "a requeued job is not enqueued again on the next pass")
	id, _ := q.Dequeue(ctx)
	assert.Equal(t, stranded.ID.String(), id)
}

func TestRunnerRunsQueuedJobMissingFromRedisQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := redis.NewQueue(f.backend.Client(), "", logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{
		WorkerCount:           1,
		JobTimeout:            time.Minute,
		StuckJobAge:           time.Millisecond,
		StuckJobCheckInterval: time.Hour,
	})
	require.NoError(t, r.Start())
	defer r.Stop()

	// Created after Start so only the monitor can find it.
	job := f.createJob(t, []string{"item_001"}, nil)
	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	time.Sleep(5 * time.Millisecond)
	r.CheckStaleJobs(ctx)

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(ctx, job.ID)
		return err == nil && j.Status == domain.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRunnerRunsJobRejectedByFullQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := NewMemoryQueue(1, logger.Discard())
	r, _ := newRunner(f, q, f.processor, RunnerConfig{
		WorkerCount:           1,
		JobTimeout:            time.Minute,
		StuckJobAge:           time.Millisecond,
		StuckJobCheckInterval: time.Hour,
	})

	first := f.createJob(t, []string{"item_001"}, nil)
	second := f.createJob(t, []string{"item_002"}, nil)
	require.NoError(t, r.Submit(ctx, first.ID))
	require.ErrorIs(t, r.Submit(ctx, second.ID), ErrQueueFull)

	require.NoError(t, r.Start())
	defer r.Stop()

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(ctx, first.ID)
		return err == nil && j.Status == domain.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	waiting, err := f.jobs.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusQueued, waiting.Status)

	r.CheckStaleJobs(ctx)

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(ctx, second.ID)
		return err == nil && j.Status == domain.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}
