package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/google/uuid"
)

// JobStore persists jobs in the jobs collection, one document per job.
type JobStore struct {
	col    Collection
	logger *slog.Logger

	// mu serializes read-modify-write cycles issued from this process.
	mu sync.Mutex
}

// NewJobStore creates a JobStore on the given backend.
func NewJobStore(backend Backend, logger *slog.Logger) *JobStore {
	return &JobStore{
		col:    backend.Collection(CollectionJobs),
		logger: logger.With("component", "job_store"),
	}
}

// Create stores a new job.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := PutJSON(ctx, s.col, job.ID.String(), job); err != nil {
		return NewStoreError("job", "create", "failed to store job", err)
	}
	return nil
}

// Get loads a job by id.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := GetJSON[domain.Job](ctx, s.col, id.String())
	if errors.Is(err, ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, NewStoreError("job", "get", "failed to load job", err)
	}
	return job, nil
}

// Update applies fn to the current job and writes the whole document back.
// Jobs in a terminal state are never rewritten: fn is not called and the
// stored job is returned together with ErrJobTerminal.
func (s *JobStore) Update(ctx context.Context, id uuid.UUID, fn func(job *domain.Job) error) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, ErrJobTerminal
	}

	if err := fn(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()

	if err := PutJSON(ctx, s.col, id.String(), job); err != nil {
		return nil, NewStoreError("job", "update", "failed to store job", err)
	}
	return job, nil
}

// MarkFailed moves a non-terminal job to failed with the given message.
func (s *JobStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) (*domain.Job, error) {
	return s.Update(ctx, id, func(job *domain.Job) error {
		now := time.Now().UTC()
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = message
		job.CompletedAt = &now
		return nil
	})
}

// List returns all jobs, newest first.
func (s *JobStore) List(ctx context.Context) ([]*domain.Job, error) {
	jobs, skipped, err := ListJSON[domain.Job](ctx, s.col)
	if err != nil {
		return nil, NewStoreError("job", "list", "failed to list jobs", err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped undecodable job documents", "count", skipped)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// ListActive returns all jobs that have not reached a terminal state.
func (s *JobStore) ListActive(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := jobs[:0]
	for _, job := range jobs {
		if !job.Status.IsTerminal() {
			active = append(active, job)
		}
	}
	return active, nil
}

// Exists reports whether a job with the id has been stored.
func (s *JobStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.col.Exists(ctx, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to check job: %w", err)
	}
	return ok, nil
}
