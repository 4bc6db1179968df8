package task

import (
	"context"
	"errors"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/generation"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/google/uuid"
)

// Common errors returned by queues
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Queue carries job ids from the API to the workers.
type Queue interface {
	// Enqueue adds a job id. It fails when the queue is full or closed.
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks until a job id is available, ctx is done or the queue
	// is closed.
	Dequeue(ctx context.Context) (string, error)

	// Close stops further enqueues.
	Close()

	// Durable reports whether queued ids survive a process restart.
	Durable() bool
}

// Processor executes one job.
type Processor interface {
	Execute(ctx context.Context, jobID uuid.UUID) error
}

// JobRepository is the job persistence used by the runner and processor.
// *store.JobStore satisfies it.
type JobRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	Update(ctx context.Context, id uuid.UUID, fn func(job *domain.Job) error) (*domain.Job, error)
	MarkFailed(ctx context.Context, id uuid.UUID, message string) (*domain.Job, error)
	ListActive(ctx context.Context) ([]*domain.Job, error)
}

// ProposalRepository stores the proposals of each job.
// *store.ProposalStore satisfies it.
type ProposalRepository interface {
	Save(ctx context.Context, jobID uuid.UUID, proposals []*domain.Proposal) error
	List(ctx context.Context, jobID uuid.UUID) ([]*domain.Proposal, error)
}

// Providers opens the external collaborators of a job.
// *providers.Registry satisfies it.
type Providers interface {
	CMS(ctx context.Context) (webflow.Client, error)
	Generator(ctx context.Context) (generation.Generator, error)
}
