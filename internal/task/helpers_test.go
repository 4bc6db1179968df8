package task

import (
	"context"
	"sync"
	"testing"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/generation"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/platform/redis"
	"github.com/altscribe/altscribe-api/internal/platform/redis/redistest"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// stubProviders hands out fixed collaborators.
type stubProviders struct {
	cms *webflow.MockClient
	gen generation.Generator
}

func (s stubProviders) CMS(context.Context) (webflow.Client, error) { return s.cms, nil }

func (s stubProviders) Generator(context.Context) (generation.Generator, error) { return s.gen, nil }

// progressRecorder wraps a JobStore and records every progress value written.
type progressRecorder struct {
	*store.JobStore

	mu       sync.Mutex
	progress []domain.Progress
}

func (r *progressRecorder) Update(ctx context.Context, id uuid.UUID, fn func(job *domain.Job) error) (*domain.Job, error) {
	job, err := r.JobStore.Update(ctx, id, fn)
	if err == nil {
		r.mu.Lock()
		r.progress = append(r.progress, job.Progress)
		r.mu.Unlock()
	}
	return job, err
}

func (r *progressRecorder) recorded() []domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Progress(nil), r.progress...)
}

type fixture struct {
	backend   *redis.Backend
	jobs      *progressRecorder
	proposals *store.ProposalStore
	cms       *webflow.MockClient
	gen       *generation.MockGenerator
	processor *AltTextProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, _ := redistest.NewBackend(t)
	f := &fixture{
		backend:   backend,
		jobs:      &progressRecorder{JobStore: store.NewJobStore(backend, logger.Discard())},
		proposals: store.NewProposalStore(backend, logger.Discard()),
		cms:       webflow.NewMockClient(logger.Discard()),
		gen:       generation.NewMockGenerator(),
	}
	telemetry := observability.New(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	f.processor = NewAltTextProcessor(f.jobs, f.proposals, stubProviders{cms: f.cms, gen: f.gen}, telemetry, logger.Discard())
	return f
}

func (f *fixture) createJob(t *testing.T, itemIDs []string, imageKeys []string) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("col_1", itemIDs, imageKeys)
	require.NoError(t, err)
	require.NoError(t, f.jobs.Create(context.Background(), job))
	return job
}
