package service_test

import (
	"context"
	"testing"

	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/redis/redistest"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/auth"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockDispatcher is a testify mock of service.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Submit(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

type mapKeys map[string]string

func (m mapKeys) Value(_ context.Context, name string) string { return m[name] }

type fixedCMS struct {
	client webflow.Client
}

func (f fixedCMS) CMS(context.Context) (webflow.Client, error) { return f.client, nil }

type jobFixture struct {
	svc        *service.JobService
	jobs       *store.JobStore
	proposals  *store.ProposalStore
	dispatcher *MockDispatcher
	cms        *webflow.MockClient
	backend    store.Backend
}

func newJobFixture(t *testing.T, keys mapKeys) *jobFixture {
	t.Helper()
	backend, _ := redistest.NewBackend(t)
	log := logger.Discard()

	f := &jobFixture{
		jobs:       store.NewJobStore(backend, log),
		proposals:  store.NewProposalStore(backend, log),
		dispatcher: &MockDispatcher{},
		cms:        webflow.NewMockClient(log),
		backend:    backend,
	}
	f.svc = service.NewJobService(f.jobs, f.proposals, f.dispatcher, keys, fixedCMS{f.cms}, log)
	return f
}

type userFixture struct {
	svc      *service.UserService
	settings *service.SettingsService
	users    *store.UserStore
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	backend, _ := redistest.NewBackend(t)
	log := logger.Discard()

	settings := service.NewSettingsService(backend, log)
	users := store.NewUserStore(backend, log)
	return &userFixture{
		svc:      service.NewUserService(users, settings, auth.NewBcryptHasher(bcrypt.MinCost), log),
		settings: settings,
		users:    users,
	}
}
