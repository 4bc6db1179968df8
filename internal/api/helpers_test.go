package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/altscribe/altscribe-api/internal/api"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/redis/redistest"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/auth"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-session-secret-with-32-chars!!"

// recordingDispatcher remembers submitted job ids.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (d *recordingDispatcher) Submit(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return nil
}

func (d *recordingDispatcher) submitted() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uuid.UUID(nil), d.ids...)
}

type fixedCMS struct{ client webflow.Client }

func (f fixedCMS) CMS(context.Context) (webflow.Client, error) { return f.client, nil }

type testEnv struct {
	server     *httptest.Server
	jobs       *store.JobStore
	proposals  *store.ProposalStore
	users      *service.UserService
	keys       *secrets.Manager
	cms        *webflow.MockClient
	dispatcher *recordingDispatcher
}

func newTestEnv(t *testing.T, env map[string]string) *testEnv {
	t.Helper()
	backend, _ := redistest.NewBackend(t)
	log := logger.Discard()

	cipher, err := secrets.NewCipher(testSecret)
	require.NoError(t, err)
	keys := secrets.NewManager(backend, cipher, env, log)

	sessions, err := auth.NewSessionManager(backend, auth.SessionConfig{Secret: testSecret, TTL: time.Hour}, log)
	require.NoError(t, err)

	settings := service.NewSettingsService(backend, log)
	userStore := store.NewUserStore(backend, log)
	users := service.NewUserService(userStore, settings, auth.NewBcryptHasher(bcrypt.MinCost), log)

	e := &testEnv{
		jobs:       store.NewJobStore(backend, log),
		proposals:  store.NewProposalStore(backend, log),
		users:      users,
		keys:       keys,
		cms:        webflow.NewMockClient(log),
		dispatcher: &recordingDispatcher{},
	}
	cms := fixedCMS{e.cms}
	jobs := service.NewJobService(e.jobs, e.proposals, e.dispatcher, keys, cms, log)

	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		CORSOrigins: []string{"http://localhost:3000"},
		Sessions:    sessions,
		Auth:        api.NewAuthHandler(users, sessions),
		Items:       api.NewItemsHandler(cms, keys),
		Jobs:        api.NewJobHandler(jobs),
		Admin:       api.NewAdminHandler(keys, users, settings),
		Health:      api.NewHealthHandler(backend.Name(), "test"),
	})
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// register creates an account through the API and returns its token.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.AuthResponse](t, resp).Token
}
