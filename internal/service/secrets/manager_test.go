package secrets_test

import (
	"context"
	"testing"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/redis/redistest"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func ptr(s string) *string { return &s }

func newManager(t *testing.T, env map[string]string) (*secrets.Manager, store.Backend) {
	t.Helper()
	backend, _ := redistest.NewBackend(t)
	c, err := secrets.NewCipher(testSecret)
	require.NoError(t, err)
	return secrets.NewManager(backend, c, env, logger.Discard()), backend
}

func TestManagerEnvFallback(t *testing.T) {
	m, _ := newManager(t, map[string]string{secrets.OpenAIAPIKey: "sk-env-value-1234"})
	ctx := context.Background()

	value, source := m.Get(ctx, secrets.OpenAIAPIKey)
	assert.Equal(t, "sk-env-value-1234", value)
	assert.Equal(t, secrets.SourceEnv, source)

	value, source = m.Get(ctx, secrets.WebflowAPIToken)
	assert.Empty(t, value)
	assert.Equal(t, secrets.SourceNone, source)
}

func TestManagerSaveSemantics(t *testing.T) {
	m, backend := newManager(t, map[string]string{secrets.WebflowAPIToken: "env-token"})
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, map[string]*string{
		secrets.WebflowAPIToken: ptr("stored-token-9876"),
		secrets.OpenAIAPIKey:    ptr("sk-stored-abcd"),
	}))

	value, source := m.Get(ctx, secrets.WebflowAPIToken)
	assert.Equal(t, "stored-token-9876", value)
	assert.Equal(t, secrets.SourceStored, source)

	raw, err := backend.Collection(store.CollectionSettings).Get(ctx, "api_keys")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "stored-token-9876", "values are encrypted at rest")

	// nil leaves the value, "" removes it.
	require.NoError(t, m.Save(ctx, map[string]*string{
		secrets.WebflowAPIToken: nil,
		secrets.OpenAIAPIKey:    ptr(""),
	}))

	value, _ = m.Get(ctx, secrets.WebflowAPIToken)
	assert.Equal(t, "stored-token-9876", value)

	value, source = m.Get(ctx, secrets.OpenAIAPIKey)
	assert.Empty(t, value)
	assert.Equal(t, secrets.SourceNone, source)

	// Removing the stored token reveals the environment fallback again.
	require.NoError(t, m.Save(ctx, map[string]*string{secrets.WebflowAPIToken: ptr("")}))
	value, source = m.Get(ctx, secrets.WebflowAPIToken)
	assert.Equal(t, "env-token", value)
	assert.Equal(t, secrets.SourceEnv, source)
}

func TestManagerRejectsUnknownKeys(t *testing.T) {
	m, backend := newManager(t, nil)
	ctx := context.Background()

	err := m.Save(ctx, map[string]*string{
		secrets.OpenAIAPIKey: ptr("sk-1"),
		"aws_secret":         ptr("nope"),
	})

	require.ErrorIs(t, err, domain.ErrValidation)
	ok, err := backend.Collection(store.CollectionSettings).Exists(ctx, "api_keys")
	require.NoError(t, err)
	assert.False(t, ok, "nothing is written when validation fails")
}

func TestManagerUndecryptableValueFallsBack(t *testing.T) {
	backend, _ := redistest.NewBackend(t)
	ctx := context.Background()
	env := map[string]string{secrets.GeminiAPIKey: "env-gemini-key"}

	oldCipher, err := secrets.NewCipher(testSecret)
	require.NoError(t, err)
	old := secrets.NewManager(backend, oldCipher, env, logger.Discard())
	require.NoError(t, old.Save(ctx, map[string]*string{secrets.GeminiAPIKey: ptr("stored-gemini")}))

	rotatedCipher, err := secrets.NewCipher("a-rotated-session-secret-of-32-chars!")
	require.NoError(t, err)
	log, buf := logger.NewTestLogger()
	rotated := secrets.NewManager(backend, rotatedCipher, env, log)

	value, source := rotated.Get(ctx, secrets.GeminiAPIKey)
	assert.Equal(t, "env-gemini-key", value)
	assert.Equal(t, secrets.SourceEnv, source)
	assert.True(t, buf.HasEntry("WARN", "stored api key could not be decrypted, using fallback"))
}

func TestManagerMasked(t *testing.T) {
	m, _ := newManager(t, map[string]string{secrets.WebflowCollectionID: "abc"})
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, map[string]*string{secrets.OpenAIAPIKey: ptr("sk-abcdefghijklmnop")}))

	status := m.Masked(ctx)

	assert.Equal(t, secrets.KeyStatus{Configured: true, Masked: "****mnop", Source: secrets.SourceStored}, status[secrets.OpenAIAPIKey])
	assert.Equal(t, secrets.KeyStatus{Configured: true, Masked: "***", Source: secrets.SourceEnv}, status[secrets.WebflowCollectionID])
	assert.Equal(t, secrets.KeyStatus{}, status[secrets.WebflowAPIToken])
	assert.Len(t, status, len(secrets.KeyNames))
}
