package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/altscribe/altscribe-api/internal/config"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/store"
)

// Managed key names.
const (
	WebflowAPIToken     = "webflow_api_token"
	WebflowCollectionID = "webflow_collection_id"
	OpenAIAPIKey        = "openai_api_key"
	GeminiAPIKey        = "gemini_api_key"
)

// KeyNames lists every managed key in display order.
var KeyNames = []string{WebflowAPIToken, WebflowCollectionID, OpenAIAPIKey, GeminiAPIKey}

// settingsKey is the document in the settings collection holding the blob.
const settingsKey = "api_keys"

// Source tells where a resolved value came from.
type Source string

// Value sources
const (
	SourceStored Source = "stored"
	SourceEnv    Source = "env"
	SourceNone   Source = ""
)

// KeyStatus describes one key for display without revealing it.
type KeyStatus struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked_value,omitempty"`
	Source     Source `json:"source,omitempty"`
}

// storedBlob is the persisted form: key name to ciphertext.
type storedBlob struct {
	Keys      map[string]string `json:"keys"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// EnvFallbacks collects the environment-provided values for each managed key.
func EnvFallbacks(cfg *config.Config) map[string]string {
	return map[string]string{
		WebflowAPIToken:     cfg.Webflow.APIToken,
		WebflowCollectionID: cfg.Webflow.CollectionID,
		OpenAIAPIKey:        cfg.LLM.OpenAIAPIKey,
		GeminiAPIKey:        cfg.LLM.GeminiAPIKey,
	}
}

// Manager resolves and updates managed API keys.
type Manager struct {
	col    store.Collection
	cipher *Cipher
	env    map[string]string
	logger *slog.Logger

	// mu serializes read-modify-write of the blob within this process.
	mu sync.Mutex
}

// NewManager creates a Manager storing its blob in the settings collection.
func NewManager(backend store.Backend, cipher *Cipher, env map[string]string, logger *slog.Logger) *Manager {
	if env == nil {
		env = map[string]string{}
	}
	return &Manager{
		col:    backend.Collection(store.CollectionSettings),
		cipher: cipher,
		env:    env,
		logger: logger.With("component", "secret_manager"),
	}
}

// Get resolves a key: the stored value when it decrypts, otherwise the
// environment value, otherwise nothing.
func (m *Manager) Get(ctx context.Context, name string) (string, Source) {
	blob, err := m.load(ctx)
	if err != nil {
		m.logger.Warn("failed to load stored api keys", "error", err)
	}

	if token, ok := blob.Keys[name]; ok && token != "" {
		value, err := m.cipher.Decrypt(token)
		if err == nil {
			return value, SourceStored
		}
		// Typically a rotated session secret; the key must be saved again.
		m.logger.Warn("stored api key could not be decrypted, using fallback",
			"key", name,
			"error", err)
	}

	if value := m.env[name]; value != "" {
		return value, SourceEnv
	}
	return "", SourceNone
}

// Value returns only the resolved value of a key.
func (m *Manager) Value(ctx context.Context, name string) string {
	v, _ := m.Get(ctx, name)
	return v
}

// Save applies updates to the stored blob. A nil value leaves the key
// unchanged, an empty string removes the stored value and anything else is
// encrypted and stored. Unknown key names fail validation before any write.
func (m *Manager) Save(ctx context.Context, updates map[string]*string) error {
	for name := range updates {
		if !isManaged(name) {
			return domain.NewValidationError(name, "unknown api key")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	blob, err := m.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored api keys: %w", err)
	}

	changed := make([]string, 0, len(updates))
	for name, value := range updates {
		switch {
		case value == nil:
			continue
		case *value == "":
			delete(blob.Keys, name)
		default:
			token, err := m.cipher.Encrypt(*value)
			if err != nil {
				return fmt.Errorf("failed to encrypt %s: %w", name, err)
			}
			blob.Keys[name] = token
		}
		changed = append(changed, name)
	}

	if len(changed) == 0 {
		return nil
	}

	blob.UpdatedAt = time.Now().UTC()
	if err := store.PutJSON(ctx, m.col, settingsKey, blob); err != nil {
		return fmt.Errorf("failed to store api keys: %w", err)
	}

	sort.Strings(changed)
	m.logger.Info("api keys updated", "keys", changed)
	return nil
}

// Masked returns the display status of every managed key.
func (m *Manager) Masked(ctx context.Context) map[string]KeyStatus {
	out := make(map[string]KeyStatus, len(KeyNames))
	for _, name := range KeyNames {
		value, source := m.Get(ctx, name)
		if value == "" {
			out[name] = KeyStatus{}
			continue
		}
		out[name] = KeyStatus{Configured: true, Masked: Mask(value), Source: source}
	}
	return out
}

// load returns the stored blob, or an empty one when nothing is stored.
func (m *Manager) load(ctx context.Context) (*storedBlob, error) {
	blob, err := store.GetJSON[storedBlob](ctx, m.col, settingsKey)
	if errors.Is(err, store.ErrNotFound) {
		return &storedBlob{Keys: map[string]string{}}, nil
	}
	if err != nil {
		return &storedBlob{Keys: map[string]string{}}, err
	}
	if blob.Keys == nil {
		blob.Keys = map[string]string{}
	}
	return blob, nil
}

func isManaged(name string) bool {
	for _, k := range KeyNames {
		if k == name {
			return true
		}
	}
	return false
}
