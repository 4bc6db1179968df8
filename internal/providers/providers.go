// Package providers builds the external collaborators of a job, the CMS
// client and the alt-text generator, from the currently resolved API keys.
// Keys are read on every call so values saved through the admin API take
// effect for the next job without a restart.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altscribe/altscribe-api/internal/config"
	"github.com/altscribe/altscribe-api/internal/generation"
	"github.com/altscribe/altscribe-api/internal/platform/gemini"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/platform/openai"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
)

// Generator provider names accepted by llm.provider.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// KeySource resolves API keys by name. *secrets.Manager satisfies it.
type KeySource interface {
	Value(ctx context.Context, name string) string
}

// Registry creates CMS clients and generators on demand.
type Registry struct {
	keys      KeySource
	webflow   config.WebflowConfig
	llm       config.LLMConfig
	logger    *slog.Logger
	telemetry *observability.Telemetry
}

// NewRegistry creates a Registry.
func NewRegistry(keys KeySource, webflowCfg config.WebflowConfig, llmCfg config.LLMConfig,
	logger *slog.Logger, telemetry *observability.Telemetry,
) *Registry {
	if telemetry == nil {
		telemetry = observability.Global()
	}
	return &Registry{
		keys:      keys,
		webflow:   webflowCfg,
		llm:       llmCfg,
		logger:    logger.With("component", "providers"),
		telemetry: telemetry,
	}
}

// CMS returns a new CMS client. Without a Webflow token a MockClient is
// returned so local development works. The caller must Close the client.
func (r *Registry) CMS(ctx context.Context) (webflow.Client, error) {
	token := r.keys.Value(ctx, secrets.WebflowAPIToken)
	if token == "" {
		r.logger.WarnContext(ctx, "no webflow api token configured, using mock cms client")
		return webflow.NewMockClient(r.logger), nil
	}

	client, err := webflow.NewHTTPClient(webflow.Options{
		Token:       token,
		BaseURL:     r.webflow.BaseURL,
		PageSize:    r.webflow.PageSize,
		MaxAttempts: r.webflow.MaxAttempts,
		RetryBase:   time.Duration(r.webflow.RetryBaseSeconds) * time.Second,
		RetryMax:    time.Duration(r.webflow.RetryMaxSeconds) * time.Second,
		Timeout:     time.Duration(r.webflow.TimeoutSeconds) * time.Second,
		Logger:      r.logger,
		Telemetry:   r.telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webflow client: %w", err)
	}
	return client, nil
}

// Generator returns the generator selected by llm.provider. In auto mode
// OpenAI is preferred, then Gemini, then the mock generator.
func (r *Registry) Generator(ctx context.Context) (generation.Generator, error) {
	openaiKey := r.keys.Value(ctx, secrets.OpenAIAPIKey)
	geminiKey := r.keys.Value(ctx, secrets.GeminiAPIKey)

	switch r.llm.Provider {
	case ProviderMock:
		return generation.NewMockGenerator(), nil
	case ProviderOpenAI:
		return r.openAI(openaiKey)
	case ProviderGemini:
		return r.gemini(ctx, geminiKey)
	case ProviderAuto, "":
		switch {
		case openaiKey != "":
			return r.openAI(openaiKey)
		case geminiKey != "":
			return r.gemini(ctx, geminiKey)
		}
		r.logger.WarnContext(ctx, "no generator api key configured, using mock generator")
		return generation.NewMockGenerator(), nil
	}
	return nil, fmt.Errorf("%w: unknown llm provider %q", generation.ErrInvalidConfig, r.llm.Provider)
}

func (r *Registry) openAI(key string) (generation.Generator, error) {
	return openai.NewGenerator(openai.Config{
		APIKey:    key,
		BaseURL:   r.llm.OpenAIBaseURL,
		Model:     r.llm.OpenAIModel,
		MaxLength: r.llm.MaxAltTextLength,
		Timeout:   time.Duration(r.llm.TimeoutSeconds) * time.Second,
	}, r.logger)
}

func (r *Registry) gemini(ctx context.Context, key string) (generation.Generator, error) {
	return gemini.NewGeminiGenerator(ctx, r.logger, gemini.Config{
		APIKey:    key,
		Model:     r.llm.GeminiModel,
		MaxLength: r.llm.MaxAltTextLength,
		Timeout:   time.Duration(r.llm.TimeoutSeconds) * time.Second,
	})
}
