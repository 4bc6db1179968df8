package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/altscribe/altscribe-api/internal/generation"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// Defaults applied by NewGeminiGenerator.
const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = float32(0.7)
	DefaultTimeout     = 60 * time.Second

	// maxImageBytes bounds inline image payloads.
	maxImageBytes = 15 << 20
)

// Config for the Gemini generator.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxLength   int
	Timeout     time.Duration
}

// contentGenerator is the slice of the genai client used here. *genai.Models
// satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	logger *slog.Logger
	config Config
	models contentGenerator
	http   *http.Client
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg Config) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models), nil
}

func newGenerator(logger *slog.Logger, cfg Config, models contentGenerator) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = generation.DefaultMaxLength
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &GeminiGenerator{
		logger: logger.With("component", "gemini_generator"),
		config: cfg,
		models: models,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Model returns the configured model name.
func (g *GeminiGenerator) Model() string {
	return g.config.Model
}

// GenerateAltText downloads the image, sends it with the prompt and returns
// the length-limited answer.
func (g *GeminiGenerator) GenerateAltText(ctx context.Context, req generation.Request) (string, error) {
	if req.ImageURL == "" {
		return "", generation.ErrEmptyImageURL
	}
	start := time.Now()

	prompt, err := generation.BuildPrompt(req, g.config.MaxLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	data, mimeType, err := g.fetchImage(ctx, req.ImageURL)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
		},
	}}
	temperature := g.config.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: generation.SystemPrompt}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.config.Model, contents, cfg)
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call error",
			"field", req.FieldName,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	text = generation.Truncate(text, g.config.MaxLength)
	g.logger.InfoContext(ctx, "alt text generated",
		"model", g.config.Model,
		"field", req.FieldName,
		"alt_text_length", len([]rune(text)),
		"elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	switch {
	case resp == nil:
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	case resp.Candidates[0].Content == nil:
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty alt text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// fetchImage downloads an image and determines its MIME type.
func (g *GeminiGenerator) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageFetch, err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d", ErrImageFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	if len(data) > maxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
