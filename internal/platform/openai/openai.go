// Package openai implements generation.Generator on the OpenAI chat
// completions API with image input.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/altscribe/altscribe-api/internal/generation"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Defaults applied by NewGenerator.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 100
	DefaultTimeout     = 60 * time.Second
)

// Config for the OpenAI generator.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxLength   int
	Timeout     time.Duration
}

// Generator describes images with an OpenAI vision model.
type Generator struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator. An API key is required.
func NewGenerator(cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = generation.DefaultMaxLength
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("component", "openai_generator"),
	}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.cfg.Model
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GenerateAltText sends the image and prompt to the model and returns the
// trimmed, length-limited answer.
func (g *Generator) GenerateAltText(ctx context.Context, req generation.Request) (string, error) {
	if req.ImageURL == "" {
		return "", generation.ErrEmptyImageURL
	}
	start := time.Now()

	prompt, err := generation.BuildPrompt(req, g.cfg.MaxLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	body := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: generation.SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL, Detail: "low"}},
			}},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := g.post(ctx, endpoint, body)
	if err != nil {
		g.logger.ErrorContext(ctx, "openai request failed",
			"field", req.FieldName,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: decode openai response: %v", generation.ErrInvalidResponse, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in openai response", generation.ErrInvalidResponse)
	}
	if cc.Choices[0].FinishReason == "content_filter" {
		return "", generation.ErrContentBlocked
	}

	text := generation.Truncate(cc.Choices[0].Message.Content, g.cfg.MaxLength)
	if text == "" {
		return "", fmt.Errorf("%w: empty alt text", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "alt text generated",
		"model", g.cfg.Model,
		"field", req.FieldName,
		"alt_text_length", len([]rune(text)),
		"elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (g *Generator) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(generation.ErrGenerationFailed,
			fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	return raw, nil
}
