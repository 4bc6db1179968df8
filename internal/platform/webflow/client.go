package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Defaults applied by NewHTTPClient to zero-valued options.
const (
	DefaultBaseURL     = "https://api.webflow.com/v2"
	DefaultPageSize    = 100
	DefaultMaxAttempts = 3
	DefaultRetryBase   = 2 * time.Second
	DefaultRetryMax    = 60 * time.Second
	DefaultTimeout     = 30 * time.Second
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Options configures an HTTPClient.
type Options struct {
	Token       string
	BaseURL     string
	PageSize    int
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	Timeout     time.Duration
	Logger      *slog.Logger
	Telemetry   *observability.Telemetry
}

// HTTPClient talks to the Webflow API over an exclusive transport.
type HTTPClient struct {
	opts      Options
	baseURL   string
	transport *http.Transport
	http      *http.Client
	logger    *slog.Logger
	telemetry *observability.Telemetry

	closed    atomic.Bool
	closeOnce sync.Once
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client. The caller must Close it.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.Token == "" {
		return nil, errors.New("webflow api token is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if opts.RetryMax < opts.RetryBase {
		opts.RetryMax = max(DefaultRetryMax, opts.RetryBase)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Telemetry == nil {
		opts.Telemetry = observability.Global()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &HTTPClient{
		opts:      opts,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		transport: transport,
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   opts.Timeout,
		},
		logger:    opts.Logger.With("component", "webflow_client"),
		telemetry: opts.Telemetry,
	}, nil
}

// Close releases idle connections held by the client's transport.
func (c *HTTPClient) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.transport.CloseIdleConnections()
	})
	return nil
}

// GetCollectionItems fetches one page of items from a collection.
func (c *HTTPClient) GetCollectionItems(ctx context.Context, collectionID string, limit, offset int) (*ItemsPage, error) {
	ctx, span := c.telemetry.StartCMSCall(ctx, "list_items", collectionID)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	endpoint := fmt.Sprintf("%s/collections/%s/items?%s",
		c.baseURL, url.PathEscape(collectionID), query.Encode())

	var page ItemsPage
	err := c.do(ctx, "list_items", http.MethodGet, endpoint, nil, &page)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of collection %s: %w", collectionID, err)
	}
	if page.Items == nil {
		page.Items = []Item{}
	}
	return &page, nil
}

// GetAllCollectionItems pages through the collection and returns the items
// named in targetIDs, in target order. Ids missing from the CMS are omitted.
func (c *HTTPClient) GetAllCollectionItems(ctx context.Context, collectionID string, targetIDs []string) ([]Item, error) {
	return collectTargets(ctx, targetIDs, c.opts.PageSize,
		func(ctx context.Context, limit, offset int) (*ItemsPage, error) {
			return c.GetCollectionItems(ctx, collectionID, limit, offset)
		})
}

// UpdateItem patches fieldData onto an item. Repeating the same patch leaves
// the item in the same state.
func (c *HTTPClient) UpdateItem(ctx context.Context, collectionID, itemID string, fieldData map[string]any) (*Item, error) {
	ctx, span := c.telemetry.StartCMSCall(ctx, "update_item", collectionID)

	body, err := json.Marshal(map[string]any{"fieldData": fieldData})
	if err != nil {
		observability.EndSpan(span, err)
		return nil, fmt.Errorf("failed to encode update for item %s: %w", itemID, err)
	}
	endpoint := fmt.Sprintf("%s/collections/%s/items/%s",
		c.baseURL, url.PathEscape(collectionID), url.PathEscape(itemID))

	var item Item
	err = c.do(ctx, "update_item", http.MethodPatch, endpoint, body, &item)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}
	return &item, nil
}

// do runs one logical call, retrying only rate-limited attempts.
func (c *HTTPClient) do(ctx context.Context, operation, method, endpoint string, body []byte, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	backoff := retry.WithMaxRetries(
		uint64(c.opts.MaxAttempts-1),
		retry.WithCappedDuration(c.opts.RetryMax, retry.NewExponential(c.opts.RetryBase)),
	)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		start := time.Now()
		err := c.attempt(ctx, method, endpoint, body, out)
		elapsed := time.Since(start)

		var rle *RateLimitError
		switch {
		case err == nil:
			c.telemetry.Metrics.RecordCMSRequest(ctx, operation, observability.OutcomeSuccess, elapsed)
			c.logger.DebugContext(ctx, "webflow request succeeded",
				"operation", operation,
				"attempt", attempt,
				"duration_ms", elapsed.Milliseconds())
			return nil
		case errors.As(err, &rle):
			c.telemetry.Metrics.RecordCMSRequest(ctx, operation, observability.OutcomeRateLimited, elapsed)
			c.logger.WarnContext(ctx, "webflow rate limit hit",
				"operation", operation,
				"attempt", attempt,
				"max_attempts", c.opts.MaxAttempts,
				"retry_after_seconds", int(rle.RetryAfter.Seconds()))
			return retry.RetryableError(err)
		default:
			c.telemetry.Metrics.RecordCMSRequest(ctx, operation, observability.OutcomeFailure, elapsed)
			c.logger.ErrorContext(ctx, "webflow request failed",
				"operation", operation,
				"attempt", attempt,
				"error", err)
			return err
		}
	})
}

// attempt performs a single HTTP round trip and classifies the response.
func (c *HTTPClient) attempt(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if isRateLimited(resp) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isRateLimited classifies 429, and 403/503 responses that carry an
// exhausted X-RateLimit-Remaining header, as throttling.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		return resp.Header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
