package webflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("webflow client is closed")

// RateLimitError reports a throttled request. It is the only error the
// client retries.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("webflow rate limit exceeded (status %d, retry after %s)", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("webflow rate limit exceeded (status %d)", e.StatusCode)
}

// APIError is a non-retryable error response from the CMS.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("webflow api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("webflow api error: status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is, or wraps, a *RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
