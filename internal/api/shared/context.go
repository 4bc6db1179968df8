package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// SessionContextKey is the context key for the authenticated session
	SessionContextKey ContextKey = "session"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a new trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithSession stores the authenticated session in the context.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*domain.Session)
	return session, ok && session != nil
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate secure random trace ID", "error", err)
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}
