package middleware

import (
	"log/slog"
	"net/http"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// TraceHeader carries the trace ID back to the client.
const TraceHeader = "X-Trace-ID"

// NewTraceMiddleware adds a trace ID to the request context and stores a
// request-scoped logger carrying it. Apply it before any handler that logs.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			if reqID := chimw.GetReqID(ctx); reqID != "" {
				ctx = logger.WithRequestID(ctx, reqID)
			}
			ctx = logger.WithLogger(ctx, base.With(slog.String("trace_id", traceID)))

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
