package observability

import (
	"context"
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTimingMetric wraps the server-timing library's Metric type.
type ServerTimingMetric struct {
	metric *servertiming.Metric
}

// Stop stops the timing metric.
func (m *ServerTimingMetric) Stop() {
	if m != nil && m.metric != nil {
		m.metric.Stop()
	}
}

// StartServerTiming starts a server-timing metric with the given name.
// Outside a request handled by ServerTimingMiddleware it returns a no-op metric.
func StartServerTiming(ctx context.Context, name string) *ServerTimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &ServerTimingMetric{}
	}
	return &ServerTimingMetric{metric: timing.NewMetric(name).Start()}
}

// ServerTimingMiddleware adds the Server-Timing header to responses.
func ServerTimingMiddleware(next http.Handler) http.Handler {
	return servertiming.Middleware(next, nil)
}
