package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values recorded with counters.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeSkipped     = "skipped"
	OutcomeRateLimited = "rate_limited"
)

// Metrics holds the job and CMS metric instruments.
type Metrics struct {
	jobCount       metric.Int64Counter
	jobDuration    metric.Float64Histogram
	itemCount      metric.Int64Counter
	imageCount     metric.Int64Counter
	cmsRequests    metric.Int64Counter
	cmsRequestTime metric.Float64Histogram
}

// NewMetrics creates the instruments on the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Instrument creation only fails on invalid names; fall back to the
	// bare instrument so recording never dereferences nil.
	var err error

	m.jobCount, err = meter.Int64Counter(
		"altscribe.job.count",
		metric.WithDescription("Jobs finished, by final status"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		m.jobCount, _ = meter.Int64Counter("altscribe.job.count")
	}

	m.jobDuration, err = meter.Float64Histogram(
		"altscribe.job.duration",
		metric.WithDescription("Wall-clock duration of job executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		m.jobDuration, _ = meter.Float64Histogram("altscribe.job.duration")
	}

	m.itemCount, err = meter.Int64Counter(
		"altscribe.item.count",
		metric.WithDescription("Items attempted, by outcome"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		m.itemCount, _ = meter.Int64Counter("altscribe.item.count")
	}

	m.imageCount, err = meter.Int64Counter(
		"altscribe.image.count",
		metric.WithDescription("Images described, by outcome"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		m.imageCount, _ = meter.Int64Counter("altscribe.image.count")
	}

	m.cmsRequests, err = meter.Int64Counter(
		"altscribe.cms.request.count",
		metric.WithDescription("CMS request attempts, by operation and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.cmsRequests, _ = meter.Int64Counter("altscribe.cms.request.count")
	}

	m.cmsRequestTime, err = meter.Float64Histogram(
		"altscribe.cms.request.duration",
		metric.WithDescription("Duration of CMS request attempts in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.cmsRequestTime, _ = meter.Float64Histogram("altscribe.cms.request.duration")
	}

	return m
}

// RecordJob records a finished job.
func (m *Metrics) RecordJob(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("altscribe.job.status", status))
	m.jobCount.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordItem records one attempted item.
func (m *Metrics) RecordItem(ctx context.Context, outcome string) {
	m.itemCount.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordImage records one generation attempt.
func (m *Metrics) RecordImage(ctx context.Context, model, outcome string) {
	m.imageCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrModel, model),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordCMSRequest records one CMS request attempt.
func (m *Metrics) RecordCMSRequest(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrOutcome, outcome),
	)
	m.cmsRequests.Add(ctx, 1, attrs)
	m.cmsRequestTime.Record(ctx, float64(duration.Milliseconds()), attrs)
}
