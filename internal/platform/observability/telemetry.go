package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation scope names.
const (
	TracerName = "github.com/altscribe/altscribe-api"
	MeterName  = "github.com/altscribe/altscribe-api"
)

// Attribute keys.
const (
	AttrJobID        = "altscribe.job.id"
	AttrItemID       = "altscribe.item.id"
	AttrCollectionID = "altscribe.collection.id"
	AttrImageField   = "altscribe.image.field"
	AttrOperation    = "altscribe.operation"
	AttrOutcome      = "altscribe.outcome"
	AttrModel        = "altscribe.model"
	AttrAttempt      = "altscribe.attempt"
)

// Telemetry bundles the tracer and metric instruments handed to components.
type Telemetry struct {
	tracer  trace.Tracer
	Metrics *Metrics
}

// New creates Telemetry on the given providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) *Telemetry {
	return &Telemetry{
		tracer:  tp.Tracer(TracerName),
		Metrics: NewMetrics(mp),
	}
}

// Global creates Telemetry on the globally registered providers.
func Global() *Telemetry {
	return New(otel.GetTracerProvider(), otel.GetMeterProvider())
}

// StartSpan starts a span with the given attributes.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartJob starts the span covering one job execution.
func (t *Telemetry) StartJob(ctx context.Context, jobID string) (context.Context, trace.Span) {
	return t.StartSpan(ctx, "altscribe.job", attribute.String(AttrJobID, jobID))
}

// StartItem starts the span covering one item of a job.
func (t *Telemetry) StartItem(ctx context.Context, itemID string) (context.Context, trace.Span) {
	return t.StartSpan(ctx, "altscribe.job.item", attribute.String(AttrItemID, itemID))
}

// StartCMSCall starts a client span for a CMS operation.
func (t *Telemetry) StartCMSCall(ctx context.Context, operation, collectionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "webflow."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrCollectionID, collectionID),
		))
}

// StartGeneration starts the span around one alt-text generation call.
func (t *Telemetry) StartGeneration(ctx context.Context, model, imageField string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "altscribe.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrModel, model),
			attribute.String(AttrImageField, imageField),
		))
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
