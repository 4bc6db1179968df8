// Package observability wires OpenTelemetry tracing and metrics for jobs,
// CMS calls and generation, plus the Server-Timing response header.
// Instruments are created from the global providers unless others are
// supplied; with no SDK installed every call is a no-op.
package observability
