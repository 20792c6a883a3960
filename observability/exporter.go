package observability

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// Span is the exported representation of a single primitive's execution,
// assembled by the instrumentation layer from a start/complete Event pair.
type Span struct {
	Name          string            `json:"name"`
	CorrelationID string            `json:"correlation_id"`
	WorkflowID    string            `json:"workflow_id"`
	StartTime     time.Time         `json:"start_time"`
	Duration      time.Duration     `json:"duration"`
	ErrorKind     string            `json:"error_kind,omitempty"`
	Sampled       Decision          `json:"sampled"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// SpanExporter ships completed spans to a backend. Implementations must
// tolerate being called with a batch whose context may already be
// cancelled; best-effort delivery is acceptable.
type SpanExporter interface {
	Export(ctx context.Context, spans []Span) error
}

// MetricPoint is a single named numeric observation with bounded labels,
// already passed through a CardinalityLimiter by the caller.
type MetricPoint struct {
	Name   string            `json:"name"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
}

// MetricSnapshot is a point-in-time batch of MetricPoints.
type MetricSnapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Points    []MetricPoint `json:"points"`
}

// MetricExporter ships a MetricSnapshot to a backend.
type MetricExporter interface {
	Export(ctx context.Context, snapshot MetricSnapshot) error
}

// StdoutSpanExporter writes each batch as newline-delimited JSON to an
// io.Writer. It exists so a process can see its own telemetry without
// standing up a collector: one exporter for zero setup, real exporters
// for production.
type StdoutSpanExporter struct {
	w io.Writer
}

func NewStdoutSpanExporter(w io.Writer) *StdoutSpanExporter {
	return &StdoutSpanExporter{w: w}
}

func (e *StdoutSpanExporter) Export(ctx context.Context, spans []Span) error {
	enc := json.NewEncoder(e.w)
	for _, span := range spans {
		if err := enc.Encode(span); err != nil {
			return err
		}
	}
	return nil
}

// StdoutMetricExporter writes each MetricSnapshot as JSON to an io.Writer.
type StdoutMetricExporter struct {
	w io.Writer
}

func NewStdoutMetricExporter(w io.Writer) *StdoutMetricExporter {
	return &StdoutMetricExporter{w: w}
}

func (e *StdoutMetricExporter) Export(ctx context.Context, snapshot MetricSnapshot) error {
	return json.NewEncoder(e.w).Encode(snapshot)
}
