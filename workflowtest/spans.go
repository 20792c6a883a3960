package workflowtest

import (
	"context"
	"sync"
	"time"

	"github.com/tta-dev/workflowcore/instrument"
	"github.com/tta-dev/workflowcore/observability"
)

// SpanCollector is a disposable in-memory observability.Observer that
// pairs instrument.Wrap's primitive.start/primitive.complete events into
// Spans, so a test can assert on what was emitted without standing up a
// real exporter.
type SpanCollector struct {
	mu      sync.Mutex
	pending map[spanKey]pendingSpan
	spans   []observability.Span
}

type spanKey struct {
	correlationID string
	primitive     string
}

type pendingSpan struct {
	start time.Time
}

// NewSpanCollector returns an empty SpanCollector.
func NewSpanCollector() *SpanCollector {
	return &SpanCollector{pending: make(map[spanKey]pendingSpan)}
}

var _ observability.Observer = (*SpanCollector)(nil)

func (c *SpanCollector) OnEvent(ctx context.Context, event observability.Event) {
	primitive, _ := event.Data["primitive"].(string)
	correlationID, _ := event.Data["correlation_id"].(string)
	key := spanKey{correlationID: correlationID, primitive: primitive}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case instrument.EventPrimitiveStart:
		c.pending[key] = pendingSpan{start: event.Timestamp}
	case instrument.EventPrimitiveComplete:
		start := event.Timestamp
		if p, ok := c.pending[key]; ok {
			start = p.start
			delete(c.pending, key)
		}
		workflowID, _ := event.Data["workflow_id"].(string)
		errorKind, _ := event.Data["error_kind"].(string)
		var duration time.Duration
		if ms, ok := event.Data["duration_ms"].(int64); ok {
			duration = time.Duration(ms) * time.Millisecond
		}
		c.spans = append(c.spans, observability.Span{
			Name:          primitive,
			CorrelationID: correlationID,
			WorkflowID:    workflowID,
			StartTime:     start,
			Duration:      duration,
			ErrorKind:     errorKind,
			Sampled:       observability.DecisionSample,
		})
	}
}

// Spans returns a copy of every completed span recorded so far.
func (c *SpanCollector) Spans() []observability.Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]observability.Span, len(c.spans))
	copy(out, c.spans)
	return out
}

// ByName returns every completed span whose primitive name equals name.
func (c *SpanCollector) ByName(name string) []observability.Span {
	var out []observability.Span
	for _, s := range c.Spans() {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Reset discards every recorded span and pending start.
func (c *SpanCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = make(map[spanKey]pendingSpan)
	c.spans = nil
}
