package observability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/observability"
)

type captureSpanExporter struct {
	mu      sync.Mutex
	batches [][]observability.Span
	fail    bool
}

func (e *captureSpanExporter) Export(ctx context.Context, spans []observability.Span) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return errors.New("export failed")
	}
	batch := make([]observability.Span, len(spans))
	copy(batch, spans)
	e.batches = append(e.batches, batch)
	return nil
}

func completePair(p *observability.BatchSpanProcessor, correlationID, primitive string, durationMS int64, errorKind string) {
	start := time.Unix(0, 0)
	data := map[string]any{
		"correlation_id": correlationID,
		"workflow_id":    "wf",
		"primitive":      primitive,
	}
	p.OnEvent(context.Background(), observability.Event{
		Type: observability.EventPrimitiveStart, Timestamp: start, Data: data,
	})

	completeData := map[string]any{
		"correlation_id": correlationID,
		"workflow_id":    "wf",
		"primitive":      primitive,
		"duration_ms":    durationMS,
	}
	if errorKind != "" {
		completeData["error_kind"] = errorKind
	}
	p.OnEvent(context.Background(), observability.Event{
		Type: observability.EventPrimitiveComplete, Timestamp: start, Data: completeData,
	})
}

func TestBatchSpanProcessor_FlushesAtBatchSize(t *testing.T) {
	exporter := &captureSpanExporter{}
	p := observability.NewBatchSpanProcessor(observability.TracingConfig{BatchSize: 2}, exporter)

	completePair(p, "corr-1", "step-a", 5, "")
	if depth := p.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth = %d, want 1 before the batch fills", depth)
	}

	completePair(p, "corr-1", "step-b", 7, "")
	if depth := p.QueueDepth(); depth != 0 {
		t.Errorf("queue depth = %d, want 0 after batch flush", depth)
	}
	if len(exporter.batches) != 1 || len(exporter.batches[0]) != 2 {
		t.Fatalf("expected one exported batch of 2 spans, got %v", exporter.batches)
	}

	span := exporter.batches[0][0]
	if span.Name != "step-a" || span.CorrelationID != "corr-1" || span.Duration != 5*time.Millisecond {
		t.Errorf("unexpected span content: %+v", span)
	}
}

func TestBatchSpanProcessor_FlushExportsPartialBatch(t *testing.T) {
	exporter := &captureSpanExporter{}
	p := observability.NewBatchSpanProcessor(observability.TracingConfig{BatchSize: 100}, exporter)

	completePair(p, "corr-2", "only-step", 3, "timeout")
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(exporter.batches) != 1 || len(exporter.batches[0]) != 1 {
		t.Fatalf("expected one batch of 1 span, got %v", exporter.batches)
	}
	if exporter.batches[0][0].ErrorKind != "timeout" {
		t.Errorf("error kind = %q, want timeout", exporter.batches[0][0].ErrorKind)
	}

	at, ok := p.LastExport()
	if at.IsZero() || !ok {
		t.Errorf("LastExport() = %v, %v; want recent successful export", at, ok)
	}
	if p.ExportedCount() != 1 {
		t.Errorf("ExportedCount() = %d, want 1", p.ExportedCount())
	}
}

func TestBatchSpanProcessor_RecordsFailedExports(t *testing.T) {
	exporter := &captureSpanExporter{fail: true}
	p := observability.NewBatchSpanProcessor(observability.TracingConfig{BatchSize: 1}, exporter)

	completePair(p, "corr-3", "step", 1, "")

	_, ok := p.LastExport()
	if ok {
		t.Error("LastExport() ok = true, want false after a failed export")
	}
	if p.DroppedCount() != 1 {
		t.Errorf("DroppedCount() = %d, want 1", p.DroppedCount())
	}
	if depth := p.QueueDepth(); depth != 0 {
		t.Errorf("queue depth = %d, want 0 (failed batch is dropped, not retried)", depth)
	}
}

func TestBatchSpanProcessor_FlushOnEmptyQueueIsNoOp(t *testing.T) {
	exporter := &captureSpanExporter{}
	p := observability.NewBatchSpanProcessor(observability.TracingConfig{}, exporter)

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() on empty queue = %v, want nil", err)
	}
	if len(exporter.batches) != 0 {
		t.Errorf("an empty flush must not call the exporter")
	}
}
