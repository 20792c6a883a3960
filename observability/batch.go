package observability

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the instrumentation layer for every primitive
// execution. Defined here so export-side consumers (BatchSpanProcessor,
// test collectors) can match on them without importing the emitting
// package.
const (
	EventPrimitiveStart    EventType = "primitive.start"
	EventPrimitiveComplete EventType = "primitive.complete"
)

// BatchSpanProcessor is an Observer that assembles primitive.start /
// primitive.complete event pairs into Spans and ships them to a
// SpanExporter in batches of TracingConfig.BatchSize. It is the production
// counterpart of a test span collector: same pairing, but the destination
// is the exporter boundary rather than an in-memory slice.
//
// Export failures are recorded (see LastExport) and the failed batch is
// dropped; the processor never retries synchronously or blocks event
// emission on a slow backend.
type BatchSpanProcessor struct {
	mu           sync.Mutex
	exporter     SpanExporter
	batchSize    int
	pending      map[string]time.Time // correlation_id+primitive -> start
	queue        []Span
	lastExportAt time.Time
	lastExportOK bool
	exported     int64
	dropped      int64
}

var _ Observer = (*BatchSpanProcessor)(nil)

// NewBatchSpanProcessor builds a processor flushing to exporter whenever
// cfg.BatchSize completed spans have accumulated.
func NewBatchSpanProcessor(cfg TracingConfig, exporter SpanExporter) *BatchSpanProcessor {
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultTracingConfig().BatchSize
	}
	return &BatchSpanProcessor{
		exporter:  exporter,
		batchSize: size,
		pending:   make(map[string]time.Time),
	}
}

func (p *BatchSpanProcessor) OnEvent(ctx context.Context, event Event) {
	primitive, _ := event.Data["primitive"].(string)
	correlationID, _ := event.Data["correlation_id"].(string)
	key := correlationID + "\x00" + primitive

	p.mu.Lock()
	switch event.Type {
	case EventPrimitiveStart:
		p.pending[key] = event.Timestamp
		p.mu.Unlock()
		return
	case EventPrimitiveComplete:
		start := event.Timestamp
		if s, ok := p.pending[key]; ok {
			start = s
			delete(p.pending, key)
		}
		workflowID, _ := event.Data["workflow_id"].(string)
		errorKind, _ := event.Data["error_kind"].(string)
		var duration time.Duration
		if ms, ok := event.Data["duration_ms"].(int64); ok {
			duration = time.Duration(ms) * time.Millisecond
		}
		p.queue = append(p.queue, Span{
			Name:          primitive,
			CorrelationID: correlationID,
			WorkflowID:    workflowID,
			StartTime:     start,
			Duration:      duration,
			ErrorKind:     errorKind,
			Sampled:       DecisionSample,
		})
		full := len(p.queue) >= p.batchSize
		p.mu.Unlock()
		if full {
			p.Flush(ctx)
		}
		return
	}
	p.mu.Unlock()
}

// Flush exports every queued span immediately, regardless of batch size.
// Call on shutdown so a partially-filled batch is not lost.
func (p *BatchSpanProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return nil
	}
	batch := p.queue
	p.queue = nil
	p.mu.Unlock()

	err := p.exporter.Export(ctx, batch)

	p.mu.Lock()
	p.lastExportAt = time.Now()
	p.lastExportOK = err == nil
	if err == nil {
		p.exported += int64(len(batch))
	} else {
		p.dropped += int64(len(batch))
	}
	p.mu.Unlock()
	return err
}

// QueueDepth returns the number of completed spans awaiting export.
func (p *BatchSpanProcessor) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// LastExport returns the timestamp and outcome of the most recent export
// attempt. The timestamp is zero if no export has been attempted yet.
func (p *BatchSpanProcessor) LastExport() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastExportAt, p.lastExportOK
}

// ExportedCount returns how many spans have been successfully exported.
func (p *BatchSpanProcessor) ExportedCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exported
}

// DroppedCount returns how many spans were discarded after a failed export.
func (p *BatchSpanProcessor) DroppedCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}
