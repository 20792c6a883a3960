// Package instrument wraps core.Primitive values with observability event
// emission, without the wrapped primitive knowing it is being observed.
package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// instrumented marks a primitive that already carries instrumentation, so
// Wrap can detect and skip double-wrapping instead of emitting duplicate
// events for the same execution.
type instrumented interface {
	isInstrumented()
}

type options struct {
	sampler *observability.Sampler
	metrics *observability.MetricsCollector
}

// Option configures optional behavior not expressible in the JSON-friendly
// Config, such as attaching a shared Sampler.
type Option func(*options)

// WithSampler attaches a Sampler consulted before emitting events. Without
// one, Wrap always emits (equivalent to a sampler whose rate is 1.0).
func WithSampler(s *observability.Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithMetrics attaches a MetricsCollector that records invocation count,
// duration, and error kind for every execution. Metric recording is not
// subject to the sampling decision; only span/event emission is.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// Wrap instruments p so every Execute call emits a primitive.start and
// primitive.complete event pair carrying the correlation ID, workflow ID,
// duration, and error kind. If p is already instrumented, Wrap returns it
// unchanged.
func Wrap[TIn, TOut any](p core.Primitive[TIn, TOut], cfg Config, opts ...Option) (core.Primitive[TIn, TOut], error) {
	if _, already := p.(instrumented); already {
		return p, nil
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("instrument: resolve observer: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &wrapped[TIn, TOut]{
		inner:           p,
		observer:        observer,
		sampler:         o.sampler,
		metrics:         o.metrics,
		captureMetadata: cfg.CaptureMetadata(),
	}, nil
}

type wrapped[TIn, TOut any] struct {
	inner           core.Primitive[TIn, TOut]
	observer        observability.Observer
	sampler         *observability.Sampler
	metrics         *observability.MetricsCollector
	captureMetadata bool
}

func (w *wrapped[TIn, TOut]) isInstrumented() {}

func (w *wrapped[TIn, TOut]) Name() string { return w.inner.Name() }

func (w *wrapped[TIn, TOut]) Description() string {
	if described, ok := w.inner.(core.Described); ok {
		return described.Description()
	}
	return ""
}

func (w *wrapped[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	start := time.Now()

	decision := observability.SamplingDecision{Decision: observability.DecisionSample}
	if w.sampler != nil {
		decision = w.sampler.Head(wctx.CorrelationID())
	}

	baseData := map[string]any{
		"correlation_id": wctx.CorrelationID(),
		"workflow_id":    wctx.WorkflowID(),
		"primitive":      w.inner.Name(),
	}
	if w.captureMetadata {
		for k, v := range wctx.Metadata() {
			baseData["meta."+k] = v
		}
	}

	if shouldEmit(decision) {
		w.observer.OnEvent(ctx, observability.Event{
			Type:      EventPrimitiveStart,
			Level:     observability.LevelInfo,
			Timestamp: start,
			Source:    sourceName,
			Data:      cloneData(baseData),
		})
	}

	out, err := w.inner.Execute(ctx, in, wctx)
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.Record(w.inner.Name(), duration, errorKind(err))
	}

	if w.sampler != nil {
		decision = w.sampler.Tail(wctx.CorrelationID(), err != nil, duration.Milliseconds())
	}

	if shouldEmit(decision) {
		completeData := cloneData(baseData)
		completeData["duration_ms"] = duration.Milliseconds()
		level := observability.LevelInfo
		if err != nil {
			completeData["error_kind"] = errorKind(err)
			level = observability.LevelError
		}
		w.observer.OnEvent(ctx, observability.Event{
			Type:      EventPrimitiveComplete,
			Level:     level,
			Timestamp: time.Now(),
			Source:    sourceName,
			Data:      completeData,
		})
	}

	return out, err
}

func shouldEmit(d observability.SamplingDecision) bool {
	return d.Decision == observability.DecisionSample || d.Decision == observability.DecisionRecordOnly
}

func cloneData(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
