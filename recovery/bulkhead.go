package recovery

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// BulkheadConfig parameterizes Bulkhead.
type BulkheadConfig struct {
	MaxConcurrent int
	// RejectOnFullNil controls overflow behavior. nil defaults to false
	// (queue); true rejects overflow immediately with BulkheadRejectedError.
	RejectOnFullNil *bool
	Observer        string
}

func (c BulkheadConfig) RejectOnFull() bool {
	if c.RejectOnFullNil == nil {
		return false
	}
	return *c.RejectOnFullNil
}

// DefaultBulkheadConfig admits 10 concurrent executions and queues overflow.
func DefaultBulkheadConfig() BulkheadConfig {
	return BulkheadConfig{MaxConcurrent: 10}
}

// bulkhead caps concurrent invocations of target using a buffered admission
// channel sized to the admission limit: each admitted call holds one slot
// until it returns.
type bulkhead[TIn, TOut any] struct {
	name     string
	target   core.Primitive[TIn, TOut]
	cfg      BulkheadConfig
	tokens   chan struct{}
	observer observability.Observer
}

// Bulkhead admits at most cfg.MaxConcurrent concurrent executions of target.
// Overflow either queues for a slot (default) or rejects immediately with
// BulkheadRejectedError when cfg.RejectOnFull() is true.
func Bulkhead[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg BulkheadConfig) core.Primitive[TIn, TOut] {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &bulkhead[TIn, TOut]{
		name:     name,
		target:   target,
		cfg:      cfg,
		tokens:   make(chan struct{}, cfg.MaxConcurrent),
		observer: resolveObserver(cfg.Observer),
	}
}

func (b *bulkhead[TIn, TOut]) Name() string { return b.name }

// InFlight returns the number of executions currently admitted.
func (b *bulkhead[TIn, TOut]) InFlight() int { return len(b.tokens) }

func (b *bulkhead[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &core.CancelledError{Primitive: b.name, Err: err}
	}

	if b.cfg.RejectOnFull() {
		select {
		case b.tokens <- struct{}{}:
		default:
			b.observer.OnEvent(ctx, observability.Event{
				Type:      EventBulkheadReject,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "recovery.Bulkhead",
				Data:      map[string]any{"primitive": b.name, "max_concurrent": b.cfg.MaxConcurrent},
			})
			return zero, &BulkheadRejectedError{Primitive: b.name, MaxConcurrent: b.cfg.MaxConcurrent}
		}
	} else {
		select {
		case b.tokens <- struct{}{}:
		case <-ctx.Done():
			return zero, &core.CancelledError{Primitive: b.name, Err: ctx.Err()}
		}
	}
	defer func() { <-b.tokens }()

	return b.target.Execute(ctx, in, wctx)
}
