package recovery

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

type fallback[TIn, TOut any] struct {
	name      string
	primary   core.Primitive[TIn, TOut]
	fallbacks []core.Primitive[TIn, TOut]
	observer  observability.Observer
}

// FallbackOption configures optional Fallback behavior.
type FallbackOption func(*fallbackOptions)

type fallbackOptions struct {
	observerName string
}

// WithFallbackObserver names a registered observability.Observer that
// receives a fallback.branch event recording which branch succeeded.
func WithFallbackObserver(name string) FallbackOption {
	return func(o *fallbackOptions) { o.observerName = name }
}

// Fallback executes primary; on failure it tries each of fallbacks in order,
// returning the output of the first branch to succeed. If every branch
// fails, AllFallbacksFailedError aggregates all of their errors, primary
// first.
func Fallback[TIn, TOut any](name string, primary core.Primitive[TIn, TOut], fallbacks []core.Primitive[TIn, TOut], opts ...FallbackOption) core.Primitive[TIn, TOut] {
	o := fallbackOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return &fallback[TIn, TOut]{name: name, primary: primary, fallbacks: fallbacks, observer: resolveObserver(o.observerName)}
}

func (f *fallback[TIn, TOut]) Name() string { return f.name }

func (f *fallback[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &core.CancelledError{Primitive: f.name, Err: err}
	}

	branches := make([]core.Primitive[TIn, TOut], 0, len(f.fallbacks)+1)
	branches = append(branches, f.primary)
	branches = append(branches, f.fallbacks...)

	errs := make([]error, 0, len(branches))
	for _, branch := range branches {
		if err := ctx.Err(); err != nil {
			return zero, &core.CancelledError{Primitive: f.name, Err: err}
		}
		out, err := branch.Execute(ctx, in, wctx)
		if err == nil {
			f.observer.OnEvent(ctx, observability.Event{
				Type:      EventFallbackBranch,
				Level:     observability.LevelInfo,
				Timestamp: time.Now(),
				Source:    "recovery.Fallback",
				Data: map[string]any{
					"primitive":         f.name,
					"correlation_id":    wctx.CorrelationID(),
					"succeeded_branch":  branch.Name(),
				},
			})
			return out, nil
		}
		errs = append(errs, err)
	}

	return zero, &AllFallbacksFailedError{Primitive: f.name, Errors: errs}
}
