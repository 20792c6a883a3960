package core

import "context"

// Primitive is the uniform execution contract shared by every atomic or
// composite unit of work. Implementations are constructed
// once at composition time and may be reused across many executions; they
// are stateless with respect to invocation except for instrumentation
// counters. Primitives that carry mutable state of their own (CircuitBreaker,
// Bulkhead, Adaptive) must document that state as part of their contract.
type Primitive[TIn, TOut any] interface {
	// Execute runs the primitive against in under wctx. Re-invoking with the
	// same inputs is allowed and produces a fresh trace.
	Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error)

	// Name returns a human-readable identifier used in traces, logs, and
	// error messages.
	Name() string
}

// Described is implemented by primitives that carry an optional free-text
// description in addition to their name.
type Described interface {
	Description() string
}

// LambdaFunc adapts a plain function into the Primitive contract.
type LambdaFunc[TIn, TOut any] func(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error)

// Lambda wraps a plain callable as a Primitive for ergonomic mid-pipeline
// transformation. It is treated as any other primitive for
// instrumentation and recovery purposes.
type Lambda[TIn, TOut any] struct {
	name string
	desc string
	fn   LambdaFunc[TIn, TOut]
}

// NewLambda constructs a named Lambda primitive from fn.
func NewLambda[TIn, TOut any](name string, fn LambdaFunc[TIn, TOut]) *Lambda[TIn, TOut] {
	return &Lambda[TIn, TOut]{name: name, fn: fn}
}

// WithDescription attaches a human-readable description and returns the
// receiver for chaining at composition time.
func (l *Lambda[TIn, TOut]) WithDescription(desc string) *Lambda[TIn, TOut] {
	l.desc = desc
	return l
}

func (l *Lambda[TIn, TOut]) Name() string        { return l.name }
func (l *Lambda[TIn, TOut]) Description() string { return l.desc }

func (l *Lambda[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error) {
	out, err := l.fn(ctx, in, wctx)
	if err != nil {
		var zero TOut
		if _, ok := err.(*TargetError); ok {
			return zero, err
		}
		return zero, &TargetError{Primitive: l.name, Err: err}
	}
	return out, nil
}

// identity is the Sequential composition's neutral element: it returns its
// input unchanged.
type identity[T any] struct{ name string }

// Identity returns a Primitive that returns its input unchanged.
func Identity[T any]() Primitive[T, T] {
	return &identity[T]{name: "identity"}
}

func (i *identity[T]) Name() string { return i.name }

func (i *identity[T]) Execute(ctx context.Context, in T, wctx *WorkflowContext) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, &CancelledError{Primitive: i.name, Err: err}
	}
	return in, nil
}
