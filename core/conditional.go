package core

import "context"

// Predicate evaluates an input and context to select a composition branch.
type Predicate[TIn any] func(in TIn, wctx *WorkflowContext) (bool, error)

type conditional[TIn, TOut any] struct {
	name string
	pred Predicate[TIn]
	then Primitive[TIn, TOut]
	els  Primitive[TIn, TOut]
}

// Conditional selects thenPrimitive or elsePrimitive based on pred(input,
// context). Predicate errors surface as PredicateError. The two branches
// share a single output type, so branch compatibility holds statically.
func Conditional[TIn, TOut any](name string, pred Predicate[TIn], thenPrimitive, elsePrimitive Primitive[TIn, TOut]) Primitive[TIn, TOut] {
	return &conditional[TIn, TOut]{name: name, pred: pred, then: thenPrimitive, els: elsePrimitive}
}

func (c *conditional[TIn, TOut]) Name() string { return c.name }

func (c *conditional[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &CancelledError{Primitive: c.name, Err: err}
	}

	ok, err := c.pred(in, wctx)
	if err != nil {
		return zero, &PredicateError{Primitive: c.name, Err: err}
	}

	if ok {
		return c.then.Execute(ctx, in, wctx)
	}
	return c.els.Execute(ctx, in, wctx)
}
