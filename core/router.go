package core

import "context"

// Classifier evaluates an input and context to select a branch key for a
// Router composition.
type Classifier[TIn any] func(in TIn, wctx *WorkflowContext) (string, error)

type router[TIn, TOut any] struct {
	name     string
	classify Classifier[TIn]
	branches map[string]Primitive[TIn, TOut]
	def      Primitive[TIn, TOut]
}

// Router selects one of N branches via classifier(input, context), which
// returns a branch key looked up in branches. def, when non-nil, handles any
// key not present in branches; otherwise an unmatched key surfaces
// NoMatchingBranchError.
func Router[TIn, TOut any](name string, classify Classifier[TIn], branches map[string]Primitive[TIn, TOut], def Primitive[TIn, TOut]) Primitive[TIn, TOut] {
	return &router[TIn, TOut]{name: name, classify: classify, branches: branches, def: def}
}

func (r *router[TIn, TOut]) Name() string { return r.name }

func (r *router[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &CancelledError{Primitive: r.name, Err: err}
	}

	key, err := r.classify(in, wctx)
	if err != nil {
		return zero, &PredicateError{Primitive: r.name, Err: err}
	}

	branch, ok := r.branches[key]
	if !ok {
		if r.def != nil {
			return r.def.Execute(ctx, in, wctx)
		}
		return zero, &NoMatchingBranchError{Primitive: r.name, Key: key}
	}

	return branch.Execute(ctx, in, wctx)
}
