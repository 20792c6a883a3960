package core

import "context"

// sequential2 composes two primitives left-to-right: the output type of the
// left operand is the input type of the right operand, enforced statically
// by the Go type system. Chains of more than two differently-typed steps
// are built by nesting Sequential calls; chains of same-typed steps use
// SequentialN below.
type sequential2[TIn, TMid, TOut any] struct {
	name  string
	left  Primitive[TIn, TMid]
	right Primitive[TMid, TOut]
}

// Sequential composes two primitives such that Execute threads the left
// operand's output into the right operand's input. On either child's
// failure, the composite short-circuits and surfaces that child's error
// kind unchanged.
func Sequential[TIn, TMid, TOut any](left Primitive[TIn, TMid], right Primitive[TMid, TOut]) Primitive[TIn, TOut] {
	return &sequential2[TIn, TMid, TOut]{
		name:  left.Name() + " -> " + right.Name(),
		left:  left,
		right: right,
	}
}

func (s *sequential2[TIn, TMid, TOut]) Name() string { return s.name }

func (s *sequential2[TIn, TMid, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &CancelledError{Primitive: s.name, Err: err}
	}

	mid, err := s.left.Execute(ctx, in, wctx)
	if err != nil {
		return zero, err
	}

	if err := ctx.Err(); err != nil {
		return zero, &CancelledError{Primitive: s.name, Err: err}
	}

	return s.right.Execute(ctx, mid, wctx)
}

// sequentialN composes any number of same-typed steps in declaration
// order. An empty step list is the identity primitive.
type sequentialN[T any] struct {
	name  string
	steps []Primitive[T, T]
}

// SequentialN composes steps, threading xₖ = stepsₖ(xₖ₋₁) in declaration
// order. An empty slice behaves as Identity[T]().
func SequentialN[T any](name string, steps ...Primitive[T, T]) Primitive[T, T] {
	return &sequentialN[T]{name: name, steps: steps}
}

func (s *sequentialN[T]) Name() string { return s.name }

func (s *sequentialN[T]) Execute(ctx context.Context, in T, wctx *WorkflowContext) (T, error) {
	if len(s.steps) == 0 {
		return Identity[T]().Execute(ctx, in, wctx)
	}

	state := in
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, &CancelledError{Primitive: s.name, Err: err}
		}

		next, err := step.Execute(ctx, state, wctx)
		if err != nil {
			var zero T
			return zero, err
		}
		state = next
	}

	return state, nil
}
