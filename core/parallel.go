package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelWaitAll composes branches for concurrent execution over a single
// broadcast input, waiting for every branch to complete. The output list is
// ordered by declaration, never by completion order. The first branch
// failure cancels the remaining siblings and surfaces that failure
// unchanged. No ordering guarantee is made among branches' side effects;
// callers must assume concurrent execution.
func ParallelWaitAll[TIn, TOut any](name string, branches ...Primitive[TIn, TOut]) Primitive[TIn, []TOut] {
	return &parallelWaitAll[TIn, TOut]{name: name, branches: branches}
}

type parallelWaitAll[TIn, TOut any] struct {
	name     string
	branches []Primitive[TIn, TOut]
}

func (p *parallelWaitAll[TIn, TOut]) Name() string { return p.name }

func (p *parallelWaitAll[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) ([]TOut, error) {
	if len(p.branches) == 0 {
		return []TOut{}, nil
	}

	results := make([]TOut, len(p.branches))

	group, gctx := errgroup.WithContext(ctx)
	for i, branch := range p.branches {
		group.Go(func() error {
			out, err := branch.Execute(gctx, in, wctx)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		var zero []TOut
		return zero, err
	}

	return results, nil
}

// ParallelFirstSuccess composes branches for concurrent execution over a
// single broadcast input, returning the first branch to succeed and
// cancelling its siblings. If every branch fails, AllBranchesFailedError
// aggregates each branch's error.
func ParallelFirstSuccess[TIn, TOut any](name string, branches ...Primitive[TIn, TOut]) Primitive[TIn, TOut] {
	return &parallelFirstSuccess[TIn, TOut]{name: name, branches: branches}
}

type parallelFirstSuccess[TIn, TOut any] struct {
	name     string
	branches []Primitive[TIn, TOut]
}

func (p *parallelFirstSuccess[TIn, TOut]) Name() string { return p.name }

type branchOutcome[TOut any] struct {
	index int
	out   TOut
	err   error
}

func (p *parallelFirstSuccess[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *WorkflowContext) (TOut, error) {
	var zero TOut
	if len(p.branches) == 0 {
		return zero, &AllBranchesFailedError{Primitive: p.name}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan branchOutcome[TOut], len(p.branches))
	for i, branch := range p.branches {
		i, branch := i, branch
		go func() {
			out, err := branch.Execute(runCtx, in, wctx)
			outcomes <- branchOutcome[TOut]{index: i, out: out, err: err}
		}()
	}

	errs := make([]error, len(p.branches))
	received := 0
	for received < len(p.branches) {
		outcome := <-outcomes
		received++
		if outcome.err == nil {
			cancel()
			return outcome.out, nil
		}
		errs[outcome.index] = outcome.err
	}

	return zero, &AllBranchesFailedError{Primitive: p.name, Errors: errs}
}

// KeyedBranch pairs a branch primitive with the key naming its input in a
// keyed fan-out mapping.
type KeyedBranch[TIn, TOut any] struct {
	Key       string
	Primitive Primitive[TIn, TOut]
}

// ParallelKeyed composes branches for concurrent execution where each
// branch receives its own input, looked up by key in the input mapping.
// The output list is ordered by declaration, like ParallelWaitAll. A
// declared branch whose key is absent from the input mapping fails the
// composite with NoMatchingBranchError before any branch starts; a null
// sentinel is never substituted.
func ParallelKeyed[TIn, TOut any](name string, branches ...KeyedBranch[TIn, TOut]) Primitive[map[string]TIn, []TOut] {
	return &parallelKeyed[TIn, TOut]{name: name, branches: branches}
}

type parallelKeyed[TIn, TOut any] struct {
	name     string
	branches []KeyedBranch[TIn, TOut]
}

func (p *parallelKeyed[TIn, TOut]) Name() string { return p.name }

func (p *parallelKeyed[TIn, TOut]) Execute(ctx context.Context, in map[string]TIn, wctx *WorkflowContext) ([]TOut, error) {
	if len(p.branches) == 0 {
		return []TOut{}, nil
	}

	for _, branch := range p.branches {
		if _, ok := in[branch.Key]; !ok {
			return nil, &NoMatchingBranchError{Primitive: p.name, Key: branch.Key}
		}
	}

	results := make([]TOut, len(p.branches))

	group, gctx := errgroup.WithContext(ctx)
	for i, branch := range p.branches {
		input := in[branch.Key]
		group.Go(func() error {
			out, err := branch.Primitive.Execute(gctx, input, wctx)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
