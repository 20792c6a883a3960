package recovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/recovery"
)

// Primary and first fallback fail; the second fallback answers.
func TestFallback_FallsThroughToSecondFallback(t *testing.T) {
	runtimeErr := errors.New("runtime error")
	primary := core.NewLambda("primary", func(ctx context.Context, in string, wctx *core.WorkflowContext) (map[string]string, error) {
		return nil, runtimeErr
	})
	fallback1 := core.NewLambda("fallback1", func(ctx context.Context, in string, wctx *core.WorkflowContext) (map[string]string, error) {
		return nil, runtimeErr
	})
	fallback2 := core.NewLambda("fallback2", func(ctx context.Context, in string, wctx *core.WorkflowContext) (map[string]string, error) {
		return map[string]string{"source": "fallback2"}, nil
	})

	chain := recovery.Fallback[string, map[string]string]("chain", primary, []core.Primitive[string, map[string]string]{fallback1, fallback2})

	out, err := chain.Execute(context.Background(), "req", newCtx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["source"] != "fallback2" {
		t.Errorf("out = %v, want source=fallback2", out)
	}
}

func TestFallback_AllFailuresAggregate(t *testing.T) {
	err1 := errors.New("e1")
	err2 := errors.New("e2")
	primary := core.NewLambda("primary", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return 0, err1
	})
	fb := core.NewLambda("fb", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return 0, err2
	})

	chain := recovery.Fallback[int, int]("chain", primary, []core.Primitive[int, int]{fb})

	_, err := chain.Execute(context.Background(), 1, newCtx(t))
	var allFailed *recovery.AllFallbacksFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected *recovery.AllFallbacksFailedError, got %T", err)
	}
	if len(allFailed.Errors) != 2 {
		t.Errorf("got %d errors, want 2", len(allFailed.Errors))
	}
}

func TestFallback_PrimarySuccessSkipsFallbacks(t *testing.T) {
	called := false
	primary := core.NewLambda("primary", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return 42, nil
	})
	fb := core.NewLambda("fb", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		called = true
		return 0, nil
	})

	chain := recovery.Fallback[int, int]("chain", primary, []core.Primitive[int, int]{fb})

	out, err := chain.Execute(context.Background(), 1, newCtx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 42 {
		t.Errorf("out = %d, want 42", out)
	}
	if called {
		t.Error("fallback must not run when primary succeeds")
	}
}
