package recovery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/recovery"
)

func newCtx(t *testing.T) *core.WorkflowContext {
	t.Helper()
	wctx, err := core.NewWorkflowContext("corr-1", "wf-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return wctx
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// A target that fails twice with a connection error then succeeds.
func TestRetry_RecoversAfterFailures(t *testing.T) {
	connErr := errors.New("connection error")
	callCount := 0
	sequence := []error{connErr, connErr, nil}

	target := core.NewLambda("flaky", func(ctx context.Context, in int, wctx *core.WorkflowContext) (string, error) {
		err := sequence[callCount]
		callCount++
		if err != nil {
			return "", err
		}
		return "ok", nil
	})

	cfg := recovery.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}
	r := recovery.RetryWithClock[int, string]("retry", target, cfg, &fakeClock{})

	out, err := r.Execute(context.Background(), 1, newCtx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want ok", out)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestRetry_ExhaustsAndWrapsLastError(t *testing.T) {
	boom := errors.New("boom")
	target := core.NewLambda("always-fails", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return 0, boom
	})

	cfg := recovery.RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond}
	r := recovery.RetryWithClock[int, int]("retry", target, cfg, &fakeClock{})

	_, err := r.Execute(context.Background(), 1, newCtx(t))
	var exhausted *recovery.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *recovery.RetriesExhaustedError, got %T", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3 (max_retries+1)", exhausted.Attempts)
	}
}

func TestRetry_NonRetryableErrorSurfacesImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	callCount := 0
	target := core.NewLambda("fatal", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		callCount++
		return 0, fatal
	})

	cfg := recovery.RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Millisecond,
		RetryableError: func(err error) bool { return false },
	}
	r := recovery.RetryWithClock[int, int]("retry", target, cfg, &fakeClock{})

	_, err := r.Execute(context.Background(), 1, newCtx(t))
	if !errors.Is(err, fatal) {
		t.Fatalf("expected the original error to surface unchanged, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetry_SucceedsOnFirstAttemptIsTransparent(t *testing.T) {
	target := core.NewLambda("ok", func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return in * 2, nil
	})

	cfg := recovery.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}
	r := recovery.RetryWithClock[int, int]("retry", target, cfg, &fakeClock{})

	out, err := r.Execute(context.Background(), 5, newCtx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 10 {
		t.Errorf("out = %d, want 10", out)
	}
}
