package workflowtest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/workflowtest"
)

func newWctx(t *testing.T) *core.WorkflowContext {
	t.Helper()
	wctx, err := core.NewWorkflowContext("corr-1", "wf-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return wctx
}

func TestMockPrimitive_FixedReturn(t *testing.T) {
	m := workflowtest.New[int, string]("echo").WithReturn("ok", nil)
	wctx := newWctx(t)

	out, err := m.Execute(context.Background(), 1, wctx)
	if err != nil || out != "ok" {
		t.Fatalf("Execute() = (%q, %v), want (\"ok\", nil)", out, err)
	}
	workflowtest.AssertCallCount(t, m, 1)
}

func TestMockPrimitive_Sequence(t *testing.T) {
	m := workflowtest.New[int, string]("seq").WithSequence(
		[]string{"a", "b"},
		[]error{errors.New("first fails"), nil},
	)
	wctx := newWctx(t)

	if _, err := m.Execute(context.Background(), 1, wctx); err == nil {
		t.Fatal("expected the first call to fail")
	}
	out, err := m.Execute(context.Background(), 2, wctx)
	if err != nil || out != "b" {
		t.Fatalf("Execute() = (%q, %v), want (\"b\", nil)", out, err)
	}

	if _, err := m.Execute(context.Background(), 3, wctx); err == nil {
		t.Fatal("expected an error once the sequence is exhausted")
	}
}

func TestMockPrimitive_Func(t *testing.T) {
	m := workflowtest.New[int, int]("double").WithFunc(func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return in * 2, nil
	})
	wctx := newWctx(t)

	out, err := m.Execute(context.Background(), 21, wctx)
	if err != nil || out != 42 {
		t.Fatalf("Execute() = (%d, %v), want (42, nil)", out, err)
	}
}

func TestMockPrimitive_CapturesInputsAndReset(t *testing.T) {
	m := workflowtest.New[int, int]("id").WithFunc(func(ctx context.Context, in int, wctx *core.WorkflowContext) (int, error) {
		return in, nil
	})
	wctx := newWctx(t)

	m.Execute(context.Background(), 1, wctx)
	m.Execute(context.Background(), 2, wctx)
	workflowtest.AssertAllInputs(t, m, func(in int) bool { return in > 0 })
	workflowtest.AssertAnyInput(t, m, func(in int) bool { return in == 2 })

	m.Reset()
	workflowtest.AssertCallCount(t, m, 0)
	if len(m.Inputs()) != 0 {
		t.Error("expected Reset to clear captured inputs")
	}
}

func TestMockPrimitive_DelayAdvancesClockAndReturnsProgrammedResult(t *testing.T) {
	clock := workflowtest.NewClock(time.Unix(0, 0))
	m := workflowtest.New[int, int]("slow").WithReturn(1, nil).WithDelay(time.Second, clock)
	wctx := newWctx(t)

	out, err := m.Execute(context.Background(), 1, wctx)
	if err != nil || out != 1 {
		t.Fatalf("Execute() = (%d, %v), want (1, nil)", out, err)
	}
	if clock.Now().Sub(time.Unix(0, 0)) != time.Second {
		t.Errorf("expected WithDelay to advance the clock by 1s, got %v", clock.Now().Sub(time.Unix(0, 0)))
	}
}
