package core_test

import (
	"strings"
	"testing"

	"github.com/tta-dev/workflowcore/core"
)

func TestNewWorkflowContext_GeneratesCorrelationID(t *testing.T) {
	wctx, err := core.NewWorkflowContext("", "wf-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wctx.CorrelationID() == "" {
		t.Fatal("expected a generated correlation id, got empty string")
	}
	if wctx.WorkflowID() != "wf-1" {
		t.Errorf("WorkflowID() = %q, want %q", wctx.WorkflowID(), "wf-1")
	}
}

func TestNewWorkflowContext_RejectsBlankCorrelationID(t *testing.T) {
	_, err := core.NewWorkflowContext("   ", "", nil)
	if err == nil {
		t.Fatal("expected error for blank correlation id")
	}
	if !strings.Contains(err.Error(), "correlation_id") {
		t.Errorf("error message = %q, want it to mention correlation_id", err.Error())
	}
}

func TestWorkflowContext_WithIsAdditive(t *testing.T) {
	wctx, err := core.NewWorkflowContext("corr-1", "", map[string]any{"env": "prod"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extended := wctx.With(map[string]any{"priority": "high"})

	if extended.CorrelationID() != wctx.CorrelationID() {
		t.Error("With() must preserve correlation id")
	}

	if _, ok := wctx.Get("priority"); ok {
		t.Error("With() must not mutate the original context")
	}

	if v, ok := extended.Get("env"); !ok || v != "prod" {
		t.Error("With() must carry forward existing metadata")
	}
	if v, ok := extended.Get("priority"); !ok || v != "high" {
		t.Error("With() must add new metadata")
	}
}

func TestWorkflowContext_WithEmptyIsObservationallyEquivalent(t *testing.T) {
	wctx, err := core.NewWorkflowContext("corr-2", "wf-2", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extended := wctx.With(map[string]any{})

	if extended.CorrelationID() != wctx.CorrelationID() || extended.WorkflowID() != wctx.WorkflowID() {
		t.Fatal("extending with empty metadata must preserve identity fields")
	}

	for k, v := range wctx.Metadata() {
		got, ok := extended.Get(k)
		if !ok || got != v {
			t.Errorf("metadata key %q changed after empty With(): got %v, want %v", k, got, v)
		}
	}
}
