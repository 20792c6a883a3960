package adaptive_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tta-dev/workflowcore/adaptive"
	"github.com/tta-dev/workflowcore/core"
)

func newCtx(t *testing.T) *core.WorkflowContext {
	t.Helper()
	wctx, err := core.NewWorkflowContext("corr-1", "wf-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return wctx
}

// backoffHook simulates a target whose failure rate depends on which
// strategy is selected: the baseline fails 4/10 calls (40%), the proposed
// candidate fails 1/10 calls (10%), deterministically by call index so the
// test does not depend on randomness.
type backoffHook struct {
	mu                sync.Mutex
	baselineOutcomes  []bool
	candidateOutcomes []bool
	baselineCalls     int
	candidateCalls    int
}

func newBackoffHook() *backoffHook {
	return &backoffHook{
		baselineOutcomes:  []bool{false, true, true, false, true, true, false, true, true, false},
		candidateOutcomes: []bool{true, true, true, true, true, true, true, true, true, false},
	}
}

func (h *backoffHook) ExecuteWithStrategy(ctx context.Context, in int, strategy *adaptive.LearningStrategy, wctx *core.WorkflowContext) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var success bool
	if strategy.ID == "baseline" {
		success = h.baselineOutcomes[h.baselineCalls%len(h.baselineOutcomes)]
		h.baselineCalls++
	} else {
		success = h.candidateOutcomes[h.candidateCalls%len(h.candidateOutcomes)]
		h.candidateCalls++
	}

	if !success {
		return 0, errors.New("simulated failure")
	}
	return in, nil
}

func (h *backoffHook) ProposeStrategy(baseline *adaptive.LearningStrategy, recent []adaptive.Outcome) *adaptive.LearningStrategy {
	maxRetries, _ := baseline.Parameters["max_retries"].(int)
	backoffFactor, _ := baseline.Parameters["backoff_factor"].(float64)
	return &adaptive.LearningStrategy{
		ID: "candidate-backoff",
		Parameters: map[string]any{
			"max_retries":    maxRetries,
			"backoff_factor": backoffFactor + 0.5,
		},
	}
}

// A candidate with a better simulated success rate must graduate through
// its validation window and become the active strategy.
func TestAdaptive_ValidatesAndAdoptsBetterStrategy(t *testing.T) {
	baseline := &adaptive.LearningStrategy{
		ID:         "baseline",
		Parameters: map[string]any{"max_retries": 3, "backoff_factor": 2.0},
	}

	cfg := adaptive.Config{
		Mode:                          adaptive.ModeValidate,
		MinObservationsBeforeLearning: 10,
		ValidationWindowSize:          10,
		ValidationThreshold:           0.8,
		CircuitBreakerThreshold:       0.5,
		CircuitBreakerWindow:          20,
	}

	hook := newBackoffHook()
	primitive := adaptive.Adaptive[int, int]("adaptive-retry", hook, baseline, cfg)
	store := primitive.(interface{ Store() *adaptive.StrategyStore }).Store()

	wctx := newCtx(t)
	for i := 0; i < 40; i++ {
		primitive.Execute(context.Background(), 1, wctx)
	}

	active := store.ActiveStrategy("default")
	if active == nil {
		t.Fatal("expected an active strategy for the default scope")
	}
	if active.ID != "candidate-backoff" {
		t.Errorf("active strategy = %q, want candidate-backoff", active.ID)
	}
	if !store.IsValidated("default") {
		t.Error("expected IsValidated(\"default\") to be true after graduation")
	}
}

func TestAdaptive_DisabledModeNeverLearns(t *testing.T) {
	baseline := &adaptive.LearningStrategy{
		ID:         "baseline",
		Parameters: map[string]any{"max_retries": 3, "backoff_factor": 2.0},
	}
	cfg := adaptive.Config{Mode: adaptive.ModeDisabled, MinObservationsBeforeLearning: 1}

	hook := newBackoffHook()
	primitive := adaptive.Adaptive[int, int]("adaptive-retry", hook, baseline, cfg)
	store := primitive.(interface{ Store() *adaptive.StrategyStore }).Store()

	wctx := newCtx(t)
	for i := 0; i < 20; i++ {
		primitive.Execute(context.Background(), 1, wctx)
	}

	if store.IsValidated("default") {
		t.Error("disabled mode must never validate or adopt a strategy")
	}
}
