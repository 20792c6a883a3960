package adaptive

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/recovery"
)

// RetryHook is a concrete adaptive implementation hook that learns a better
// backoff_factor for a Retry-wrapped target, per the strategy parameters
// "max_retries" (int) and "backoff_factor" (float64). ExecuteWithStrategy
// runs the target under Retry configured from the strategy, and
// ProposeStrategy nudges backoff_factor upward once enough baseline
// observations exist.
type RetryHook[TIn, TOut any] struct {
	Target    core.Primitive[TIn, TOut]
	Retryable recovery.ErrorClassifier

	// BackoffStep is the amount ProposeStrategy adds to backoff_factor for
	// its single candidate proposal. Defaults to 0.5 when zero.
	BackoffStep float64
}

func (h RetryHook[TIn, TOut]) ExecuteWithStrategy(ctx context.Context, in TIn, strategy *LearningStrategy, wctx *core.WorkflowContext) (TOut, error) {
	maxRetries, _ := strategy.Parameters["max_retries"].(int)
	backoffFactor, _ := strategy.Parameters["backoff_factor"].(float64)
	initialDelay, _ := strategy.Parameters["initial_delay"].(time.Duration)
	if initialDelay == 0 {
		initialDelay = 10 * time.Millisecond
	}

	cfg := recovery.RetryConfig{
		MaxRetries:     maxRetries,
		BackoffFactor:  backoffFactor,
		InitialDelay:   initialDelay,
		RetryableError: h.Retryable,
	}

	return recovery.Retry[TIn, TOut](strategy.ID, h.Target, cfg).Execute(ctx, in, wctx)
}

func (h RetryHook[TIn, TOut]) ProposeStrategy(baseline *LearningStrategy, recent []Outcome) *LearningStrategy {
	step := h.BackoffStep
	if step == 0 {
		step = 0.5
	}

	backoffFactor, _ := baseline.Parameters["backoff_factor"].(float64)
	maxRetries, _ := baseline.Parameters["max_retries"].(int)

	return &LearningStrategy{
		ID: "candidate-backoff",
		Parameters: map[string]any{
			"max_retries":    maxRetries,
			"backoff_factor": backoffFactor + step,
		},
	}
}
