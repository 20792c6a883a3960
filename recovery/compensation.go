package recovery

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// SagaStep pairs an action with the compensator that reverses it.
// Compensator receives the state current when the saga failed, i.e. the
// output of the last completed action, not necessarily its own action's.
type SagaStep[T any] struct {
	Name        string
	Action      core.Primitive[T, T]
	Compensator core.Primitive[T, T]
}

type compensation[T any] struct {
	name     string
	steps    []SagaStep[T]
	observer observability.Observer
}

// Compensation executes steps' actions in order over a threaded state of
// type T. If any action fails, it runs the compensators for every
// previously-completed action in reverse order; compensator failures are
// recorded but never mask the original action failure. On success, returns
// the last action's output; on failure, SagaFailedError reports every
// compensator that ran and its outcome.
func Compensation[T any](name string, steps []SagaStep[T], observerName string) core.Primitive[T, T] {
	return &compensation[T]{name: name, steps: steps, observer: resolveObserver(observerName)}
}

func (c *compensation[T]) Name() string { return c.name }

func (c *compensation[T]) Execute(ctx context.Context, in T, wctx *core.WorkflowContext) (T, error) {
	state := in
	completed := 0

	for i, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return state, &core.CancelledError{Primitive: c.name, Err: err}
		}

		out, err := step.Action.Execute(ctx, state, wctx)
		if err != nil {
			outcomes := c.runCompensators(ctx, state, wctx, completed)
			return state, &SagaFailedError{
				Primitive:    c.name,
				FailedAction: i,
				Err:          err,
				Compensators: outcomes,
			}
		}
		state = out
		completed = i + 1
	}

	return state, nil
}

// runCompensators runs the compensator for each of the first n completed
// steps, in reverse order. Every compensator is invoked with the final
// state (the last completed action's output); steps
// whose compensator needs the intermediate output should thread it through
// T itself (e.g. as a field).
func (c *compensation[T]) runCompensators(ctx context.Context, state T, wctx *core.WorkflowContext, n int) []CompensatorOutcome {
	outcomes := make([]CompensatorOutcome, 0, n)
	for i := n - 1; i >= 0; i-- {
		step := c.steps[i]
		if step.Compensator == nil {
			continue
		}
		_, err := step.Compensator.Execute(ctx, state, wctx)
		outcomes = append(outcomes, CompensatorOutcome{Index: i, Err: err})
		c.observer.OnEvent(ctx, observability.Event{
			Type:      EventSagaCompensate,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "recovery.Compensation",
			Data: map[string]any{
				"primitive":      c.name,
				"step":           step.Name,
				"correlation_id": wctx.CorrelationID(),
				"failed":         err != nil,
			},
		})
	}
	return outcomes
}
