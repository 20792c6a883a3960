package recovery

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
)

type timeout[TIn, TOut any] struct {
	name     string
	target   core.Primitive[TIn, TOut]
	duration time.Duration
}

type targetResult[TOut any] struct {
	out TOut
	err error
}

// Timeout wraps target, cancelling it cooperatively and raising TimeoutError
// if it does not complete within duration. Cancellation is delivered
// through the target's context, never by forceful interruption.
func Timeout[TIn, TOut any](name string, target core.Primitive[TIn, TOut], duration time.Duration) core.Primitive[TIn, TOut] {
	return &timeout[TIn, TOut]{name: name, target: target, duration: duration}
}

func (t *timeout[TIn, TOut]) Name() string { return t.name }

func (t *timeout[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	runCtx, cancel := context.WithTimeout(ctx, t.duration)
	defer cancel()

	done := make(chan targetResult[TOut], 1)
	go func() {
		out, err := t.target.Execute(runCtx, in, wctx)
		done <- targetResult[TOut]{out: out, err: err}
	}()

	select {
	case result := <-done:
		return result.out, result.err
	case <-runCtx.Done():
		<-done // wait for target to observe cancellation and return
		if ctx.Err() != nil {
			return zero, &core.CancelledError{Primitive: t.name, Err: ctx.Err()}
		}
		return zero, &TimeoutError{Primitive: t.name, TimeoutMS: t.duration.Milliseconds()}
	}
}
