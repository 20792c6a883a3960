package recovery

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// ErrorClassifier decides whether err is retryable. A nil classifier treats
// every error as retryable.
type ErrorClassifier func(err error) bool

// RetryConfig parameterizes the Retry primitive.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	BackoffFactor  float64
	MaxDelay       time.Duration
	JitterNil      *time.Duration // max random jitter added per attempt; nil disables jitter
	RetryableError ErrorClassifier

	// Observer names a registered observability.Observer that receives a
	// retry.attempt event after every attempt; empty uses a no-op observer.
	Observer string
}

func (c RetryConfig) Jitter() time.Duration {
	if c.JitterNil == nil {
		return 0
	}
	return *c.JitterNil
}

// DefaultRetryConfig returns exponential backoff starting at 100ms, doubling
// each attempt, capped at 5s, retrying up to 3 times.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Second,
	}
}

type retry[TIn, TOut any] struct {
	name     string
	target   core.Primitive[TIn, TOut]
	cfg      RetryConfig
	clock    Clock
	observer observability.Observer
}

// Retry wraps target, re-invoking it on retryable failure with exponential
// backoff: delay_k = min(InitialDelay * BackoffFactor^k + jitter, MaxDelay).
// At most MaxRetries+1 invocations of target are made for any single
// execution. Cancellation aborts
// immediately without a further retry. A non-retryable error surfaces
// unchanged on the first attempt that produces it.
func Retry[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg RetryConfig) core.Primitive[TIn, TOut] {
	return &retry[TIn, TOut]{name: name, target: target, cfg: cfg, clock: SystemClock, observer: resolveObserver(cfg.Observer)}
}

// RetryWithClock is Retry with an injectable Clock, for deterministic tests.
func RetryWithClock[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg RetryConfig, clock Clock) core.Primitive[TIn, TOut] {
	return &retry[TIn, TOut]{name: name, target: target, cfg: cfg, clock: clock, observer: resolveObserver(cfg.Observer)}
}

func (r *retry[TIn, TOut]) Name() string { return r.name }

func (r *retry[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	var lastErr error

	attempts := r.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &core.CancelledError{Primitive: r.name, Err: err}
		}

		out, err := r.target.Execute(ctx, in, wctx)
		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventRetryAttempt,
			Level:     observability.LevelInfo,
			Timestamp: r.clock.Now(),
			Source:    "recovery.Retry",
			Data: map[string]any{
				"primitive":      r.name,
				"attempt":        attempt + 1,
				"correlation_id": wctx.CorrelationID(),
				"succeeded":      err == nil,
			},
		})
		if err == nil {
			return out, nil
		}
		lastErr = err

		if r.cfg.RetryableError != nil && !r.cfg.RetryableError(err) {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := r.backoff(attempt)
		select {
		case <-r.clock.After(delay):
		case <-ctx.Done():
			return zero, &core.CancelledError{Primitive: r.name, Err: ctx.Err()}
		}
	}

	return zero, &RetriesExhaustedError{Primitive: r.name, Attempts: attempts, Err: lastErr}
}

func (r *retry[TIn, TOut]) backoff(attempt int) time.Duration {
	delay := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.BackoffFactor, float64(attempt))
	if jitter := r.cfg.Jitter(); jitter > 0 {
		delay += float64(rand.Int63n(int64(jitter) + 1))
	}
	d := time.Duration(delay)
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		return r.cfg.MaxDelay
	}
	return d
}
