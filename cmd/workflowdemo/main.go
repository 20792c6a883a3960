// Command workflowdemo exercises the composable workflow primitive core
// end to end, running the same scenarios used to validate it: a sequential
// pipeline, a concurrent fan-out, retry recovery, a fallback chain, a
// circuit breaker's open/half-open/closed cycle, and an adaptive strategy
// that learns a better retry backoff.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/tta-dev/workflowcore/adaptive"
	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/health"
	"github.com/tta-dev/workflowcore/instrument"
	"github.com/tta-dev/workflowcore/observability"
	"github.com/tta-dev/workflowcore/recovery"
	"github.com/tta-dev/workflowcore/workflowtest"
)

func main() {
	var verbose = flag.Bool("verbose", false, "Enable verbose (debug-level) logging to stderr")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	cfg := observability.ConfigFromEnv()
	fmt.Printf("observability config: environment-derived sampling rate = %.2f\n", cfg.Sampling.DefaultRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runSequentialPipeline(ctx)
	runParallelFanOut(ctx)
	runRetryRecovery(ctx)
	runFallbackChain(ctx)
	runCircuitBreaker(ctx)
	runAdaptiveRetry(ctx)
	runHealthSnapshot(ctx, cfg)
}

func mustWctx(correlationID string) *core.WorkflowContext {
	wctx, err := core.NewWorkflowContext(correlationID, "workflowdemo", nil)
	if err != nil {
		log.Fatalf("building workflow context: %v", err)
	}
	return wctx
}

// runSequentialPipeline is scenario S1: inc(x)=x+1 then double(x)=x*2,
// composed sequentially, instrumented so each step produces its own span
// under a shared correlation ID.
func runSequentialPipeline(ctx context.Context) {
	fx := workflowtest.NewFixture()

	inc := core.NewLambda("inc", func(ctx context.Context, x int, wctx *core.WorkflowContext) (int, error) {
		return x + 1, nil
	})
	double := core.NewLambda("double", func(ctx context.Context, x int, wctx *core.WorkflowContext) (int, error) {
		return x * 2, nil
	})

	wrappedInc, err := instrument.Wrap[int, int](inc, fx.InstrumentOpts)
	if err != nil {
		log.Fatalf("S1: wrap inc: %v", err)
	}
	wrappedDouble, err := instrument.Wrap[int, int](double, fx.InstrumentOpts)
	if err != nil {
		log.Fatalf("S1: wrap double: %v", err)
	}

	pipeline := core.Sequential[int, int, int](wrappedInc, wrappedDouble)
	wctx := mustWctx("s1-sequential")

	out, err := pipeline.Execute(ctx, 5, wctx)
	if err != nil {
		log.Fatalf("S1: %v", err)
	}
	fmt.Printf("S1 sequential pipeline: double(inc(5)) -> %d (want 12), spans=%d\n", out, len(fx.Spans.Spans()))
}

// runParallelFanOut is scenario S2: three primitives with artificial delays
// composed in parallel wait-all, asserting declaration-order output.
func runParallelFanOut(ctx context.Context) {
	letter := func(name, value string, delay time.Duration) core.Primitive[struct{}, string] {
		return core.NewLambda(name, func(ctx context.Context, _ struct{}, wctx *core.WorkflowContext) (string, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return value, nil
		})
	}

	fanOut := core.ParallelWaitAll[struct{}, string]("letters",
		letter("a", "A", 30*time.Millisecond),
		letter("b", "B", 10*time.Millisecond),
		letter("c", "C", 20*time.Millisecond),
	)

	wctx := mustWctx("s2-parallel")
	start := time.Now()
	out, err := fanOut.Execute(ctx, struct{}{}, wctx)
	if err != nil {
		log.Fatalf("S2: %v", err)
	}
	fmt.Printf("S2 parallel fan-out: %v (want [A B C]) in %v wall-clock\n", out, time.Since(start))
}

// runRetryRecovery is scenario S3: a target that fails twice with a
// connection error then succeeds, wrapped in Retry.
func runRetryRecovery(ctx context.Context) {
	attempts := []error{errors.New("connection refused"), errors.New("connection refused"), nil}
	target := workflowtest.New[string, string]("flaky-upstream").WithSequence(
		[]string{"", "", "ok"},
		attempts,
	)

	connectionError := func(err error) bool {
		return err != nil && err.Error() == "connection refused"
	}
	cfg := recovery.RetryConfig{
		MaxRetries:     3,
		InitialDelay:   10 * time.Millisecond,
		BackoffFactor:  1,
		RetryableError: connectionError,
	}
	retrying := recovery.RetryWithClock[string, string]("retrying-upstream", target, cfg, workflowtest.NewClock(time.Now()))

	wctx := mustWctx("s3-retry")
	out, err := retrying.Execute(ctx, "req", wctx)
	if err != nil {
		log.Fatalf("S3: %v", err)
	}
	fmt.Printf("S3 retry recovery: %q (want \"ok\"), call_count=%d (want 3)\n", out, target.CallCount())
}

// runFallbackChain is scenario S4: a primary and first fallback both fail,
// the second fallback succeeds.
func runFallbackChain(ctx context.Context) {
	primary := workflowtest.New[string, map[string]string]("primary").WithReturn(nil, errors.New("primary unavailable"))
	fallback1 := workflowtest.New[string, map[string]string]("fallback1").WithReturn(nil, errors.New("fallback1 unavailable"))
	fallback2 := workflowtest.New[string, map[string]string]("fallback2").WithReturn(map[string]string{"source": "fallback2"}, nil)

	chain := recovery.Fallback[string, map[string]string]("lookup", primary, []core.Primitive[string, map[string]string]{fallback1, fallback2})

	wctx := mustWctx("s4-fallback")
	out, err := chain.Execute(ctx, "req", wctx)
	if err != nil {
		log.Fatalf("S4: %v", err)
	}
	fmt.Printf("S4 fallback chain: %v (want map[source:fallback2])\n", out)
}

// runCircuitBreaker is scenario S5: three failures open the breaker, a
// subsequent call is rejected without reaching the target, and two
// successful half-open probes close it again.
func runCircuitBreaker(ctx context.Context) {
	clock := workflowtest.NewClock(time.Now())
	shouldFail := true
	target := core.NewLambda("unreliable-dependency", func(ctx context.Context, _ struct{}, wctx *core.WorkflowContext) (struct{}, error) {
		if shouldFail {
			return struct{}{}, errors.New("dependency error")
		}
		return struct{}{}, nil
	})

	cfg := recovery.CircuitBreakerConfig{
		FailureThreshold:   3,
		WindowSize:         10,
		OpenDuration:       50 * time.Millisecond,
		HalfOpenProbeCount: 2,
	}
	breaker := recovery.CircuitBreakerWithClock[struct{}, struct{}]("dependency-breaker", target, cfg, clock)
	wctx := mustWctx("s5-circuit-breaker")

	for i := 0; i < 3; i++ {
		breaker.Execute(ctx, struct{}{}, wctx)
	}

	var openErr *recovery.CircuitOpenError
	_, err := breaker.Execute(ctx, struct{}{}, wctx)
	opened := errors.As(err, &openErr)

	clock.Advance(60 * time.Millisecond)
	shouldFail = false
	breaker.Execute(ctx, struct{}{}, wctx)
	_, err = breaker.Execute(ctx, struct{}{}, wctx)

	fmt.Printf("S5 circuit breaker: opened after 3 failures=%v, closed again after probes: err=%v\n", opened, err)
}

// runAdaptiveRetry is scenario S6: a learning strategy store validates a
// proposed backoff_factor against a baseline and adopts it once it proves
// out over the validation window.
func runAdaptiveRetry(ctx context.Context) {
	baseline := &adaptive.LearningStrategy{
		ID:         "baseline",
		Parameters: map[string]any{"max_retries": 3, "backoff_factor": 2.0},
	}
	hook := &demoRetryHook{
		failRateByStrategy: map[string]float64{"baseline": 0.4, "candidate-backoff": 0.1},
		calls:              map[string]int{},
	}

	cfg := adaptive.Config{
		Mode:                          adaptive.ModeValidate,
		MinObservationsBeforeLearning: 10,
		ValidationWindowSize:          10,
		ValidationThreshold:           0.8,
		CircuitBreakerThreshold:       0.5,
		CircuitBreakerWindow:          20,
	}
	primitive := adaptive.Adaptive[int, int]("adaptive-retry", hook, baseline, cfg)
	store := primitive.(interface{ Store() *adaptive.StrategyStore }).Store()

	wctx := mustWctx("s6-adaptive")
	for i := 0; i < 40; i++ {
		primitive.Execute(ctx, 1, wctx)
	}

	active := store.ActiveStrategy("default")
	fmt.Printf("S6 adaptive retry: active strategy = %q, validated=%v (want candidate-backoff, true)\n",
		active.ID, store.IsValidated("default"))
}

// demoRetryHook is a minimal adaptive.Hook whose simulated failure rate
// depends on which strategy it is handed, deterministically by call index
// per strategy so the demo's outcome does not depend on real randomness.
type demoRetryHook struct {
	failRateByStrategy map[string]float64
	calls              map[string]int
}

func (h *demoRetryHook) ExecuteWithStrategy(ctx context.Context, in int, strategy *adaptive.LearningStrategy, wctx *core.WorkflowContext) (int, error) {
	h.calls[strategy.ID]++
	rate := h.failRateByStrategy[strategy.ID]
	// fail on every call whose index falls within the first rate-fraction
	// of a 10-call cycle, deterministically.
	threshold := int(rate * 10)
	if h.calls[strategy.ID]%10 < threshold {
		return 0, errors.New("simulated downstream failure")
	}
	return in, nil
}

func (h *demoRetryHook) ProposeStrategy(baseline *adaptive.LearningStrategy, recent []adaptive.Outcome) *adaptive.LearningStrategy {
	backoffFactor, _ := baseline.Parameters["backoff_factor"].(float64)
	maxRetries, _ := baseline.Parameters["max_retries"].(int)
	return &adaptive.LearningStrategy{
		ID: "candidate-backoff",
		Parameters: map[string]any{
			"max_retries":    maxRetries,
			"backoff_factor": backoffFactor + 0.5,
		},
	}
}

// runHealthSnapshot wires the full observability pipeline (sampler,
// adaptive controller, cardinality-limited metrics, batched span export)
// and reads its health back through the collector.
func runHealthSnapshot(ctx context.Context, cfg observability.Config) {
	observability.SetConfig(cfg)

	sampler := observability.NewSampler(cfg.Sampling)
	controller := observability.NewAdaptiveController(cfg.Sampling, sampler)
	cardinality := observability.NewCardinalityLimiter(cfg.Metrics)
	metrics := observability.NewMetricsCollector(cardinality)

	processor := observability.NewBatchSpanProcessor(cfg.Tracing, observability.NewStdoutSpanExporter(os.Stdout))
	observability.RegisterObserver("export", processor)

	ping := core.NewLambda("ping", func(ctx context.Context, in string, wctx *core.WorkflowContext) (string, error) {
		return in, nil
	})
	wrapped, err := instrument.Wrap[string, string](ping, instrument.Config{Observer: "export"},
		instrument.WithSampler(sampler), instrument.WithMetrics(metrics))
	if err != nil {
		log.Fatalf("health: wrap ping: %v", err)
	}
	if _, err := wrapped.Execute(ctx, "pong", mustWctx("health-probe")); err != nil {
		log.Fatalf("health: probe execution: %v", err)
	}
	if err := processor.Flush(ctx); err != nil {
		fmt.Printf("health: span flush failed: %v\n", err)
	}
	controller.ObserveOverhead(0.01)

	collector := health.NewCollector(cfg, sampler, cardinality,
		health.WithTraceQueueDepth(processor.QueueDepth),
		health.WithLastExport(processor.LastExport),
	)

	snapshot := collector.Collect(ctx)
	fmt.Printf("health: status=%s sampling_rate=%.2f queue_depth=%d exported_spans=%d\n",
		snapshot.Status, snapshot.Sampling.EffectiveRate, snapshot.Tracing.QueueDepth, processor.ExportedCount())
}
