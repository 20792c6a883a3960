package observability

import "context"

// NoOpObserver discards all events. It is the default for recovery and
// adaptive primitives constructed without an observer name, so wrapping a
// primitive in Retry or CircuitBreaker costs nothing until the caller
// opts into observation.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
