// Package workflowtest provides test doubles and fixtures for exercising
// workflows without their external dependencies: a declarative
// MockPrimitive, an in-memory span collector, a deterministic clock, and
// assertion helpers.
package workflowtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/recovery"
)

// Func is a callable program for MockPrimitive, standing in for real
// domain logic under test.
type Func[TIn, TOut any] func(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error)

// MockPrimitive is a declaratively-programmed core.Primitive: configure it
// with a fixed return, a sequence of returns, or a callable, and it
// participates in composition and instrumentation exactly like a real
// primitive. Safe for concurrent use.
type MockPrimitive[TIn, TOut any] struct {
	name string

	mu     sync.Mutex
	calls  int
	inputs []TIn

	fixedOut TOut
	fixedErr error
	hasFixed bool
	sequence []sequenceEntry[TOut]
	fn       Func[TIn, TOut]
	clock    recovery.Clock
	delay    time.Duration
}

type sequenceEntry[TOut any] struct {
	out TOut
	err error
}

// New creates a MockPrimitive named name with no program configured; calling
// Execute before configuring one via WithReturn/WithSequence/WithFunc returns
// an error, since an unprogrammed mock indicates an incomplete test setup.
func New[TIn, TOut any](name string) *MockPrimitive[TIn, TOut] {
	return &MockPrimitive[TIn, TOut]{name: name}
}

// WithReturn configures the mock to always return (out, err).
func (m *MockPrimitive[TIn, TOut]) WithReturn(out TOut, err error) *MockPrimitive[TIn, TOut] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixedOut, m.fixedErr, m.hasFixed = out, err, true
	m.sequence, m.fn = nil, nil
	return m
}

// WithSequence configures the mock to return outs[i]/errs[i] on its i-th
// call. errs may be shorter than outs or nil; missing entries are treated
// as nil. Calling Execute beyond len(outs) returns an error, mirroring a
// test double that has run out of programmed responses.
func (m *MockPrimitive[TIn, TOut]) WithSequence(outs []TOut, errs []error) *MockPrimitive[TIn, TOut] {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq := make([]sequenceEntry[TOut], len(outs))
	for i, out := range outs {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		seq[i] = sequenceEntry[TOut]{out: out, err: err}
	}
	m.sequence = seq
	m.hasFixed = false
	m.fn = nil
	return m
}

// WithFunc configures the mock to delegate to fn on every call.
func (m *MockPrimitive[TIn, TOut]) WithFunc(fn Func[TIn, TOut]) *MockPrimitive[TIn, TOut] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.hasFixed = false
	m.sequence = nil
	return m
}

// WithDelay makes each Execute call wait duration (measured by clock)
// before returning its programmed result, cooperatively honoring ctx
// cancellation.
func (m *MockPrimitive[TIn, TOut]) WithDelay(duration time.Duration, clock recovery.Clock) *MockPrimitive[TIn, TOut] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
	m.delay = duration
	return m
}

// Reset clears call count and captured inputs, leaving the programmed
// behavior intact so the same mock can be reused across table-driven cases.
func (m *MockPrimitive[TIn, TOut]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.inputs = nil
}

// CallCount returns how many times Execute has been called.
func (m *MockPrimitive[TIn, TOut]) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Inputs returns a copy of every input Execute has captured, in call order.
func (m *MockPrimitive[TIn, TOut]) Inputs() []TIn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TIn, len(m.inputs))
	copy(out, m.inputs)
	return out
}

func (m *MockPrimitive[TIn, TOut]) Name() string { return m.name }

func (m *MockPrimitive[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	m.mu.Lock()
	m.calls++
	callIndex := m.calls - 1
	m.inputs = append(m.inputs, in)
	clock := m.clock
	delay := m.delay
	m.mu.Unlock()

	if clock != nil {
		select {
		case <-clock.After(delay):
		case <-ctx.Done():
			var zero TOut
			return zero, ctx.Err()
		}
	}

	m.mu.Lock()
	fn := m.fn
	hasFixed := m.hasFixed
	fixedOut, fixedErr := m.fixedOut, m.fixedErr
	var entry sequenceEntry[TOut]
	haveEntry := false
	sequenceExhausted := false
	if m.sequence != nil {
		if callIndex < len(m.sequence) {
			entry = m.sequence[callIndex]
			haveEntry = true
		} else {
			sequenceExhausted = true
		}
	}
	m.mu.Unlock()

	switch {
	case fn != nil:
		return fn(ctx, in, wctx)
	case haveEntry:
		return entry.out, entry.err
	case sequenceExhausted:
		var zero TOut
		return zero, fmt.Errorf("workflowtest: mock %q has no programmed response for call %d", m.name, callIndex+1)
	case hasFixed:
		return fixedOut, fixedErr
	default:
		var zero TOut
		return zero, fmt.Errorf("workflowtest: mock %q has no program configured", m.name)
	}
}
