package workflowtest

import (
	"errors"
	"testing"

	"github.com/tta-dev/workflowcore/observability"
	"github.com/tta-dev/workflowcore/recovery"
)

// AssertCallCount fails t unless mock has been called exactly n times.
func AssertCallCount[TIn, TOut any](t testing.TB, mock *MockPrimitive[TIn, TOut], n int) {
	t.Helper()
	if got := mock.CallCount(); got != n {
		t.Errorf("%s: call count = %d, want %d", mock.Name(), got, n)
	}
}

// AssertAnyInput fails t unless at least one of mock's captured inputs
// satisfies predicate.
func AssertAnyInput[TIn, TOut any](t testing.TB, mock *MockPrimitive[TIn, TOut], predicate func(TIn) bool) {
	t.Helper()
	for _, in := range mock.Inputs() {
		if predicate(in) {
			return
		}
	}
	t.Errorf("%s: no captured input satisfied the predicate (of %d calls)", mock.Name(), mock.CallCount())
}

// AssertAllInputs fails t unless every one of mock's captured inputs
// satisfies predicate.
func AssertAllInputs[TIn, TOut any](t testing.TB, mock *MockPrimitive[TIn, TOut], predicate func(TIn) bool) {
	t.Helper()
	for i, in := range mock.Inputs() {
		if !predicate(in) {
			t.Errorf("%s: captured input %d failed the predicate", mock.Name(), i)
		}
	}
}

// AssertSpanProduced fails t unless collector recorded at least one span
// for the primitive named name.
func AssertSpanProduced(t testing.TB, collector *SpanCollector, name string) {
	t.Helper()
	if len(collector.ByName(name)) == 0 {
		t.Errorf("expected a span for primitive %q, got none (have: %v)", name, spanNames(collector.Spans()))
	}
}

// AssertSpanFailed fails t unless collector recorded a span for name whose
// ErrorKind is non-empty.
func AssertSpanFailed(t testing.TB, collector *SpanCollector, name string) {
	t.Helper()
	for _, s := range collector.ByName(name) {
		if s.ErrorKind != "" {
			return
		}
	}
	t.Errorf("expected a failed span for primitive %q, got none", name)
}

// AssertRetriesExhausted fails t unless err is a
// *recovery.RetriesExhaustedError, optionally checking its attempt count
// when wantAttempts is non-zero.
func AssertRetriesExhausted(t testing.TB, err error, wantAttempts int) {
	t.Helper()
	var exhausted *recovery.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected a *recovery.RetriesExhaustedError, got %T: %v", err, err)
	}
	if wantAttempts != 0 && exhausted.Attempts != wantAttempts {
		t.Errorf("RetriesExhaustedError.Attempts = %d, want %d", exhausted.Attempts, wantAttempts)
	}
}

func spanNames(spans []observability.Span) []string {
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	return names
}
