package observability_test

import (
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/observability"
)

func TestSampler_HeadDecisionIsStableForSameCorrelationID(t *testing.T) {
	s := observability.NewSampler(observability.SamplingConfig{DefaultRate: 0.5})

	first := s.Head("trace-1")
	for i := 0; i < 10; i++ {
		again := s.Head("trace-1")
		if again.Decision != first.Decision {
			t.Fatalf("head decision changed across calls: %v vs %v", first.Decision, again.Decision)
		}
	}
}

func TestSampler_TailPromotesDroppedErrorTraces(t *testing.T) {
	s := observability.NewSampler(observability.SamplingConfig{
		DefaultRate:        0,
		AlwaysSampleErrors: true,
	})

	head := s.Head("trace-err")
	if head.Decision != observability.DecisionDrop {
		t.Fatalf("expected head drop at rate 0, got %v", head.Decision)
	}

	tail := s.Tail("trace-err", true, 10)
	if tail.Decision != observability.DecisionRecordOnly {
		t.Errorf("expected tail promotion to RECORD_ONLY, got %v", tail.Decision)
	}
}

func TestSampler_TailNeverDemotesASample(t *testing.T) {
	s := observability.NewSampler(observability.SamplingConfig{DefaultRate: 1})

	head := s.Head("trace-ok")
	if head.Decision != observability.DecisionSample {
		t.Fatalf("expected head sample at rate 1, got %v", head.Decision)
	}

	tail := s.Tail("trace-ok", false, 0)
	if tail.Decision != observability.DecisionSample {
		t.Errorf("tail must not demote a sampled trace, got %v", tail.Decision)
	}
}

func TestSampler_AdjustRateClampsToBounds(t *testing.T) {
	s := observability.NewSampler(observability.SamplingConfig{
		DefaultRate:     0.5,
		AdaptiveMinRate: 0.1,
		AdaptiveMaxRate: 0.9,
	})

	s.AdjustRate(5)
	if s.Rate() != 0.9 {
		t.Errorf("Rate() = %v, want clamped to 0.9", s.Rate())
	}

	s.AdjustRate(-1)
	if s.Rate() != 0.1 {
		t.Errorf("Rate() = %v, want clamped to 0.1", s.Rate())
	}
}

func TestSampler_RecentAdjustmentsRecordsHistory(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := observability.NewSamplerWithClock(observability.SamplingConfig{
		DefaultRate:     0.5,
		AdaptiveMinRate: 0.05,
		AdaptiveMaxRate: 1,
	}, func() time.Time { return fixed })

	s.AdjustRate(0.3)
	s.AdjustRate(0.2)

	adjustments := s.RecentAdjustments()
	if len(adjustments) != 2 {
		t.Fatalf("RecentAdjustments() returned %d entries, want 2", len(adjustments))
	}
	if adjustments[1].Rate != 0.2 {
		t.Errorf("last adjustment rate = %v, want 0.2", adjustments[1].Rate)
	}
	if !adjustments[0].At.Equal(fixed) {
		t.Errorf("adjustment timestamp = %v, want %v", adjustments[0].At, fixed)
	}
}
