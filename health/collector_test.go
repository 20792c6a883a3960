package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/health"
	"github.com/tta-dev/workflowcore/observability"
)

func TestCollector_ReportsHealthyWithNoIssues(t *testing.T) {
	cfg := observability.DefaultConfig()
	sampler := observability.NewSampler(cfg.Sampling)
	cardinality := observability.NewCardinalityLimiter(cfg.Metrics)

	c := health.NewCollector(cfg, sampler, cardinality)
	snapshot := c.Collect(context.Background())

	if snapshot.Status != health.StatusHealthy {
		t.Fatalf("Status = %v, want healthy; reasons: %v", snapshot.Status, snapshot.Reasons)
	}
}

func TestCollector_DegradedWhenCardinalityOverflows(t *testing.T) {
	cfg := observability.DefaultConfig()
	sampler := observability.NewSampler(cfg.Sampling)
	cardinality := observability.NewCardinalityLimiter(observability.MetricsConfig{MaxLabelValues: 1})

	cardinality.Observe("requests", "v0")
	cardinality.Observe("requests", "v1") // exceeds the limit, increments overflow

	c := health.NewCollector(cfg, sampler, cardinality)
	snapshot := c.Collect(context.Background())

	if snapshot.Status != health.StatusDegraded {
		t.Fatalf("Status = %v, want degraded; reasons: %v", snapshot.Status, snapshot.Reasons)
	}
	if snapshot.Metrics.PerMetric["requests"].OverflowCount != 1 {
		t.Errorf("OverflowCount = %d, want 1", snapshot.Metrics.PerMetric["requests"].OverflowCount)
	}
}

func TestCollector_UnhealthyWhenExporterUnreachable(t *testing.T) {
	cfg := observability.DefaultConfig()
	sampler := observability.NewSampler(cfg.Sampling)
	cardinality := observability.NewCardinalityLimiter(cfg.Metrics)

	probe := func(ctx context.Context) error { return errors.New("connection refused") }
	c := health.NewCollector(cfg, sampler, cardinality, health.WithExporterProbe(probe))

	snapshot := c.Collect(context.Background())
	if snapshot.Status != health.StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy; reasons: %v", snapshot.Status, snapshot.Reasons)
	}
}

func TestCollector_UnhealthyWhenExportStale(t *testing.T) {
	cfg := observability.DefaultConfig()
	sampler := observability.NewSampler(cfg.Sampling)
	cardinality := observability.NewCardinalityLimiter(cfg.Metrics)

	fixedNow := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	lastExportAt := fixedNow.Add(-time.Hour)

	c := health.NewCollector(cfg, sampler, cardinality,
		health.WithLastExport(func() (time.Time, bool) { return lastExportAt, true }),
		health.WithUnhealthyAfter(5*time.Minute),
		health.WithClockFunc(func() time.Time { return fixedNow }),
	)

	snapshot := c.Collect(context.Background())
	if snapshot.Status != health.StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy; reasons: %v", snapshot.Status, snapshot.Reasons)
	}
	if !snapshot.Tracing.LastExportAt.Equal(lastExportAt) {
		t.Errorf("LastExportAt = %v, want %v", snapshot.Tracing.LastExportAt, lastExportAt)
	}
}

func TestCollector_DegradedWhenLastExportFailed(t *testing.T) {
	cfg := observability.DefaultConfig()
	sampler := observability.NewSampler(cfg.Sampling)
	cardinality := observability.NewCardinalityLimiter(cfg.Metrics)

	c := health.NewCollector(cfg, sampler, cardinality,
		health.WithLastExport(func() (time.Time, bool) { return time.Now(), false }),
	)

	snapshot := c.Collect(context.Background())
	if snapshot.Status != health.StatusDegraded {
		t.Fatalf("Status = %v, want degraded; reasons: %v", snapshot.Status, snapshot.Reasons)
	}
}
