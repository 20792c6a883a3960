package health

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/observability"
)

// MetricCardinality reports how close a single metric is to its configured
// label-value budget.
type MetricCardinality struct {
	DistinctValues int   `json:"distinct_values"`
	OverflowCount  int64 `json:"overflow_count"`
}

// SamplingStatus is the sampling section of a health Snapshot.
type SamplingStatus struct {
	EffectiveRate     float64                        `json:"effective_rate"`
	AdaptiveEnabled   bool                           `json:"adaptive_enabled"`
	RecentAdjustments []observability.RateAdjustment `json:"recent_adjustments,omitempty"`
}

// MetricsStatus is the metrics section of a health Snapshot.
type MetricsStatus struct {
	PerMetric map[string]MetricCardinality `json:"per_metric,omitempty"`
}

// TracingStatus is the tracing section of a health Snapshot.
type TracingStatus struct {
	QueueDepth       int       `json:"queue_depth"`
	LastExportAt     time.Time `json:"last_export_at,omitempty"`
	LastExportOK     bool      `json:"last_export_ok"`
	ExporterAttached bool      `json:"exporter_attached"`
}

// Snapshot is a point-in-time view of the observability subsystem's health.
type Snapshot struct {
	Status   Status         `json:"status"`
	Reasons  []string       `json:"reasons,omitempty"`
	Sampling SamplingStatus `json:"sampling"`
	Metrics  MetricsStatus  `json:"metrics"`
	Tracing  TracingStatus  `json:"tracing"`
}

// ExporterProbe reports whether a configured exporter is currently
// reachable. Returning a non-nil error marks the reading unhealthy.
type ExporterProbe func(ctx context.Context) error

// Collector assembles health Snapshots from the live state of a Sampler and
// CardinalityLimiter, plus optional exporter reachability and trace queue
// depth callbacks supplied by whatever transport owns the actual
// exporter.
type Collector struct {
	cfg         observability.Config
	sampler     *observability.Sampler
	cardinality *observability.CardinalityLimiter

	probe           ExporterProbe
	traceQueueDepth func() int
	lastExport      func() (at time.Time, ok bool)
	unhealthyAfter  time.Duration
	now             func() time.Time
}

// Option configures optional Collector behavior.
type Option func(*Collector)

// WithExporterProbe attaches a reachability check run on every Collect.
func WithExporterProbe(p ExporterProbe) Option {
	return func(c *Collector) { c.probe = p }
}

// WithTraceQueueDepth reports the current depth of the span export queue.
func WithTraceQueueDepth(f func() int) Option {
	return func(c *Collector) { c.traceQueueDepth = f }
}

// WithLastExport reports the timestamp and outcome of the most recent
// completed export attempt.
func WithLastExport(f func() (time.Time, bool)) Option {
	return func(c *Collector) { c.lastExport = f }
}

// WithUnhealthyAfter sets how long may pass since the most recent export
// attempt reported by WithLastExport before the collector reports
// unhealthy. The check looks only at that attempt's timestamp, not at when
// an export last succeeded: attempts that keep failing keep the timestamp
// fresh and are reported as degraded, not unhealthy. Zero (the default)
// disables this check.
func WithUnhealthyAfter(d time.Duration) Option {
	return func(c *Collector) { c.unhealthyAfter = d }
}

// WithClockFunc overrides the time source, for deterministic tests.
func WithClockFunc(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// NewCollector builds a Collector over sampler and cardinality, both of
// which must already be wired into the running instrumentation layer.
func NewCollector(cfg observability.Config, sampler *observability.Sampler, cardinality *observability.CardinalityLimiter, opts ...Option) *Collector {
	c := &Collector{
		cfg:         cfg,
		sampler:     sampler,
		cardinality: cardinality,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect assembles a Snapshot of current subsystem health. It never
// blocks on anything but the caller-supplied ExporterProbe, and tolerates
// a nil probe, trace-queue callback, or last-export callback by omitting
// those readings.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	status := StatusHealthy
	var reasons []string

	rate := c.sampler.Rate()
	if c.cfg.Sampling.AdaptiveEnabled &&
		(rate < c.cfg.Sampling.AdaptiveMinRate || rate > c.cfg.Sampling.AdaptiveMaxRate) {
		status = worse(status, StatusUnhealthy)
		reasons = append(reasons, "sampling rate escaped its configured clamp bounds")
	}

	perMetric := make(map[string]MetricCardinality)
	for _, name := range c.cardinality.Metrics() {
		overflow := c.cardinality.OverflowCount(name)
		perMetric[name] = MetricCardinality{
			DistinctValues: c.cardinality.DistinctCount(name),
			OverflowCount:  overflow,
		}
		if overflow > 0 {
			status = worse(status, StatusDegraded)
			reasons = append(reasons, "metric \""+name+"\" is dropping or bucketing label tuples over its cardinality limit")
		}
	}

	tracing := TracingStatus{ExporterAttached: c.probe != nil || c.lastExport != nil}
	if c.traceQueueDepth != nil {
		tracing.QueueDepth = c.traceQueueDepth()
	}
	if c.lastExport != nil {
		at, ok := c.lastExport()
		tracing.LastExportAt = at
		tracing.LastExportOK = ok
		if !ok && !at.IsZero() {
			status = worse(status, StatusDegraded)
			reasons = append(reasons, "most recent trace export attempt failed")
		}
		if c.unhealthyAfter > 0 && !at.IsZero() && c.now().Sub(at) > c.unhealthyAfter {
			status = worse(status, StatusUnhealthy)
			reasons = append(reasons, "no successful trace export within the configured interval")
		}
	}
	if c.probe != nil {
		if err := c.probe(ctx); err != nil {
			status = worse(status, StatusUnhealthy)
			reasons = append(reasons, "exporter unreachable: "+err.Error())
		}
	}

	return Snapshot{
		Status:  status,
		Reasons: reasons,
		Sampling: SamplingStatus{
			EffectiveRate:     rate,
			AdaptiveEnabled:   c.cfg.Sampling.AdaptiveEnabled,
			RecentAdjustments: c.sampler.RecentAdjustments(),
		},
		Metrics: MetricsStatus{PerMetric: perMetric},
		Tracing: tracing,
	}
}
