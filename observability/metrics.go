package observability

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector accumulates the instrumentation layer's standard
// metrics (invocation counts, success/failure counts, and execution
// durations) keyed by primitive name, with every label value passed
// through a CardinalityLimiter before it is recorded. Snapshot drains
// nothing; it copies the current state into a MetricSnapshot for a
// MetricExporter to ship at the configured cadence.
type MetricsCollector struct {
	mu      sync.Mutex
	limiter *CardinalityLimiter

	invocations map[string]int64 // primitive -> count
	failures    map[string]int64
	durationSum map[string]float64 // primitive -> total ms
	errorKinds  map[string]int64   // primitive\x00kind -> count
}

// NewMetricsCollector builds a collector bounding label cardinality with
// limiter. A nil limiter records labels unbounded; production callers
// should always supply one.
func NewMetricsCollector(limiter *CardinalityLimiter) *MetricsCollector {
	return &MetricsCollector{
		limiter:     limiter,
		invocations: make(map[string]int64),
		failures:    make(map[string]int64),
		durationSum: make(map[string]float64),
		errorKinds:  make(map[string]int64),
	}
}

// Record registers one completed execution of primitive: its duration, and
// on failure the classified error kind. Cancelled executions should pass
// errorKind "cancelled"; they are counted under that kind, separately from
// other failures.
func (m *MetricsCollector) Record(primitive string, duration time.Duration, errorKind string) {
	name := primitive
	if m.limiter != nil {
		name = m.limiter.Observe("workflow_invocations_total", primitive)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.invocations[name]++
	m.durationSum[name] += float64(duration.Microseconds()) / 1000.0
	if errorKind != "" {
		m.failures[name]++
		m.errorKinds[name+"\x00"+errorKind]++
	}
}

// Snapshot copies the collector's current state into a MetricSnapshot.
func (m *MetricsCollector) Snapshot() MetricSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var points []MetricPoint
	for name, count := range m.invocations {
		points = append(points, MetricPoint{
			Name:   "workflow_invocations_total",
			Value:  float64(count),
			Labels: map[string]string{"primitive": name},
		})
		points = append(points, MetricPoint{
			Name:   "workflow_duration_ms_sum",
			Value:  m.durationSum[name],
			Labels: map[string]string{"primitive": name},
		})
		if failed := m.failures[name]; failed > 0 {
			points = append(points, MetricPoint{
				Name:   "workflow_failures_total",
				Value:  float64(failed),
				Labels: map[string]string{"primitive": name},
			})
		}
	}
	for key, count := range m.errorKinds {
		for i := 0; i < len(key); i++ {
			if key[i] == 0 {
				points = append(points, MetricPoint{
					Name:   "workflow_errors_total",
					Value:  float64(count),
					Labels: map[string]string{"primitive": key[:i], "error_kind": key[i+1:]},
				})
				break
			}
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return points[i].Labels["primitive"] < points[j].Labels["primitive"]
	})

	return MetricSnapshot{Timestamp: time.Now(), Points: points}
}
