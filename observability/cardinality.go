package observability

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// CardinalityLimiter bounds the number of distinct label values recorded per
// metric, guarding against unbounded memory growth when a label is fed a
// high-cardinality value (a user ID, a raw error message) instead of a
// bounded one.
type CardinalityLimiter struct {
	mu       sync.RWMutex
	cfg      MetricsConfig
	seen     map[string]map[string]struct{}
	overflow map[string]int64
}

// NewCardinalityLimiter builds a CardinalityLimiter from cfg.
func NewCardinalityLimiter(cfg MetricsConfig) *CardinalityLimiter {
	return &CardinalityLimiter{
		cfg:      cfg,
		seen:     make(map[string]map[string]struct{}),
		overflow: make(map[string]int64),
	}
}

// Observe records value as a label value for metric and returns the value
// to actually attach to the recorded metric. Once a metric has seen
// MaxLabelValues distinct values, further unseen values are either hashed
// into a fixed-width bucket (HashHighCardinality) or collapsed to the
// literal "overflow" label, and the overflow count for that metric is
// incremented so operators can detect the condition without it silently
// inflating cardinality forever.
func (l *CardinalityLimiter) Observe(metric, value string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	values, ok := l.seen[metric]
	if !ok {
		values = make(map[string]struct{})
		l.seen[metric] = values
	}

	if _, ok := values[value]; ok {
		return value
	}

	if len(values) < l.cfg.MaxLabelValues {
		values[value] = struct{}{}
		return value
	}

	l.overflow[metric]++
	if l.cfg.HashHighCardinality {
		return bucketLabel(value, l.cfg.MaxLabelValues)
	}
	return "overflow"
}

// OverflowCount returns how many Observe calls for metric have exceeded
// MaxLabelValues since the limiter was created.
func (l *CardinalityLimiter) OverflowCount(metric string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.overflow[metric]
}

// DistinctCount returns how many distinct label values have been recorded
// for metric so far.
func (l *CardinalityLimiter) DistinctCount(metric string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen[metric])
}

// Metrics returns the names of every metric the limiter has observed at
// least one value for, for health reporting.
func (l *CardinalityLimiter) Metrics() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.seen))
	for name := range l.seen {
		names = append(names, name)
	}
	return names
}

func bucketLabel(value string, buckets int) string {
	if buckets <= 0 {
		buckets = 1
	}
	h := fnv.New32a()
	h.Write([]byte(value))
	return fmt.Sprintf("bucket_%d", h.Sum32()%uint32(buckets))
}
