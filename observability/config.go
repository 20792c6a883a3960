package observability

import (
	"encoding/json"
	"fmt"
	"os"
)

// Environment identifies the deployment tier a Config targets. Each tier
// carries a different set of recommended defaults via LoadDefaults.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// SamplingConfig controls head and tail sampling decisions.
type SamplingConfig struct {
	// DefaultRate is the head-sampling probability in [0,1] applied to traces
	// that carry no other reason to be sampled.
	DefaultRate float64 `json:"default_rate"`

	// AlwaysSampleErrors forces tail-sampling of any trace containing a
	// failed span, regardless of the head decision.
	AlwaysSampleErrors bool `json:"always_sample_errors"`

	// AlwaysSampleSlow forces tail-sampling of traces in which any one
	// instrumented primitive's duration exceeds SlowThresholdMS.
	AlwaysSampleSlow bool  `json:"always_sample_slow"`
	SlowThresholdMS  int64 `json:"slow_threshold_ms"`

	// AdaptiveEnabled turns on closed-loop rate adjustment targeting
	// AdaptiveTargetOverhead, bounded by [AdaptiveMinRate, AdaptiveMaxRate].
	AdaptiveEnabled           bool    `json:"adaptive_enabled"`
	AdaptiveTargetOverhead    float64 `json:"adaptive_target_overhead"`
	AdaptiveMinRate           float64 `json:"adaptive_min_rate"`
	AdaptiveMaxRate           float64 `json:"adaptive_max_rate"`
	AdjustmentIntervalSeconds int     `json:"adjustment_interval_seconds"`
}

// DefaultSamplingConfig returns conservative defaults: 10% head sampling,
// errors and slow traces always kept.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		DefaultRate:               0.10,
		AlwaysSampleErrors:        true,
		AlwaysSampleSlow:          true,
		SlowThresholdMS:           1000,
		AdaptiveEnabled:           false,
		AdaptiveTargetOverhead:    0.02,
		AdaptiveMinRate:           0.01,
		AdaptiveMaxRate:           1.0,
		AdjustmentIntervalSeconds: 60,
	}
}

func (c *SamplingConfig) Merge(source *SamplingConfig) {
	if source.DefaultRate > 0 {
		c.DefaultRate = source.DefaultRate
	}
	if source.AlwaysSampleErrors {
		c.AlwaysSampleErrors = source.AlwaysSampleErrors
	}
	if source.AlwaysSampleSlow {
		c.AlwaysSampleSlow = source.AlwaysSampleSlow
	}
	if source.SlowThresholdMS > 0 {
		c.SlowThresholdMS = source.SlowThresholdMS
	}
	if source.AdaptiveEnabled {
		c.AdaptiveEnabled = source.AdaptiveEnabled
	}
	if source.AdaptiveTargetOverhead > 0 {
		c.AdaptiveTargetOverhead = source.AdaptiveTargetOverhead
	}
	if source.AdaptiveMinRate > 0 {
		c.AdaptiveMinRate = source.AdaptiveMinRate
	}
	if source.AdaptiveMaxRate > 0 {
		c.AdaptiveMaxRate = source.AdaptiveMaxRate
	}
	if source.AdjustmentIntervalSeconds > 0 {
		c.AdjustmentIntervalSeconds = source.AdjustmentIntervalSeconds
	}
}

// MetricsConfig bounds label cardinality.
type MetricsConfig struct {
	MaxLabelValues        int  `json:"max_label_values"`
	HashHighCardinality    bool `json:"hash_high_cardinality"`
	ExportIntervalSeconds int  `json:"export_interval_seconds"`
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MaxLabelValues:        200,
		HashHighCardinality:    true,
		ExportIntervalSeconds: 15,
	}
}

func (c *MetricsConfig) Merge(source *MetricsConfig) {
	if source.MaxLabelValues > 0 {
		c.MaxLabelValues = source.MaxLabelValues
	}
	if source.HashHighCardinality {
		c.HashHighCardinality = source.HashHighCardinality
	}
	if source.ExportIntervalSeconds > 0 {
		c.ExportIntervalSeconds = source.ExportIntervalSeconds
	}
}

// TracingConfig controls span batching for export.
type TracingConfig struct {
	BatchSize int `json:"batch_size"`
}

func DefaultTracingConfig() TracingConfig {
	return TracingConfig{BatchSize: 256}
}

func (c *TracingConfig) Merge(source *TracingConfig) {
	if source.BatchSize > 0 {
		c.BatchSize = source.BatchSize
	}
}

// StorageConfig controls retention of exported telemetry.
type StorageConfig struct {
	TraceTTLDays         int  `json:"trace_ttl_days"`
	MetricTTLDays        int  `json:"metric_ttl_days"`
	CompressionEnabled   bool `json:"compression_enabled"`
	CompressionLevelNil  *int `json:"compression_level,omitempty"`
}

// CompressionLevel returns the configured gzip level, defaulting to 6 when
// unset. The pointer distinguishes "unset" from an explicit 0 (no
// compression), mirroring the nil-bool convention used elsewhere for
// distinguishing absence from zero value.
func (c *StorageConfig) CompressionLevel() int {
	if c.CompressionLevelNil == nil {
		return 6
	}
	return *c.CompressionLevelNil
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		TraceTTLDays:       7,
		MetricTTLDays:      30,
		CompressionEnabled: true,
	}
}

func (c *StorageConfig) Merge(source *StorageConfig) {
	if source.TraceTTLDays > 0 {
		c.TraceTTLDays = source.TraceTTLDays
	}
	if source.MetricTTLDays > 0 {
		c.MetricTTLDays = source.MetricTTLDays
	}
	if source.CompressionEnabled {
		c.CompressionEnabled = source.CompressionEnabled
	}
	if source.CompressionLevelNil != nil {
		c.CompressionLevelNil = source.CompressionLevelNil
	}
}

// Config aggregates every production-safety knob for the observability
// subsystem. ResourceAttributes carries service identity (name,
// version, deployment environment) attached to every exported span and
// metric.
type Config struct {
	Environment        Environment       `json:"environment"`
	Sampling           SamplingConfig    `json:"sampling"`
	Metrics            MetricsConfig     `json:"metrics"`
	Tracing            TracingConfig     `json:"tracing"`
	Storage            StorageConfig     `json:"storage"`
	ResourceAttributes map[string]string `json:"resource_attributes,omitempty"`
}

// DefaultConfig returns a Config with sensible production-safe defaults for
// every subsystem.
func DefaultConfig() Config {
	return Config{
		Environment: EnvironmentDevelopment,
		Sampling:    DefaultSamplingConfig(),
		Metrics:     DefaultMetricsConfig(),
		Tracing:     DefaultTracingConfig(),
		Storage:     DefaultStorageConfig(),
	}
}

// LoadDefaults returns recommended defaults tuned for env. Production trades
// sampling volume for lower overhead; development samples everything so
// local runs never miss a trace.
func LoadDefaults(env Environment) Config {
	cfg := DefaultConfig()
	cfg.Environment = env

	switch env {
	case EnvironmentProduction:
		cfg.Sampling.DefaultRate = 0.05
		cfg.Sampling.AdaptiveEnabled = true
	case EnvironmentStaging:
		cfg.Sampling.DefaultRate = 0.25
	case EnvironmentDevelopment:
		cfg.Sampling.DefaultRate = 1.0
		cfg.Sampling.AlwaysSampleSlow = false
	}

	return cfg
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Sampling.Merge(&source.Sampling)
	c.Metrics.Merge(&source.Metrics)
	c.Tracing.Merge(&source.Tracing)
	c.Storage.Merge(&source.Storage)

	if source.Environment != "" {
		c.Environment = source.Environment
	}
	if len(source.ResourceAttributes) > 0 {
		if c.ResourceAttributes == nil {
			c.ResourceAttributes = make(map[string]string, len(source.ResourceAttributes))
		}
		for k, v := range source.ResourceAttributes {
			c.ResourceAttributes[k] = v
		}
	}
}

// LoadConfig reads a JSON config file, merges it with env-appropriate
// defaults, and returns the resulting Config.
func LoadConfig(filename string, env Environment) (*Config, error) {
	cfg := LoadDefaults(env)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read observability config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse observability config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
