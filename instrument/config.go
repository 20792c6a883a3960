package instrument

// Config controls how Wrap instruments a primitive.
type Config struct {
	// Observer names a registered observability.Observer ("noop", "slog",
	// or anything added via observability.RegisterObserver).
	Observer string `json:"observer"`

	// CaptureMetadataNil controls whether WorkflowContext metadata is
	// attached to emitted events. Use CaptureMetadata() to read; nil
	// defaults to false since metadata may carry sensitive values.
	CaptureMetadataNil *bool `json:"capture_metadata,omitempty"`
}

func (c Config) CaptureMetadata() bool {
	if c.CaptureMetadataNil == nil {
		return false
	}
	return *c.CaptureMetadataNil
}

// DefaultConfig returns the default instrumentation configuration: slog
// observer, metadata capture disabled.
func DefaultConfig() Config {
	return Config{Observer: "slog"}
}

func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.CaptureMetadataNil != nil {
		c.CaptureMetadataNil = source.CaptureMetadataNil
	}
}
