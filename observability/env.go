package observability

import (
	"os"
	"strconv"
)

const (
	envVarEnvironment     = "WORKFLOWCORE_ENV"
	envVarServiceName     = "WORKFLOWCORE_SERVICE_NAME"
	envVarServiceVersion  = "WORKFLOWCORE_SERVICE_VERSION"
	envVarSamplingRate    = "WORKFLOWCORE_SAMPLING_RATE"
)

// ConfigFromEnv builds a Config from WORKFLOWCORE_* environment variables,
// falling back to LoadDefaults(EnvironmentDevelopment) for anything unset.
// This is the zero-file path for processes that configure observability
// purely through their deployment environment; no config file is required
// to run with sane defaults.
func ConfigFromEnv() Config {
	env := Environment(os.Getenv(envVarEnvironment))
	if env == "" {
		env = EnvironmentDevelopment
	}

	cfg := LoadDefaults(env)

	attrs := map[string]string{}
	if name := os.Getenv(envVarServiceName); name != "" {
		attrs["service.name"] = name
	}
	if version := os.Getenv(envVarServiceVersion); version != "" {
		attrs["service.version"] = version
	}
	if len(attrs) > 0 {
		cfg.ResourceAttributes = attrs
	}

	if rate := os.Getenv(envVarSamplingRate); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Sampling.DefaultRate = parsed
		}
	}

	return cfg
}
