package observability

import (
	"prepcoach/internal/config"
)

// GetObservabilityConfig flattens the observability section of cfg. The
// tracing sample rate overrides the global one when set to anything but 1.
// Without a config telemetry stays off.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "prepcoach",
			ServiceVersion: version,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Prometheus:     PrometheusConfig{Endpoint: "/metrics", Port: "9464"},
		}
	}

	o := cfg.Observability
	out := ObservabilityConfig{
		ServiceName:    o.ServiceName,
		ServiceVersion: o.ServiceVersion,
		Enabled:        o.Enabled,
		ConsoleOutput:  o.ConsoleOutput || o.Console.Enabled,
		PrettyPrint:    o.Console.PrettyPrint,
		SampleRate:     o.SampleRate,
		Tracing:        o.Tracing.Enabled,
		Metrics:        o.Metrics.Enabled,
		Prometheus: PrometheusConfig{
			Enabled:  o.Prometheus.Enabled,
			Endpoint: o.Prometheus.Endpoint,
			Port:     o.Prometheus.Port,
		},
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = version
	}
	if rate := o.Tracing.SampleRate; rate > 0 && rate != 1.0 {
		out.SampleRate = rate
	}
	return out
}
