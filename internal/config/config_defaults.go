package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// API Configuration
	v.SetDefault("api.baseURL", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.userAgent", "prepcoach")

	// TLS Configuration defaults
	v.SetDefault("api.tls.mode", "system") // system, custom, mutual
	v.SetDefault("api.tls.certFile", "")
	v.SetDefault("api.tls.keyFile", "")
	v.SetDefault("api.tls.caFile", "")
	v.SetDefault("api.tls.minVersion", "1.2")
	v.SetDefault("api.tls.insecureSkipVerify", false)
	v.SetDefault("api.tls.serverName", "")

	// Circuit Breaker Configuration defaults
	v.SetDefault("api.circuitBreaker.enabled", true)
	v.SetDefault("api.circuitBreaker.maxRequests", 3)
	v.SetDefault("api.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("api.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("api.circuitBreaker.minRequests", 5)
	v.SetDefault("api.circuitBreaker.failureThreshold", 0.6)

	// Rate limiting defaults
	v.SetDefault("api.rateLimit.enabled", true)
	v.SetDefault("api.rateLimit.requestsPerMin", 120)
	v.SetDefault("api.rateLimit.burstCapacity", 10)

	// Auth Configuration
	v.SetDefault("auth.email", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.token", "")

	// Storage Configuration
	v.SetDefault("storage.dir", "") // Resolved to the user config dir if empty
	v.SetDefault("storage.watch.enabled", true)
	v.SetDefault("storage.watch.debounceDelay", 250*time.Millisecond)

	// Interview Configuration
	v.SetDefault("interview.mode", "full")
	v.SetDefault("interview.roundOrder", []string{"formal_qa", "technical", "coding", "system_design", "hr"})
	v.SetDefault("interview.questionCeilings", map[string]int{
		"formal_qa":     5,
		"technical":     5,
		"coding":        2,
		"system_design": 3,
		"hr":            5,
	})

	// Resume Configuration
	v.SetDefault("resume.pollInterval", 5*time.Second)
	v.SetDefault("resume.maxPollAttempts", 720) // One hour at the default interval
	v.SetDefault("resume.maxFileSize", 5*1024*1024)
	v.SetDefault("resume.allowedExtensions", []string{".pdf", ".docx", ".txt", ".md"})
	v.SetDefault("resume.experienceLevel", "mid")

	// App Configuration
	v.SetDefault("app.logLevel", "warn")
	v.SetDefault("app.logFile", "")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "yaml", "html"})
	v.SetDefault("app.accessible", false)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.credentials", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "prepcoach")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.apiRequests.enabled", true)
	v.SetDefault("observability.customMetrics.apiRequests.trackDuration", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCircuitBreaker", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9464")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
