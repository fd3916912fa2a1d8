package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks fills in values derived from other settings
func (c *Config) applyFallbacks() {
	c.applyStorageDefaults()
	c.applyTLSDefaults()
	c.applyInterviewDefaults()
	c.applyObservabilityDefaults()
}

// applyStorageDefaults resolves the mirror directory
func (c *Config) applyStorageDefaults() {
	if c.Storage.Dir != "" {
		return
	}
	if dir, err := os.UserConfigDir(); err == nil {
		c.Storage.Dir = filepath.Join(dir, "prepcoach")
		return
	}
	c.Storage.Dir = ".prepcoach"
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.API.TLS.Mode == "" {
		c.API.TLS.Mode = "system"
	}
	if c.API.TLS.MinVersion == "" {
		c.API.TLS.MinVersion = "1.2"
	}
}

// applyInterviewDefaults normalises round names
func (c *Config) applyInterviewDefaults() {
	for i, round := range c.Interview.RoundOrder {
		c.Interview.RoundOrder[i] = strings.ToLower(strings.TrimSpace(round))
	}
	c.Interview.Mode = strings.ToLower(strings.TrimSpace(c.Interview.Mode))
}

// applyObservabilityDefaults names this process in exported telemetry
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance != "" {
		return
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "1"
	}
	c.Observability.ServiceInstance = c.Observability.ServiceName + "-" + host
}

// sourceEnvVars are reported by --verbose when set
var sourceEnvVars = []string{
	"API_BASEURL",
	"AUTH_EMAIL",
	"AUTH_PASSWORD",
	"AUTH_TOKEN",
	"APP_LOGLEVEL",
	"STORAGE_DIR",
	"VAULT_ENABLED",
}

// logConfigurationSources prints where the effective configuration came from
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed == "" {
		configFileUsed = "none, using defaults"
	}
	log.Printf("[CONFIG] config file: %s", configFileUsed)

	for _, suffix := range sourceEnvVars {
		name := EnvPrefix + "_" + suffix
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if isSensitiveEnv(name) {
			value = "***"
		}
		log.Printf("[CONFIG] env %s=%s", name, value)
	}

	credentials := "not set"
	if c.Auth.Password != "" || c.Auth.Token != "" {
		credentials = "configured"
	}
	for _, kv := range [][2]string{
		{"api", fmt.Sprintf("%s (timeout %s, tls %s)", c.API.BaseURL, c.API.Timeout, c.API.TLS.Mode)},
		{"credentials", credentials},
		{"storage", c.Storage.Dir},
		{"interview", fmt.Sprintf("%s mode, rounds %s", c.Interview.Mode, strings.Join(c.Interview.RoundOrder, ", "))},
		{"resume polling", fmt.Sprintf("every %s, up to %d attempts", c.Resume.PollInterval, c.Resume.MaxPollAttempts)},
		{"log level", c.App.LogLevel},
		{"vault", fmt.Sprintf("%t", c.Vault.Enabled)},
		{"telemetry", fmt.Sprintf("%t", c.Observability.Enabled)},
	} {
		log.Printf("[CONFIG] %s: %s", kv[0], kv[1])
	}
}

func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"password", "token", "key"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
