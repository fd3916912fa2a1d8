package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable the tool reads
const EnvPrefix = "PREPCOACH"

// Config holds all application configuration
// Credential Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (PREPCOACH_AUTH_EMAIL, etc.), including a local .env file
// 4. Default values - Lowest priority
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Interview     InterviewConfig     `mapstructure:"interview"`
	Resume        ResumeConfig        `mapstructure:"resume"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// APIConfig holds settings for the remote career-prep backend
type APIConfig struct {
	BaseURL        string               `mapstructure:"baseURL"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	UserAgent      string               `mapstructure:"userAgent"`
	TLS            TLSConfig            `mapstructure:"tls"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rateLimit"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// RateLimitConfig holds client-side request throttling configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable throttling
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
}

// AuthConfig holds login credentials and session handling
type AuthConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"` // Optional bearer token sent alongside cookies
}

// StorageConfig holds the location of the local session mirror
type StorageConfig struct {
	Dir   string      `mapstructure:"dir"`
	Watch WatchConfig `mapstructure:"watch"`
}

// WatchConfig holds configuration for watching the mirror for changes
type WatchConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// InterviewConfig holds round sequencing settings
type InterviewConfig struct {
	Mode             string         `mapstructure:"mode"`
	RoundOrder       []string       `mapstructure:"roundOrder"`
	QuestionCeilings map[string]int `mapstructure:"questionCeilings"`
}

// ResumeConfig holds resume upload and polling settings
type ResumeConfig struct {
	PollInterval      time.Duration `mapstructure:"pollInterval"`
	MaxPollAttempts   int           `mapstructure:"maxPollAttempts"`
	MaxFileSize       int64         `mapstructure:"maxFileSize"`
	AllowedExtensions []string      `mapstructure:"allowedExtensions"`
	ExperienceLevel   string        `mapstructure:"experienceLevel"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	LogFile          string   `mapstructure:"logFile"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	Accessible       bool     `mapstructure:"accessible"` // Plain prompts instead of full-screen forms
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	APIRequests     APIRequestMetricsConfig     `mapstructure:"apiRequests"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// APIRequestMetricsConfig holds backend request metrics configuration
type APIRequestMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
}

// BusinessMetricsConfig holds interview and resume metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	TrackRateLimits     bool `mapstructure:"trackRateLimits"`
	TrackCircuitBreaker bool `mapstructure:"trackCircuitBreaker"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadOptions control where configuration is read from
type LoadOptions struct {
	ConfigFile string // Explicit config file, skips the search paths
	EnvFile    string // .env file, defaults to ".env" in the working directory
	Verbose    bool   // Log the configuration sources to stderr
	Overrides  map[string]any
}

// LoadConfig loads configuration from a .env file, environment variables and a config file
func LoadConfig(opts LoadOptions) (*Config, error) {
	logf := func(format string, args ...any) {
		if opts.Verbose {
			log.Printf("[CONFIG] "+format, args...)
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()

	setDefaults(v)
	logf("Applied default configuration values")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	logf("Configured environment variable handling with prefix '%s'", EnvPrefix)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/prepcoach/")
		v.AddConfigPath("$HOME/.prepcoach")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || opts.ConfigFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logf("No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		logf("Successfully loaded config file: %s", configFileUsed)
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if opts.Verbose {
		config.logConfigurationSources(configFileUsed)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from a .env file without overriding the real environment
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required (set %s_API_BASEURL environment variable)", EnvPrefix)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("API base URL must start with http:// or https://: %s", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	if c.Resume.PollInterval <= 0 {
		return fmt.Errorf("resume poll interval must be positive")
	}
	if c.Resume.MaxPollAttempts <= 0 {
		return fmt.Errorf("resume max poll attempts must be positive")
	}

	if err := c.validateInterview(); err != nil {
		return err
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func (c *Config) validateInterview() error {
	switch c.Interview.Mode {
	case "full", "specific":
	default:
		return fmt.Errorf("invalid interview mode: %s (must be 'full' or 'specific')", c.Interview.Mode)
	}
	if len(c.Interview.RoundOrder) == 0 {
		return fmt.Errorf("interview round order must not be empty")
	}
	seen := make(map[string]bool, len(c.Interview.RoundOrder))
	for _, round := range c.Interview.RoundOrder {
		if seen[round] {
			return fmt.Errorf("interview round order lists %s twice", round)
		}
		seen[round] = true
	}
	for round, ceiling := range c.Interview.QuestionCeilings {
		if ceiling <= 0 {
			return fmt.Errorf("question ceiling for %s must be positive", round)
		}
	}
	return nil
}
