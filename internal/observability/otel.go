package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"prepcoach/internal/config"
	"prepcoach/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultCollectionInterval = 15 * time.Second

// ObservabilityConfig is the flattened telemetry setup for one CLI run
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Tracing        bool
	Metrics        bool
	Prometheus     PrometheusConfig
}

// Metrics holds the instruments fed by the Recorder. Unset instruments are
// skipped when recording.
type Metrics struct {
	APIRequestDuration metric.Float64Histogram
	APIRequestCount    metric.Int64Counter
	APIErrorCount      metric.Int64Counter
	AuthRefreshCount   metric.Int64Counter

	SessionsStarted   metric.Int64Counter
	SessionsCompleted metric.Int64Counter
	InterviewScore    metric.Float64Histogram
	RoundsCompleted   metric.Int64Counter
	AnswersSubmitted  metric.Int64Counter

	PollAttempts  metric.Int64Counter
	PollsFinished metric.Int64Counter

	BreakerTransitions metric.Int64Counter
	ThrottleWait       metric.Float64Histogram
}

type counterDef struct {
	target      *metric.Int64Counter
	name        string
	description string
}

type histogramDef struct {
	target      *metric.Float64Histogram
	name        string
	description string
	unit        string
}

func (m *Metrics) counters() []counterDef {
	return []counterDef{
		{&m.APIRequestCount, "prepcoach_api_requests_total", "Backend API requests"},
		{&m.APIErrorCount, "prepcoach_api_errors_total", "Failed backend API requests"},
		{&m.AuthRefreshCount, "prepcoach_auth_refreshes_total", "Access token refresh attempts"},
		{&m.SessionsStarted, "prepcoach_interview_sessions_started_total", "Interview sessions started"},
		{&m.SessionsCompleted, "prepcoach_interview_sessions_completed_total", "Interview sessions that produced a report"},
		{&m.RoundsCompleted, "prepcoach_interview_rounds_completed_total", "Interview rounds completed"},
		{&m.AnswersSubmitted, "prepcoach_interview_answers_total", "Interview answers submitted"},
		{&m.PollAttempts, "prepcoach_resume_poll_attempts_total", "Resume analysis status checks"},
		{&m.PollsFinished, "prepcoach_resume_polls_finished_total", "Finished resume analysis waits by outcome"},
		{&m.BreakerTransitions, "prepcoach_circuit_breaker_transitions_total", "Circuit breaker state changes"},
	}
}

func (m *Metrics) histograms() []histogramDef {
	return []histogramDef{
		{&m.APIRequestDuration, "prepcoach_api_request_duration_seconds", "Time spent on backend API requests", "s"},
		{&m.InterviewScore, "prepcoach_interview_overall_score", "Overall score of completed interview sessions", ""},
		{&m.ThrottleWait, "prepcoach_throttle_wait_seconds", "Time requests waited on the client-side rate limiter", "s"},
	}
}

// newMetrics registers every instrument on meter
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	for _, c := range m.counters() {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}
	for _, h := range m.histograms() {
		opts := []metric.Float64HistogramOption{metric.WithDescription(h.description)}
		if h.unit != "" {
			opts = append(opts, metric.WithUnit(h.unit))
		}
		histogram, err := meter.Float64Histogram(h.name, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create histogram %s: %w", h.name, err)
		}
		*h.target = histogram
	}
	return m, nil
}

// ObservabilityManager owns the trace and meter providers of one CLI run
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	logger         *errors.Logger
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error

	extraReaders []sdkmetric.Reader
}

type Option func(*ObservabilityManager)

// WithReader attaches an additional metric reader
func WithReader(reader sdkmetric.Reader) Option {
	return func(om *ObservabilityManager) {
		om.extraReaders = append(om.extraReaders, reader)
	}
}

// WithLogger sets the logger used for exporter diagnostics
func WithLogger(logger *errors.Logger) Option {
	return func(om *ObservabilityManager) {
		om.logger = logger
	}
}

// NewObservabilityManager sets up tracing and metrics as configured. A
// disabled manager hands out a Recorder that records nothing.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config, opts ...Option) (*ObservabilityManager, error) {
	om := &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}
	for _, opt := range opts {
		opt(om)
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(obsConfig.ServiceName),
		semconv.ServiceVersion(obsConfig.ServiceVersion),
		attribute.String("service.instance.id", om.instanceID()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}
	om.resource = res

	if obsConfig.Tracing {
		if err := om.startTracing(); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if obsConfig.Metrics {
		if err := om.startMetrics(); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}
	return om, nil
}

func (om *ObservabilityManager) otlp() *config.OTLPConfig {
	if om.fullConfig == nil || !om.fullConfig.Observability.OTLP.Enabled {
		return nil
	}
	return &om.fullConfig.Observability.OTLP
}

// spanExporter picks the console, then OTLP, then a discarding exporter
func (om *ObservabilityManager) spanExporter() (trace.SpanExporter, error) {
	if om.config.ConsoleOutput {
		// stderr keeps command output on stdout clean
		opts := []stdouttrace.Option{stdouttrace.WithWriter(os.Stderr)}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	}
	if cfg := om.otlp(); cfg != nil {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(context.Background(), opts...)
	}
	return discardSpans{}, nil
}

func (om *ObservabilityManager) startTracing() error {
	exporter, err := om.spanExporter()
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

// metricReaders collects test, console, OTLP and Prometheus readers. A
// manual reader stands in when nothing is configured.
func (om *ObservabilityManager) metricReaders() ([]sdkmetric.Reader, error) {
	readers := append([]sdkmetric.Reader{}, om.extraReaders...)
	interval := om.collectionInterval()

	if om.config.ConsoleOutput {
		opts := []stdoutmetric.Option{stdoutmetric.WithWriter(os.Stderr)}
		if om.config.PrettyPrint {
			opts = append(opts, stdoutmetric.WithPrettyPrint())
		}
		exporter, err := stdoutmetric.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if cfg := om.otlp(); cfg != nil {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	promReader, stop, err := startPrometheus(om.config.Prometheus, om.logger)
	if err != nil {
		return nil, err
	}
	if promReader != nil {
		readers = append(readers, promReader)
		om.shutdownFuncs = append(om.shutdownFuncs, stop)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

func (om *ObservabilityManager) startMetrics() error {
	readers, err := om.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	om.metrics, err = newMetrics(mp.Meter(om.config.ServiceName))
	return err
}

// Recorder returns the event sink for the API client, interview store and
// resume poller
func (om *ObservabilityManager) Recorder() *Recorder {
	return newRecorder(om.metrics, recorderSettingsFrom(om.fullConfig))
}

// Tracer returns a no-op tracer while tracing is off
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes exporters in reverse start order and reports every failure
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(om.shutdownFuncs) - 1; i >= 0; i-- {
		if err := om.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	om.shutdownFuncs = nil
	return stderrors.Join(errs...)
}

type discardSpans struct{}

func (discardSpans) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (discardSpans) Shutdown(context.Context) error                          { return nil }

func (om *ObservabilityManager) instanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "prepcoach-" + host
	}
	return "prepcoach-1"
}

func (om *ObservabilityManager) collectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return defaultCollectionInterval
}
