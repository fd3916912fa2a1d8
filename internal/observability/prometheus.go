package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"prepcoach/internal/errors"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig controls the local scrape endpoint
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// startPrometheus registers an exporter on the default registry and serves it
// on loopback while the command runs. It returns a nil reader when disabled.
func startPrometheus(cfg PrometheusConfig, logger *errors.Logger) (sdkmetric.Reader, func(context.Context) error, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	path := cfg.Endpoint
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", cfg.Port))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen for Prometheus on port %s: %w", cfg.Port, err)
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Prometheus endpoint stopped")
		}
	}()
	logger.Info("Serving Prometheus metrics", "url", "http://"+listener.Addr().String()+path)

	stop := func(ctx context.Context) error {
		return server.Shutdown(ctx)
	}
	return exporter, stop, nil
}
