package api

import (
	"context"
	stderrors "errors"
	"fmt"

	"prepcoach/internal/config"
	"prepcoach/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps backend calls with the circuit breaker pattern.
// A nil *CircuitBreaker executes calls directly.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Response]
}

// NewCircuitBreaker creates a circuit breaker for backend requests. It
// returns nil when the breaker is disabled.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger, observer Observer) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "backend-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
			if observer != nil {
				observer.BreakerStateChanged(from.String(), to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*Response](settings),
	}
}

// Execute executes the provided function with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() (*Response, error)) (*Response, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	resp, err := cb.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewNetworkError(errors.ErrCodeCircuitOpen,
			"the server is failing repeatedly, try again shortly", err)
	}
	return resp, err
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}

// countsAsFailure reports whether err says the backend is unhealthy.
// Client errors and cancellations are the caller's problem, not the server's.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var serverErr *serverStatusError
	if stderrors.As(err, &serverErr) {
		return true
	}
	return errors.IsType(err, errors.ErrorTypeNetwork)
}

// serverStatusError marks a 5xx response so the breaker can count it
type serverStatusError struct {
	status int
}

func (e *serverStatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.status)
}
