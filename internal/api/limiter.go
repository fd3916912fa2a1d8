package api

import (
	"context"
	"sync"
	"time"

	"prepcoach/internal/config"
	"prepcoach/internal/errors"

	"golang.org/x/time/rate"
)

// LimiterManager throttles outgoing requests with one token bucket per
// endpoint group, so a tight polling loop cannot starve interactive calls.
// A nil *LimiterManager never throttles.
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   *errors.Logger
	observer Observer
}

// NewLimiterManager creates a manager, or nil when throttling is disabled.
// requestsPerMin is the number of requests allowed per minute per group.
func NewLimiterManager(cfg config.RateLimitConfig, logger *errors.Logger, observer Observer) *LimiterManager {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return nil
	}
	burst := cfg.BurstCapacity
	if burst <= 0 {
		burst = 1
	}
	return &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(cfg.RequestsPerMin) / 60.0),
		burst:    burst,
		logger:   logger,
		observer: observer,
	}
}

// GetLimiter retrieves or creates a limiter for a given key.
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	return limiter
}

// Wait blocks until a request for key may proceed or ctx is done
func (m *LimiterManager) Wait(ctx context.Context, key string) error {
	if m == nil {
		return nil
	}
	limiter := m.GetLimiter(key)
	if limiter.Allow() {
		return nil
	}

	start := time.Now()
	m.logger.Debug("Request throttled", "group", key)
	if err := limiter.Wait(ctx); err != nil {
		return errors.NewNetworkError(errors.ErrCodeRateLimited, "request cancelled while throttled", err).
			WithContext("group", key)
	}
	if m.observer != nil {
		m.observer.Throttled(ctx, key, time.Since(start))
	}
	return nil
}

// GetStats returns current limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	if m == nil {
		return map[string]any{"enabled": false}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"enabled":         true,
		"active_limiters": len(m.limiters),
		"rate_per_second": float64(m.rate),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}
