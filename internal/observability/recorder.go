package observability

import (
	"context"
	"strconv"
	"time"

	"prepcoach/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// recorderSettings mirrors the customMetrics switches
type recorderSettings struct {
	apiRequests   bool
	trackDuration bool
	business      bool
	rateLimits    bool
	breaker       bool
}

func recorderSettingsFrom(cfg *config.Config) recorderSettings {
	if cfg == nil {
		return recorderSettings{apiRequests: true, trackDuration: true, business: true, rateLimits: true, breaker: true}
	}
	custom := cfg.Observability.CustomMetrics
	infra := custom.Infrastructure
	return recorderSettings{
		apiRequests:   custom.APIRequests.Enabled,
		trackDuration: custom.APIRequests.TrackDuration,
		business:      custom.BusinessMetrics.Enabled,
		rateLimits:    infra.Enabled && infra.TrackRateLimits,
		breaker:       infra.Enabled && infra.TrackCircuitBreaker,
	}
}

// Recorder turns client, interview and polling events into metrics. Every
// method is a no-op for instruments that were never created.
type Recorder struct {
	m        *Metrics
	settings recorderSettings
}

func newRecorder(m *Metrics, settings recorderSettings) *Recorder {
	if m == nil {
		m = &Metrics{}
	}
	return &Recorder{m: m, settings: settings}
}

// RequestFinished records one backend call
func (r *Recorder) RequestFinished(ctx context.Context, name, method string, status int, duration time.Duration, err error) {
	if !r.settings.apiRequests {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("request", name),
		attribute.String("method", method),
		attribute.String("status", strconv.Itoa(status)),
		attribute.Bool("success", err == nil),
	)
	if r.m.APIRequestCount != nil {
		r.m.APIRequestCount.Add(ctx, 1, attrs)
	}
	if err != nil && r.m.APIErrorCount != nil {
		r.m.APIErrorCount.Add(ctx, 1, attrs)
	}
	if r.settings.trackDuration && r.m.APIRequestDuration != nil {
		r.m.APIRequestDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RefreshAttempted records a token refresh
func (r *Recorder) RefreshAttempted(ctx context.Context, success bool) {
	if !r.settings.apiRequests || r.m.AuthRefreshCount == nil {
		return
	}
	r.m.AuthRefreshCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// BreakerStateChanged records a circuit breaker transition
func (r *Recorder) BreakerStateChanged(from, to string) {
	if !r.settings.breaker || r.m.BreakerTransitions == nil {
		return
	}
	r.m.BreakerTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// Throttled records time spent waiting on the client-side limiter
func (r *Recorder) Throttled(ctx context.Context, group string, wait time.Duration) {
	if !r.settings.rateLimits || r.m.ThrottleWait == nil {
		return
	}
	r.m.ThrottleWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.String("group", group)))
}

// SessionStarted records a new interview session
func (r *Recorder) SessionStarted(ctx context.Context, mode string) {
	if !r.settings.business || r.m.SessionsStarted == nil {
		return
	}
	r.m.SessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// AnswerSubmitted records an evaluated answer
func (r *Recorder) AnswerSubmitted(ctx context.Context, round string, followUp bool, score float64) {
	if !r.settings.business || r.m.AnswersSubmitted == nil {
		return
	}
	r.m.AnswersSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("round", round),
		attribute.Bool("follow_up", followUp),
	))
}

// RoundCompleted records a finished round
func (r *Recorder) RoundCompleted(ctx context.Context, round string) {
	if !r.settings.business || r.m.RoundsCompleted == nil {
		return
	}
	r.m.RoundsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("round", round)))
}

// SessionCompleted records a session that produced its report
func (r *Recorder) SessionCompleted(ctx context.Context, overallScore float64) {
	if !r.settings.business {
		return
	}
	if r.m.SessionsCompleted != nil {
		r.m.SessionsCompleted.Add(ctx, 1)
	}
	if r.m.InterviewScore != nil {
		r.m.InterviewScore.Record(ctx, overallScore)
	}
}

// PollAttempted records one analysis status check
func (r *Recorder) PollAttempted(ctx context.Context, ready bool) {
	if !r.settings.business || r.m.PollAttempts == nil {
		return
	}
	r.m.PollAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ready", ready)))
}

// PollFinished records how an analysis wait ended
func (r *Recorder) PollFinished(ctx context.Context, outcome string, attempts int) {
	if !r.settings.business || r.m.PollsFinished == nil {
		return
	}
	r.m.PollsFinished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("first_attempt", attempts <= 1),
	))
}
