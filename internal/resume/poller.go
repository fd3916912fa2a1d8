package resume

import (
	"context"
	"fmt"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

// Default polling cadence: every five seconds for up to an hour
const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 720
)

// Fetcher reads the current state of an analysis
type Fetcher interface {
	GetAnalysis(ctx context.Context, id string) (*types.ResumeAnalysis, error)
}

// PollMetrics receives polling events
type PollMetrics interface {
	PollAttempted(ctx context.Context, ready bool)
	PollFinished(ctx context.Context, outcome string, attempts int)
}

// Poll outcomes reported to PollMetrics
const (
	OutcomeReady     = "ready"
	OutcomeAbandoned = "abandoned"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// PollOptions configures a Poller
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// KeepWaiting is asked when MaxAttempts is reached. Returning true starts
	// a fresh batch of attempts; nil or false abandons the wait.
	KeepWaiting func(ctx context.Context, attempts int) bool
	// OnAttempt is called after every status check
	OnAttempt func(attempt, maxAttempts int)
	Logger    *errors.Logger
	Metrics   PollMetrics
}

// Poller waits for an asynchronous analysis to produce results
type Poller struct {
	fetcher Fetcher
	opts    PollOptions
}

// NewPoller creates a poller with defaults for unset options
func NewPoller(fetcher Fetcher, opts PollOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxPollAttempts
	}
	return &Poller{fetcher: fetcher, opts: opts}
}

// Wait returns analysis immediately when it already carries results and
// polls for it otherwise
func (p *Poller) Wait(ctx context.Context, analysis *types.ResumeAnalysis) (*types.ResumeAnalysis, error) {
	if analysis.Ready() {
		return analysis, nil
	}
	if analysis.Failed() {
		p.finished(ctx, OutcomeFailed, 0)
		return nil, analysisFailed(analysis.ID, analysis.Status)
	}
	if analysis == nil || analysis.ID == "" {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the analysis has neither results nor an id to poll", nil)
	}
	return p.Poll(ctx, analysis.ID)
}

// Poll checks the analysis every interval until a result field appears. Network
// failures count as attempts; any other error ends polling.
func (p *Poller) Poll(ctx context.Context, id string) (*types.ResumeAnalysis, error) {
	timer := time.NewTimer(p.opts.Interval)
	defer timer.Stop()

	total, attempt := 0, 0
	for {
		if ctx.Err() != nil {
			p.finished(ctx, OutcomeCancelled, total)
			return nil, ctx.Err()
		}
		select {
		case <-ctx.Done():
			p.finished(ctx, OutcomeCancelled, total)
			return nil, ctx.Err()
		case <-timer.C:
		}

		total++
		attempt++
		analysis, err := p.fetcher.GetAnalysis(ctx, id)
		ready := err == nil && analysis.Ready()
		if p.opts.Metrics != nil {
			p.opts.Metrics.PollAttempted(ctx, ready)
		}
		if p.opts.OnAttempt != nil {
			p.opts.OnAttempt(attempt, p.opts.MaxAttempts)
		}

		switch {
		case ready:
			p.opts.Logger.Info("Resume analysis ready", "analysis_id", id, "attempts", total)
			p.finished(ctx, OutcomeReady, total)
			return analysis, nil
		case err != nil && ctx.Err() != nil:
			p.finished(ctx, OutcomeCancelled, total)
			return nil, ctx.Err()
		case err != nil && !errors.IsType(err, errors.ErrorTypeNetwork):
			p.finished(ctx, OutcomeFailed, total)
			return nil, err
		case analysis.Failed():
			p.opts.Logger.Warn("Resume analysis failed on the server", "analysis_id", id, "attempts", total, "status", analysis.Status)
			p.finished(ctx, OutcomeFailed, total)
			return nil, analysisFailed(id, analysis.Status)
		case err != nil:
			p.opts.Logger.Warn("Resume status check failed", "analysis_id", id, "attempt", attempt, "error", err.Error())
		case analysis != nil:
			p.opts.Logger.Debug("Resume analysis pending", "analysis_id", id, "attempt", attempt, "status", analysis.Status)
		}

		if attempt >= p.opts.MaxAttempts {
			if p.opts.KeepWaiting == nil || !p.opts.KeepWaiting(ctx, total) {
				p.finished(ctx, OutcomeAbandoned, total)
				return nil, errors.NewSessionError(errors.ErrCodePollingAbandoned,
					fmt.Sprintf("stopped waiting for analysis %s after %d checks", id, total), nil).
					WithContext("analysis_id", id)
			}
			attempt = 0
		}
		timer.Reset(p.opts.Interval)
	}
}

func analysisFailed(id, status string) error {
	return errors.NewAPIError(errors.ErrCodeAnalysisFailed,
		fmt.Sprintf("the server could not analyse the resume (status %q); upload it again", status), nil).
		WithContext("analysis_id", id)
}

func (p *Poller) finished(ctx context.Context, outcome string, attempts int) {
	if p.opts.Metrics != nil {
		p.opts.Metrics.PollFinished(ctx, outcome, attempts)
	}
}
