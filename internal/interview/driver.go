package interview

import (
	"context"
	stderrors "errors"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

// ErrStopped is returned when the user stops answering. The session stays
// mirrored and can be resumed later.
var ErrStopped = stderrors.New("interview stopped")

// Prompt is one question shown to the candidate
type Prompt struct {
	Round     types.RoundType
	RoundName string
	Number    int
	Ceiling   int
	Text      string
	Hints     []string
	FollowUp  bool
}

// UI is the interactive surface the driver runs against
type UI interface {
	// Ask collects a free-text answer; ErrStopped ends the run
	Ask(ctx context.Context, prompt Prompt) (string, error)
	ShowEvaluation(round types.RoundType, evaluation types.Evaluation)
	ShowRoundSummary(summary types.RoundSummary, next *types.RoundType)
	ShowReport(report *types.Report)
	// Banner shows a dismissable error and reports whether to retry
	Banner(ctx context.Context, err error) bool
}

// Driver walks the store through the planned rounds: fetch a question,
// collect an answer, follow the server's next action, complete the round,
// and finally fetch the report.
type Driver struct {
	store  *Store
	ui     UI
	logger *errors.Logger
}

// NewDriver creates a driver for an already started or restored store
func NewDriver(store *Store, ui UI, logger *errors.Logger) *Driver {
	return &Driver{store: store, ui: ui, logger: logger}
}

// Run drives the session until the report is available, the user stops, or
// an unrecoverable error occurs
func (d *Driver) Run(ctx context.Context) (*types.Report, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap := d.store.Snapshot()
		if snap.SessionID == "" {
			return nil, errors.NewSessionError(errors.ErrCodeNoSession, "there is no active interview", nil)
		}

		var err error
		switch {
		case snap.CurrentRound == nil:
			return d.finishSession(ctx, snap)
		case snap.FollowUp != nil:
			err = d.answer(ctx, snap, true)
		case snap.Question != nil:
			err = d.answer(ctx, snap, false)
		case d.roundExhausted(snap):
			err = d.completeRound(ctx)
		default:
			err = d.attempt(ctx, func() error { return d.store.GetQuestion(ctx) })
		}
		if err != nil {
			return nil, err
		}
	}
}

func (d *Driver) roundExhausted(snap types.SessionSnapshot) bool {
	round := *snap.CurrentRound
	return snap.RoundDone || snap.QuestionCounts[round] >= d.store.Plan().Ceiling(round)
}

func (d *Driver) answer(ctx context.Context, snap types.SessionSnapshot, followUp bool) error {
	round := *snap.CurrentRound
	prompt := Prompt{
		Round:     round,
		RoundName: DisplayName(round),
		Number:    snap.QuestionCounts[round],
		Ceiling:   d.store.Plan().Ceiling(round),
		FollowUp:  followUp,
	}
	if followUp {
		prompt.Text = snap.FollowUp.Text
	} else {
		prompt.Text = snap.Question.Text
		prompt.Hints = snap.Question.Hints
	}

	text, err := d.ui.Ask(ctx, prompt)
	if err != nil {
		return err
	}

	var result *types.AnswerResult
	err = d.attempt(ctx, func() error {
		var submitErr error
		if followUp {
			result, submitErr = d.store.SubmitFollowUp(ctx, text)
		} else {
			result, submitErr = d.store.SubmitAnswer(ctx, text)
		}
		return submitErr
	})
	if errors.IsType(err, errors.ErrorTypeValidation) {
		// ask again
		d.ui.Banner(ctx, err)
		return nil
	}
	if err != nil {
		return err
	}

	d.ui.ShowEvaluation(round, result.Evaluation)
	d.logger.Debug("Answer evaluated", "round", round, "follow_up", followUp, "next_action", result.NextAction)
	return nil
}

func (d *Driver) completeRound(ctx context.Context) error {
	var summary *types.RoundSummary
	err := d.attempt(ctx, func() error {
		var completeErr error
		summary, completeErr = d.store.CompleteRound(ctx)
		return completeErr
	})
	if err != nil {
		return err
	}
	d.ui.ShowRoundSummary(*summary, d.store.Snapshot().CurrentRound)
	return nil
}

func (d *Driver) finishSession(ctx context.Context, snap types.SessionSnapshot) (*types.Report, error) {
	report := snap.Report
	if report == nil {
		err := d.attempt(ctx, func() error {
			var reportErr error
			report, reportErr = d.store.GenerateReport(ctx)
			return reportErr
		})
		if err != nil {
			return nil, err
		}
	}
	d.ui.ShowReport(report)
	return report, nil
}

// attempt runs one store action, offering a manual retry through the banner
// for failures the user can do something about
func (d *Driver) attempt(ctx context.Context, action func() error) error {
	for {
		err := action()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !retryable(err) {
			return err
		}
		if !d.ui.Banner(ctx, err) {
			return err
		}
		d.store.DismissError()
	}
}

// retryable reports whether retrying the same action could succeed
func retryable(err error) bool {
	switch {
	case errors.IsType(err, errors.ErrorTypeValidation),
		errors.IsType(err, errors.ErrorTypeAuth),
		errors.HasCode(err, errors.ErrCodeStaleSession),
		errors.HasCode(err, errors.ErrCodeNoSession),
		errors.HasCode(err, errors.ErrCodeInvalidTransition):
		return false
	default:
		return true
	}
}
