package terminal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"prepcoach/internal/errors"
	"prepcoach/internal/formatters"
	"prepcoach/internal/interview"
	"prepcoach/internal/types"

	"github.com/charmbracelet/huh"
)

// stopWords end an interview run when typed as the whole answer
var stopWords = []string{"/stop", "/quit", "/exit"}

// InterviewUI runs the interview driver against a Terminal
type InterviewUI struct {
	t *Terminal
}

// NewInterviewUI creates the interactive interview surface
func NewInterviewUI(t *Terminal) *InterviewUI {
	return &InterviewUI{t: t}
}

var _ interview.UI = (*InterviewUI)(nil)

// Ask shows the question and collects a multi-line answer
func (u *InterviewUI) Ask(ctx context.Context, prompt interview.Prompt) (string, error) {
	u.t.Println()
	u.t.Println(promptHeading(prompt))

	var answer string
	field := huh.NewText().
		Title(prompt.Text).
		Description(promptDescription(prompt)).
		Lines(6).
		Value(&answer)

	err := u.t.run(ctx, huh.NewGroup(field))
	if stderrors.Is(err, ErrCancelled) {
		return "", interview.ErrStopped
	}
	if err != nil {
		return "", err
	}
	return answerOrStop(answer)
}

// answerOrStop maps a stop word to ErrStopped
func answerOrStop(answer string) (string, error) {
	trimmed := strings.TrimSpace(answer)
	for _, word := range stopWords {
		if strings.EqualFold(trimmed, word) {
			return "", interview.ErrStopped
		}
	}
	return trimmed, nil
}

func promptHeading(p interview.Prompt) string {
	if p.FollowUp {
		return fmt.Sprintf("── %s · follow-up ──", p.RoundName)
	}
	return fmt.Sprintf("── %s · question %d of %d ──", p.RoundName, p.Number, p.Ceiling)
}

func promptDescription(p interview.Prompt) string {
	var b strings.Builder
	for _, hint := range p.Hints {
		fmt.Fprintf(&b, "Hint: %s\n", hint)
	}
	b.WriteString("Type /stop to pause; the session can be resumed later.")
	return b.String()
}

// ShowEvaluation prints the score and feedback for an answer
func (u *InterviewUI) ShowEvaluation(round types.RoundType, evaluation types.Evaluation) {
	u.t.Printf("\nScore: %s/10\n", trimScore(evaluation.Score))
	if evaluation.Feedback != "" {
		u.t.Printf("%s\n", evaluation.Feedback)
	}
	for _, s := range evaluation.Strengths {
		u.t.Printf("  + %s\n", s)
	}
	for _, s := range evaluation.Improvements {
		u.t.Printf("  - %s\n", s)
	}
}

// ShowRoundSummary prints a finished round and what comes next
func (u *InterviewUI) ShowRoundSummary(summary types.RoundSummary, next *types.RoundType) {
	u.t.Printf("\n✔ %s round complete (score %s)\n", interview.DisplayName(summary.Round), trimScore(summary.Score))
	if summary.Feedback != "" {
		u.t.Printf("%s\n", summary.Feedback)
	}
	if next != nil {
		u.t.Printf("Next up: %s\n", interview.DisplayName(*next))
	}
}

// ShowReport prints the final report
func (u *InterviewUI) ShowReport(report *types.Report) {
	if report == nil {
		return
	}
	out, err := formatters.GlobalRegistry.Format(report, "text")
	if err != nil {
		u.t.Printf("Overall score: %s\n", trimScore(report.OverallScore))
		return
	}
	u.t.Println()
	u.t.Printf("%s", out)
}

// Banner shows an error and, on a terminal, offers a retry
func (u *InterviewUI) Banner(ctx context.Context, err error) bool {
	u.t.Printf("\n! %s\n", errors.UserMessage(err))
	if !u.t.Interactive() || errors.IsType(err, errors.ErrorTypeValidation) {
		return false
	}
	retry, confirmErr := u.t.Confirm(ctx, "Try again?", true)
	if confirmErr != nil {
		return false
	}
	return retry
}

func trimScore(score float64) string {
	s := fmt.Sprintf("%.1f", score)
	return strings.TrimSuffix(s, ".0")
}
