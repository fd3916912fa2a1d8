package terminal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"prepcoach/internal/interview"
	"prepcoach/internal/resume"
	"prepcoach/internal/types"

	"github.com/charmbracelet/huh"
)

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return stderrors.New("a value is required")
	}
	return nil
}

// Login asks for credentials, pre-filling the email when known
func (t *Terminal) Login(ctx context.Context, email string) (types.Credentials, error) {
	creds := types.Credentials{Email: email}
	err := t.run(ctx, huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&creds.Email).
			Validate(resume.ValidateEmail),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password).
			Validate(notBlank),
	))
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, err
}

// ExperienceLevels offered by the start and analyze forms
var ExperienceLevels = []string{"entry", "mid", "senior", "lead"}

// StartOptions completes a start request interactively. Fields already set
// on req are used as defaults.
func (t *Terminal) StartOptions(ctx context.Context, req *types.StartRequest, plan interview.Plan) error {
	mode := string(req.Mode)
	if mode == "" {
		mode = string(types.ModeFull)
	}
	round := string(req.SpecificRound)
	if round == "" {
		round = string(plan.Order[0])
	}
	level := req.ExperienceLevel
	if level == "" {
		level = "mid"
	}

	levelOptions := make([]huh.Option[string], len(ExperienceLevels))
	for i, l := range ExperienceLevels {
		levelOptions[i] = huh.NewOption(l, l)
	}
	roundOptions := make([]huh.Option[string], len(plan.Order))
	for i, r := range plan.Order {
		roundOptions[i] = huh.NewOption(interview.DisplayName(r), string(r))
	}

	err := t.run(ctx,
		huh.NewGroup(
			huh.NewInput().
				Title("Target job role").
				Placeholder("Backend Engineer").
				Value(&req.JobRole).
				Validate(notBlank),
			huh.NewSelect[string]().
				Title("Experience level").
				Options(levelOptions...).
				Value(&level),
			huh.NewSelect[string]().
				Title("Interview mode").
				Options(
					huh.NewOption(fmt.Sprintf("Full interview (%d rounds)", len(plan.Order)), string(types.ModeFull)),
					huh.NewOption("A single round", string(types.ModeSpecific)),
				).
				Value(&mode),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Round").
				Options(roundOptions...).
				Value(&round),
		).WithHideFunc(func() bool {
			return mode != string(types.ModeSpecific)
		}),
	)
	if err != nil {
		return err
	}

	req.JobRole = strings.TrimSpace(req.JobRole)
	req.ExperienceLevel = level
	req.Mode = types.InterviewMode(mode)
	req.SpecificRound = ""
	if req.Mode == types.ModeSpecific {
		req.SpecificRound = types.RoundType(round)
	}
	return nil
}

// KeepWaiting asks whether to continue polling after the attempt ceiling.
// Without a terminal the wait is abandoned.
func (t *Terminal) KeepWaiting(ctx context.Context, attempts int) bool {
	if !t.interactive {
		return false
	}
	keep, err := t.Confirm(ctx, fmt.Sprintf("The analysis is still running after %d checks. Keep waiting?", attempts), true)
	return err == nil && keep
}
