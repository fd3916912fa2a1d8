package terminal

import (
	"context"
	"fmt"
	"strings"

	"prepcoach/internal/resume"
	"prepcoach/internal/types"

	"github.com/charmbracelet/huh"
)

// BuildResume walks through the resume builder and fills d. Existing values
// on d are offered as defaults so a saved draft can be edited.
func (t *Terminal) BuildResume(ctx context.Context, d *types.ResumeDraft) error {
	skills := strings.Join(d.Skills, ", ")

	err := t.run(ctx,
		huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Value(&d.Name).
				Validate(notBlank),
			huh.NewInput().
				Title("Email").
				Value(&d.Email).
				Validate(resume.ValidateEmail),
			huh.NewInput().
				Title("Phone").
				Description("Optional").
				Value(&d.Phone),
			huh.NewInput().
				Title("Headline").
				Placeholder("Backend Engineer").
				Value(&d.Headline),
		).Title("Contact"),
		huh.NewGroup(
			huh.NewText().
				Title("Professional summary").
				Lines(4).
				Value(&d.Summary),
			huh.NewInput().
				Title("Skills").
				Description("Comma-separated").
				Placeholder("Go, PostgreSQL, Kubernetes").
				Value(&skills),
		).Title("Profile"),
	)
	if err != nil {
		return err
	}
	d.Skills = resume.SplitList(skills)

	if err := t.collectExperience(ctx, d); err != nil {
		return err
	}
	if err := t.collectEducation(ctx, d); err != nil {
		return err
	}

	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	return resume.ValidateDraft(d)
}

func (t *Terminal) collectExperience(ctx context.Context, d *types.ResumeDraft) error {
	for {
		title := fmt.Sprintf("Add a position? (%d so far)", len(d.Experience))
		more, err := t.Confirm(ctx, title, len(d.Experience) == 0)
		if err != nil || !more {
			return err
		}

		var exp types.DraftExperience
		err = t.run(ctx, huh.NewGroup(
			huh.NewInput().Title("Job title").Value(&exp.Title).Validate(notBlank),
			huh.NewInput().Title("Company").Value(&exp.Company).Validate(notBlank),
			huh.NewInput().Title("Period").Placeholder("2021 - 2024").Value(&exp.Period),
			huh.NewText().
				Title("Achievements").
				Description("One per line").
				Lines(5).
				Value(&exp.Details),
		).Title("Experience"))
		if err != nil {
			return err
		}
		d.Experience = append(d.Experience, exp)
	}
}

func (t *Terminal) collectEducation(ctx context.Context, d *types.ResumeDraft) error {
	for {
		title := fmt.Sprintf("Add a qualification? (%d so far)", len(d.Education))
		more, err := t.Confirm(ctx, title, len(d.Education) == 0)
		if err != nil || !more {
			return err
		}

		var edu types.DraftEducation
		err = t.run(ctx, huh.NewGroup(
			huh.NewInput().Title("Degree or certificate").Value(&edu.Degree).Validate(notBlank),
			huh.NewInput().Title("Institution").Value(&edu.Institution).Validate(notBlank),
			huh.NewInput().Title("Year").Value(&edu.Year),
		).Title("Education"))
		if err != nil {
			return err
		}
		d.Education = append(d.Education, edu)
	}
}
