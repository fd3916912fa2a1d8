package interview

import (
	"fmt"
	"slices"
	"strings"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCeilings caps how many questions each round asks
var DefaultCeilings = map[types.RoundType]int{
	types.RoundFormalQA:     5,
	types.RoundTechnical:    5,
	types.RoundCoding:       2,
	types.RoundSystemDesign: 3,
	types.RoundHR:           5,
}

// fallbackCeiling applies to rounds missing from the ceiling map
const fallbackCeiling = 5

var displayOverrides = map[types.RoundType]string{
	types.RoundFormalQA: "Formal Q&A",
	types.RoundHR:       "HR",
}

// Plan is the fixed sequence of rounds for a session with per-round ceilings
type Plan struct {
	Order    []types.RoundType
	Ceilings map[types.RoundType]int
}

// NewPlan builds a plan from configuration values. An empty order means the
// default five-round sequence.
func NewPlan(order []string, ceilings map[string]int) (Plan, error) {
	plan := Plan{Ceilings: make(map[types.RoundType]int, len(DefaultCeilings))}
	for round, ceiling := range DefaultCeilings {
		plan.Ceilings[round] = ceiling
	}
	for name, ceiling := range ceilings {
		round := types.RoundType(strings.ToLower(strings.TrimSpace(name)))
		if !round.Valid() {
			return Plan{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unknown round %q in question ceilings", name), nil)
		}
		if ceiling <= 0 {
			return Plan{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("question ceiling for %s must be positive", name), nil)
		}
		plan.Ceilings[round] = ceiling
	}

	if len(order) == 0 {
		plan.Order = slices.Clone(types.DefaultRoundOrder)
		return plan, nil
	}
	for _, name := range order {
		round := types.RoundType(strings.ToLower(strings.TrimSpace(name)))
		if !round.Valid() {
			return Plan{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unknown round %q in round order", name), nil)
		}
		if slices.Contains(plan.Order, round) {
			return Plan{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("round %s is listed twice", name), nil)
		}
		plan.Order = append(plan.Order, round)
	}
	return plan, nil
}

// DefaultPlan is the five-round sequence with default ceilings
func DefaultPlan() Plan {
	plan, _ := NewPlan(nil, nil)
	return plan
}

// Rounds returns the rounds a session runs: the whole order in full mode, or
// exactly the chosen round in specific mode.
func (p Plan) Rounds(mode types.InterviewMode, specific types.RoundType) ([]types.RoundType, error) {
	switch mode {
	case types.ModeFull, "":
		return slices.Clone(p.Order), nil
	case types.ModeSpecific:
		if !specific.Valid() {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("%q is not a round type", specific), nil)
		}
		return []types.RoundType{specific}, nil
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown interview mode %q", mode), nil)
	}
}

// Ceiling returns the question limit for a round
func (p Plan) Ceiling(round types.RoundType) int {
	if ceiling, ok := p.Ceilings[round]; ok && ceiling > 0 {
		return ceiling
	}
	return fallbackCeiling
}

// NextRound returns the round after current in rounds, or nil after the last
func NextRound(rounds []types.RoundType, current types.RoundType) *types.RoundType {
	idx := slices.Index(rounds, current)
	if idx < 0 || idx+1 >= len(rounds) {
		return nil
	}
	next := rounds[idx+1]
	return &next
}

// FirstPending returns the first round not yet completed, or nil
func FirstPending(rounds, completed []types.RoundType) *types.RoundType {
	for _, round := range rounds {
		if !slices.Contains(completed, round) {
			r := round
			return &r
		}
	}
	return nil
}

// DisplayName renders a round type for people
func DisplayName(round types.RoundType) string {
	if name, ok := displayOverrides[round]; ok {
		return name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(round), "_", " "))
}

// ParseRound accepts a round type in any case, with spaces or dashes
func ParseRound(value string) (types.RoundType, error) {
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(value)))
	round := types.RoundType(normalized)
	if !round.Valid() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown round %q (expected one of %s)", value, roundList()), nil)
	}
	return round, nil
}

func roundList() string {
	names := make([]string, len(types.DefaultRoundOrder))
	for i, round := range types.DefaultRoundOrder {
		names[i] = string(round)
	}
	return strings.Join(names, ", ")
}
