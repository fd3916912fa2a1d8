package interview

import (
	"testing"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRounds(t *testing.T) {
	plan := DefaultPlan()

	tests := []struct {
		name     string
		mode     types.InterviewMode
		specific types.RoundType
		want     []types.RoundType
		wantErr  bool
	}{
		{
			name: "full mode walks every round in order",
			mode: types.ModeFull,
			want: []types.RoundType{types.RoundFormalQA, types.RoundTechnical, types.RoundCoding, types.RoundSystemDesign, types.RoundHR},
		},
		{
			name: "empty mode means full",
			want: types.DefaultRoundOrder,
		},
		{
			name:     "specific mode runs exactly one round",
			mode:     types.ModeSpecific,
			specific: types.RoundTechnical,
			want:     []types.RoundType{types.RoundTechnical},
		},
		{
			name:     "specific mode needs a valid round",
			mode:     types.ModeSpecific,
			specific: "lunch",
			wantErr:  true,
		},
		{
			name:    "unknown mode",
			mode:    "marathon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := plan.Rounds(tt.mode, tt.specific)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanRoundsReturnsCopy(t *testing.T) {
	plan := DefaultPlan()
	rounds, err := plan.Rounds(types.ModeFull, "")
	require.NoError(t, err)
	rounds[0] = types.RoundHR
	assert.Equal(t, types.RoundFormalQA, plan.Order[0])
}

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan([]string{"Technical", " coding "}, map[string]int{"coding": 1})
	require.NoError(t, err)
	assert.Equal(t, []types.RoundType{types.RoundTechnical, types.RoundCoding}, plan.Order)
	assert.Equal(t, 1, plan.Ceiling(types.RoundCoding))
	assert.Equal(t, 5, plan.Ceiling(types.RoundTechnical))

	_, err = NewPlan([]string{"technical", "technical"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewPlan([]string{"banter"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewPlan(nil, map[string]int{"hr": 0})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDefaultCeilings(t *testing.T) {
	plan := DefaultPlan()
	assert.Equal(t, 5, plan.Ceiling(types.RoundFormalQA))
	assert.Equal(t, 2, plan.Ceiling(types.RoundCoding))
	assert.Equal(t, 3, plan.Ceiling(types.RoundSystemDesign))
	assert.Equal(t, fallbackCeiling, Plan{}.Ceiling(types.RoundHR))
}

func TestNextRound(t *testing.T) {
	order := types.DefaultRoundOrder

	next := NextRound(order, types.RoundFormalQA)
	require.NotNil(t, next)
	assert.Equal(t, types.RoundTechnical, *next)

	assert.Nil(t, NextRound(order, types.RoundHR))
	assert.Nil(t, NextRound([]types.RoundType{types.RoundTechnical}, types.RoundTechnical))
	assert.Nil(t, NextRound(order, "unknown"))
}

func TestFirstPending(t *testing.T) {
	pending := FirstPending(types.DefaultRoundOrder, []types.RoundType{types.RoundFormalQA, types.RoundTechnical})
	require.NotNil(t, pending)
	assert.Equal(t, types.RoundCoding, *pending)

	assert.Nil(t, FirstPending([]types.RoundType{types.RoundHR}, []types.RoundType{types.RoundHR}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Formal Q&A", DisplayName(types.RoundFormalQA))
	assert.Equal(t, "System Design", DisplayName(types.RoundSystemDesign))
	assert.Equal(t, "HR", DisplayName(types.RoundHR))
	assert.Equal(t, "Coding", DisplayName(types.RoundCoding))
}

func TestParseRound(t *testing.T) {
	round, err := ParseRound("System Design")
	require.NoError(t, err)
	assert.Equal(t, types.RoundSystemDesign, round)

	round, err = ParseRound("formal-qa")
	require.NoError(t, err)
	assert.Equal(t, types.RoundFormalQA, round)

	_, err = ParseRound("karaoke")
	require.Error(t, err)
	assert.Contains(t, errors.UserMessage(err), "formal_qa, technical")
}
