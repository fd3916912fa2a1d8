package api

import (
	"encoding/json"
	"testing"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, raw string) any {
	t.Helper()
	var data any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

func TestLocateFallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"first path", `{"data":{"problems":"a"},"problems":"c"}`, "a"},
		{"nested envelope", `{"data":{"data":{"problems":"b"}}}`, "b"},
		{"flat", `{"problems":"c"}`, "c"},
		{"null skipped", `{"data":{"problems":null},"problems":"c"}`, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocateString(mustJSON(t, tt.body), "data.problems", "data.data.problems", "problems")
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Locate(nil, "data")
	assert.False(t, ok)
	_, ok = Locate(mustJSON(t, `{"x":1}`), "data", "y")
	assert.False(t, ok)
}

func TestLocateStringRendersScalars(t *testing.T) {
	data := mustJSON(t, `{"id":42,"ratio":0.5,"flag":true,"obj":{}}`)
	assert.Equal(t, "42", LocateString(data, "id"))
	assert.Equal(t, "0.5", LocateString(data, "ratio"))
	assert.Equal(t, "true", LocateString(data, "flag"))
	assert.Equal(t, "", LocateString(data, "obj"))
}

func TestDecodeIsLenient(t *testing.T) {
	data := mustJSON(t, `{"data":{"overallScore":"7.5","skill_scores":{"go":"8"},"Strengths":"concise","missing-skills":["k8s"]}}`)

	analysis, err := Decode[types.ResumeAnalysis](data, "data")
	require.NoError(t, err)
	require.NotNil(t, analysis.OverallScore)
	assert.InDelta(t, 7.5, *analysis.OverallScore, 0.0001)
	assert.InDelta(t, 8.0, analysis.SkillScores["go"], 0.0001)
	assert.Equal(t, []string{"concise"}, analysis.Strengths)
	assert.Equal(t, []string{"k8s"}, analysis.MissingSkills)
}

func TestDecodeMissingPayload(t *testing.T) {
	_, err := Decode[types.Report](mustJSON(t, `{"other":1}`), "data.report", "report")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnexpectedResponse))
}

func TestDecodeListPicksFirstList(t *testing.T) {
	data := mustJSON(t, `{"data":{"total":2,"jobs":[{"id":1,"title":"Go dev","company":"Acme"},{"id":"2","title":"SRE","company":"Beta","remote":"true"}]}}`)

	jobs, err := DecodeList[types.Job](data, "data.data.jobs", "data", "data.jobs")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "1", jobs[0].ID)
	assert.True(t, jobs[1].Remote)

	empty, err := DecodeList[types.Job](mustJSON(t, `{}`), "data.jobs")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeList[types.Job](mustJSON(t, `{"data":{"total":2}}`), "data")
	require.Error(t, err)
}

func TestLenientTimeHook(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339", `"2025-03-01T10:00:00Z"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"naive iso with micros", `"2025-03-01T10:00:00.123456"`, time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC)},
		{"space separated", `"2025-03-01 10:00:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"unix seconds", `1740823200`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"garbage", `"yesterday"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustJSON(t, `{"id":"q1","score":3,"submitted_at":`+tt.value+`}`)
			result, err := Decode[types.QuizResult](data, "@")
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(result.SubmittedAt), "got %v", result.SubmittedAt)
		})
	}
}

func TestMatchName(t *testing.T) {
	assert.True(t, matchName("sessionId", "session_id"))
	assert.True(t, matchName("SESSION-ID", "session_id"))
	assert.False(t, matchName("session", "session_id"))
}

func TestLocateWithParent(t *testing.T) {
	data := map[string]any{
		"id": "root",
		"data": map[string]any{
			"id":       "q7",
			"question": "Explain goroutines",
		},
	}

	value, parent, ok := LocateWithParent(data, "missing", "data.question")
	require.True(t, ok)
	assert.Equal(t, "Explain goroutines", value)
	assert.Equal(t, "q7", LocateString(parent, "id"))

	_, parent, ok = LocateWithParent(data, "id")
	require.True(t, ok)
	assert.Equal(t, "root", LocateString(parent, "id"))

	_, parent, ok = LocateWithParent(data, "@")
	require.True(t, ok)
	assert.Nil(t, parent)

	_, _, ok = LocateWithParent(nil, "data")
	assert.False(t, ok)
}
