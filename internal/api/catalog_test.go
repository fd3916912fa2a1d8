package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitQuiz(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quiz/go-basics/submit", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Contains(t, body, "answers")
		assert.NotContains(t, body, "QuizID")
		_, _ = w.Write([]byte(`{"data":{"result":{"id":"sub-1","score":"4","total":5}}}`))
	}))

	result, err := client.SubmitQuiz(context.Background(), types.QuizSubmission{
		QuizID:  "go-basics",
		Answers: map[string]any{"q1": "b", "q2": []string{"a", "c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", result.ID)
	assert.Equal(t, "go-basics", result.QuizID)
	assert.InDelta(t, 4.0, result.Score, 0.001)
}

func TestSubmitQuizValidation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	_, err := client.SubmitQuiz(context.Background(), types.QuizSubmission{QuizID: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSearchJobsQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "golang", q.Get("q"))
		assert.Equal(t, "Berlin", q.Get("location"))
		assert.Equal(t, "true", q.Get("remote"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Empty(t, q.Get("limit"))
		_, _ = w.Write([]byte(`{"results":[{"id":"j1","title":"Go Engineer","company":"Acme"}]}`))
	}))

	jobs, err := client.SearchJobs(context.Background(), types.JobQuery{Keywords: "golang", Location: "Berlin", Remote: true, Page: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)
}

func TestEnrollments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/internships/enrollments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"e1","internship_id":"i1","title":"Summer","status":"active","enrolled_at":"2025-05-01T09:00:00Z"}]}`))
	})
	mux.HandleFunc("POST /api/internships/i2/enroll", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"enrollment":{"id":"e2","status":"pending"}}}`))
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	list, err := client.Enrollments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "i1", list[0].InternshipID)
	assert.Equal(t, 2025, list[0].EnrolledAt.Year())

	enrollment, err := client.Enroll(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "e2", enrollment.ID)
	assert.Equal(t, "i2", enrollment.InternshipID)
}
