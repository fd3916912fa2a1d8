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

func TestStartInterviewEnvelopes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   string
		wantQ    string
		wantQID  string
		wantRnds int
	}{
		{
			name:     "flat snake case",
			body:     `{"session_id":"s1","rounds":["formal_qa","technical"],"question":{"id":"q1","text":"Tell me about yourself"}}`,
			wantID:   "s1",
			wantQ:    "Tell me about yourself",
			wantRnds: 2,
		},
		{
			name:   "data envelope camel case",
			body:   `{"data":{"sessionId":"s2","question":{"question_id":"q9","question_text":"Why Go?"}}}`,
			wantID: "s2",
			wantQ:  "Why Go?",
		},
		{
			name:    "bare question beside its id",
			body:    `{"data":{"session_id":"s3","question":"Walk me through your last project","question_id":"q4"}}`,
			wantID:  "s3",
			wantQ:   "Walk me through your last project",
			wantQID: "q4",
		},
		{
			name:   "double envelope without question",
			body:   `{"data":{"data":{"session_id":77}}}`,
			wantID: "77",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent map[string]any
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/interview/start", r.URL.Path)
				_ = json.NewDecoder(r.Body).Decode(&sent)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))

			result, err := client.StartInterview(context.Background(), types.StartRequest{
				Mode:          types.ModeSpecific,
				SpecificRound: types.RoundTechnical,
				JobRole:       "Backend Engineer",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, result.SessionID)
			assert.Len(t, result.Rounds, tt.wantRnds)
			if tt.wantQ != "" {
				require.NotNil(t, result.Question)
				assert.Equal(t, tt.wantQ, result.Question.Text)
				if tt.wantQID != "" {
					assert.Equal(t, tt.wantQID, result.Question.ID)
				}
			} else {
				assert.Nil(t, result.Question)
			}
			assert.Equal(t, "specific", sent["interview_mode"])
			assert.Equal(t, "technical", sent["specific_round"])
			assert.Equal(t, "Backend Engineer", sent["job_role"])
		})
	}
}

func TestStartInterviewValidation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.StartInterview(context.Background(), types.StartRequest{Mode: types.ModeFull})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = client.StartInterview(context.Background(), types.StartRequest{Mode: types.ModeSpecific, SpecificRound: "lunch", JobRole: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestStartInterviewWithoutSessionID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok"})
	}))
	_, err := client.StartInterview(context.Background(), types.StartRequest{Mode: types.ModeFull, JobRole: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnexpectedResponse))
}

func TestNextQuestionShapes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
		want   string
	}{
		{"object in data", `{"data":{"question":{"id":"q1","text":"Explain channels"}}}`, "q1", "Explain channels"},
		{"bare string", `{"question":"Explain goroutines"}`, "", "Explain goroutines"},
		{"flat object", `{"question_id":"q3","question":"Explain select"}`, "q3", "Explain select"},
		{"bare string beside id", `{"data":{"id":"q7","question":"Explain goroutines"}}`, "q7", "Explain goroutines"},
		{"bare string beside camel id", `{"data":{"questionId":"q8","question":"Explain mutexes"}}`, "q8", "Explain mutexes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/interview/s1/question", r.URL.Path)
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "technical", body["round_type"])
				_, _ = w.Write([]byte(tt.body))
			}))

			q, err := client.NextQuestion(context.Background(), "s1", types.RoundTechnical)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, q.ID)
			assert.Equal(t, tt.want, q.Text)
			assert.Equal(t, types.RoundTechnical, q.Round)
		})
	}
}

func TestNextQuestionEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"question":""}}`))
	}))
	_, err := client.NextQuestion(context.Background(), "s1", types.RoundHR)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnexpectedResponse))
}

func TestSubmitAnswerResult(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantAction   types.NextAction
		wantScore    float64
		wantFollowUp string
		wantNextQ    string
	}{
		{
			name:         "follow-up as string",
			body:         `{"evaluation":{"score":6,"feedback":"ok"},"next_action":"followup","follow_up":"Can you give an example?"}`,
			wantAction:   types.ActionFollowUp,
			wantScore:    6,
			wantFollowUp: "Can you give an example?",
		},
		{
			name:       "flat evaluation with next question",
			body:       `{"data":{"score":"8.5","feedback":"good","nextAction":"next-question","next_question":{"id":"q2","text":"Next one"}}}`,
			wantAction: types.ActionNextQuestion,
			wantScore:  8.5,
			wantNextQ:  "Next one",
		},
		{
			name:       "complete round",
			body:       `{"data":{"evaluation":{"score":9},"next_action":"COMPLETE_ROUND"}}`,
			wantAction: types.ActionCompleteRound,
			wantScore:  9,
		},
		{
			name:         "missing action with follow-up object",
			body:         `{"evaluation":{"score":5},"followup":{"id":"f1","question":"Why?"}}`,
			wantAction:   types.ActionFollowUp,
			wantScore:    5,
			wantFollowUp: "Why?",
		},
		{
			name:       "missing action",
			body:       `{"evaluation":{"score":5}}`,
			wantAction: types.ActionNextQuestion,
			wantScore:  5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/interview/s1/answer", r.URL.Path)
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "q1", body["question_id"])
				assert.Equal(t, "coding", body["round_type"])
				_, _ = w.Write([]byte(tt.body))
			}))

			result, err := client.SubmitAnswer(context.Background(), "s1", types.AnswerSubmission{
				QuestionID: "q1",
				Round:      types.RoundCoding,
				Answer:     "my answer",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, result.NextAction)
			assert.InDelta(t, tt.wantScore, result.Evaluation.Score, 0.0001)
			if tt.wantFollowUp != "" {
				require.NotNil(t, result.FollowUp)
				assert.Equal(t, tt.wantFollowUp, result.FollowUp.Text)
				assert.Equal(t, "q1", result.FollowUp.QuestionID)
			} else {
				assert.Nil(t, result.FollowUp)
			}
			if tt.wantNextQ != "" {
				require.NotNil(t, result.NextQuestion)
				assert.Equal(t, tt.wantNextQ, result.NextQuestion.Text)
			}
		})
	}
}

func TestSubmitAnswerRequiresText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	_, err := client.SubmitAnswer(context.Background(), "s1", types.AnswerSubmission{QuestionID: "q1", Answer: "   "})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	_, err = client.SubmitFollowUp(context.Background(), "s1", types.FollowUpSubmission{QuestionID: "q1"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSessionEndpointsReportStaleSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Session not found"})
	}))
	ctx := context.Background()

	_, err := client.GetInterview(ctx, "gone")
	assert.True(t, errors.HasCode(err, errors.ErrCodeStaleSession))
	_, err = client.CompleteRound(ctx, "gone", types.RoundHR)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStaleSession))
	_, err = client.GenerateReport(ctx, "gone")
	assert.True(t, errors.IsType(err, errors.ErrorTypeSession))
}

func TestGetInterview(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interview/s1", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"status":"in_progress","interview_mode":"full","rounds":["formal_qa","technical"],"completed_rounds":["formal_qa"],"current_round":"technical","current_question":"What is a mutex?"}}`))
	}))

	session, err := client.GetInterview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.SessionID)
	assert.Equal(t, types.ModeFull, session.Mode)
	assert.Equal(t, []types.RoundType{types.RoundFormalQA}, session.CompletedRounds)
	assert.Equal(t, types.RoundTechnical, session.CurrentRound)
	require.NotNil(t, session.Question)
	assert.Equal(t, "What is a mutex?", session.Question.Text)
}

func TestCompleteRoundAndReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/interview/s1/complete-round", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"round_summary":{"score":7,"questions_answered":"3"}}}`))
	})
	mux.HandleFunc("POST /api/interview/s1/report", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"report":{"overall_score":7.8,"strengths":["clear"],"weaknesses":[],"recommendations":["practice"],"rounds":[{"round":"hr","score":8}]}}}`))
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	summary, err := client.CompleteRound(ctx, "s1", types.RoundHR)
	require.NoError(t, err)
	assert.Equal(t, types.RoundHR, summary.Round)
	assert.Equal(t, 3, summary.Answered)

	report, err := client.GenerateReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", report.SessionID)
	assert.InDelta(t, 7.8, report.OverallScore, 0.0001)
	require.Len(t, report.Rounds, 1)
	assert.Equal(t, types.RoundHR, report.Rounds[0].Round)
}

func TestCodingProblems(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "easy", r.URL.Query().Get("difficulty"))
		_, _ = w.Write([]byte(`{"data":{"data":{"problems":[{"id":1,"title":"Two Sum","difficulty":"easy","tags":"arrays"}]}}}`))
	}))

	problems, err := client.CodingProblems(context.Background(), "easy")
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "Two Sum", problems[0].Title)
	assert.Equal(t, []string{"arrays"}, problems[0].Tags)
}

func TestNormalizeAction(t *testing.T) {
	tests := []struct {
		in          string
		hasFollowUp bool
		want        types.NextAction
	}{
		{"followup", false, types.ActionFollowUp},
		{"Follow-Up", false, types.ActionFollowUp},
		{"next_question", true, types.ActionNextQuestion},
		{"complete round", false, types.ActionCompleteRound},
		{"", true, types.ActionFollowUp},
		{"", false, types.ActionNextQuestion},
		{"dance", false, types.ActionNextQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAction(tt.in, tt.hasFollowUp))
		})
	}
}
