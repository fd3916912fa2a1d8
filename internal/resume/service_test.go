package resume

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/storage"
	"prepcoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type fakeBackend struct {
	scriptedFetcher
	analyzeResult *types.ResumeAnalysis
	analyzeReq    types.AnalysisRequest
	analyzeBody   []byte
	latest        *types.ResumeAnalysis
	latestErr     error
	askedID       string
	answer        string
	questions     []types.InterviewQuestion
	questionCount int
}

func (b *fakeBackend) AnalyzeResume(_ context.Context, req types.AnalysisRequest, content []byte) (*types.ResumeAnalysis, error) {
	b.analyzeReq, b.analyzeBody = req, content
	return b.analyzeResult, nil
}

func (b *fakeBackend) LatestAnalysis(context.Context) (*types.ResumeAnalysis, error) {
	return b.latest, b.latestErr
}

func (b *fakeBackend) AskResume(_ context.Context, id, question string) (*types.QAResult, error) {
	b.askedID = id
	return &types.QAResult{Answer: b.answer}, nil
}

func (b *fakeBackend) ResumeInterviewQuestions(_ context.Context, _ string, count int) ([]types.InterviewQuestion, error) {
	b.questionCount = count
	return b.questions, nil
}

func newTestMirror(t *testing.T) *storage.Mirror {
	t.Helper()
	mirror, err := storage.NewMirror(filepath.Join(t.TempDir(), "state"), nil)
	require.NoError(t, err)
	return mirror
}

func newTestService(t *testing.T, backend *fakeBackend) (*Service, *storage.Mirror) {
	t.Helper()
	mirror := newTestMirror(t)
	return NewService(Options{
		Backend:         backend,
		Mirror:          mirror,
		Rules:           FileRules{MaxSize: 1024, AllowedExtensions: []string{".txt", ".md", ".pdf"}},
		Poll:            PollOptions{Interval: time.Millisecond, MaxAttempts: 5},
		ExperienceLevel: "mid",
		Clock:           func() time.Time { return fixedNow },
	}), mirror
}

func writeResume(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestServiceAnalyzeSynchronous(t *testing.T) {
	backend := &fakeBackend{analyzeResult: &types.ResumeAnalysis{ID: "a1", OverallScore: score(72)}}
	svc, _ := newTestService(t, backend)

	path := writeResume(t, "cv.txt", "Jane Doe\nGo developer")
	analysis, err := svc.Analyze(context.Background(), types.AnalysisRequest{ResumePath: path, JobRole: "Backend"})
	require.NoError(t, err)
	assert.InDelta(t, 72.0, *analysis.OverallScore, 0.001)
	assert.Zero(t, backend.calls, "no polling for a synchronous result")
	assert.Equal(t, "mid", backend.analyzeReq.ExperienceLevel)
	assert.Equal(t, "Jane Doe\nGo developer", string(backend.analyzeBody))

	id, err := svc.History().AnalysisID()
	require.NoError(t, err)
	assert.Equal(t, "a1", id)
}

func TestServiceAnalyzePolls(t *testing.T) {
	backend := &fakeBackend{analyzeResult: &types.ResumeAnalysis{ID: "a2", Status: "queued"}}
	backend.responses = []fetchResult{pending(), {analysis: &types.ResumeAnalysis{Strengths: []string{"Go"}}}}
	svc, _ := newTestService(t, backend)

	path := writeResume(t, "cv.md", "# Jane")
	analysis, err := svc.Analyze(context.Background(), types.AnalysisRequest{ResumePath: path, JobRole: "Backend", ExperienceLevel: "senior"})
	require.NoError(t, err)
	assert.Equal(t, "a2", analysis.ID)
	assert.Equal(t, []string{"Go"}, analysis.Strengths)
	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, "senior", backend.analyzeReq.ExperienceLevel)
}

func TestServiceAnalyzeValidatesBeforeUpload(t *testing.T) {
	backend := &fakeBackend{}
	svc, _ := newTestService(t, backend)

	_, err := svc.Analyze(context.Background(), types.AnalysisRequest{ResumePath: writeResume(t, "cv.txt", "x")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingField))

	_, err = svc.Analyze(context.Background(), types.AnalysisRequest{ResumePath: writeResume(t, "cv.odt", "x"), JobRole: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedFile))

	assert.Nil(t, backend.analyzeBody)
}

func TestServiceStatus(t *testing.T) {
	backend := &fakeBackend{}
	svc, _ := newTestService(t, backend)

	_, err := svc.Status(context.Background(), false)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoSession))

	require.NoError(t, svc.History().SetAnalysisID("a3"))
	analysis, err := svc.Status(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, analysis.Ready())
	assert.Equal(t, 1, backend.calls)

	backend.responses = []fetchResult{pending(), pending(), {analysis: &types.ResumeAnalysis{ID: "a3", OverallScore: score(50)}}}
	analysis, err = svc.Status(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, analysis.Ready())
}

func TestServiceRestore(t *testing.T) {
	backend := &fakeBackend{latest: &types.ResumeAnalysis{ID: "a4", OverallScore: score(80)}}
	svc, _ := newTestService(t, backend)

	analysis, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a4", analysis.ID)
	id, _ := svc.History().AnalysisID()
	assert.Equal(t, "a4", id)

	backend.latest, backend.latestErr = nil, errors.NewSessionError(errors.ErrCodeNoSession, "none", nil)
	_, err = svc.Restore(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoSession))
	id, _ = svc.History().AnalysisID()
	assert.Equal(t, "a4", id, "a failed restore keeps the current analysis")
}

func TestServiceAskAppendsHistory(t *testing.T) {
	backend := &fakeBackend{answer: "Add metrics"}
	svc, _ := newTestService(t, backend)
	require.NoError(t, svc.History().SetAnalysisID("a5"))

	_, err := svc.Ask(context.Background(), "  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingField))

	for _, q := range []string{"What is weak?", "What next?"} {
		qa, err := svc.Ask(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, q, qa.Question)
		assert.Equal(t, fixedNow, qa.AskedAt)
	}
	assert.Equal(t, "a5", backend.askedID)

	history, err := svc.History().QA()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "What is weak?", history[0].Question)
	assert.Equal(t, "What next?", history[1].Question)
}

func TestServiceQuestions(t *testing.T) {
	backend := &fakeBackend{questions: []types.InterviewQuestion{{Question: "Tell me about Kafka"}}}
	svc, _ := newTestService(t, backend)
	require.NoError(t, svc.History().SetAnalysisID("a6"))

	batch, err := svc.Questions(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultQuestionCount, backend.questionCount)
	assert.Len(t, batch.Questions, 1)
	assert.Equal(t, fixedNow, batch.GeneratedAt)

	_, err = svc.Questions(context.Background(), MaxQuestionCount+1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = svc.Questions(context.Background(), 3)
	require.NoError(t, err)
	batches, err := svc.History().QuestionBatches()
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestServiceResetClearsEverything(t *testing.T) {
	backend := &fakeBackend{answer: "ok", questions: []types.InterviewQuestion{{Question: "Q"}}}
	svc, mirror := newTestService(t, backend)
	require.NoError(t, svc.History().SetAnalysisID("a7"))
	_, err := svc.Ask(context.Background(), "q?")
	require.NoError(t, err)
	_, err = svc.Questions(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, svc.Reset())
	assert.False(t, mirror.Has(storage.KeyResumeAnalysisID))
	assert.False(t, mirror.Has(storage.KeyResumeQAHistory))
	assert.False(t, mirror.Has(storage.KeyResumeQuestions))

	history, err := svc.History().QA()
	require.NoError(t, err)
	assert.Empty(t, history)
}
