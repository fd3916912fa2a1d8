package resume

import (
	"context"
	"strings"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

// Limits on generated interview questions per request
const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

// Backend is the remote resume API
type Backend interface {
	Fetcher
	AnalyzeResume(ctx context.Context, req types.AnalysisRequest, content []byte) (*types.ResumeAnalysis, error)
	LatestAnalysis(ctx context.Context) (*types.ResumeAnalysis, error)
	AskResume(ctx context.Context, id, question string) (*types.QAResult, error)
	ResumeInterviewQuestions(ctx context.Context, id string, count int) ([]types.InterviewQuestion, error)
}

// Options configures a Service
type Options struct {
	Backend         Backend
	Mirror          Persister
	Rules           FileRules
	Poll            PollOptions
	ExperienceLevel string
	Logger          *errors.Logger
	Clock           func() time.Time
}

// Service submits resumes, waits for their analysis and keeps the
// follow-up Q&A and question histories
type Service struct {
	backend         Backend
	history         *History
	poller          *Poller
	rules           FileRules
	experienceLevel string
	logger          *errors.Logger
	now             func() time.Time
}

// NewService creates a resume service
func NewService(opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if opts.Poll.Logger == nil {
		opts.Poll.Logger = opts.Logger
	}
	return &Service{
		backend:         opts.Backend,
		history:         NewHistory(opts.Mirror),
		poller:          NewPoller(opts.Backend, opts.Poll),
		rules:           opts.Rules,
		experienceLevel: opts.ExperienceLevel,
		logger:          opts.Logger,
		now:             clock,
	}
}

// History returns the mirrored histories
func (s *Service) History() *History {
	return s.history
}

// Analyze validates and uploads the resume, then waits for the result unless
// the server answered synchronously
func (s *Service) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.ResumeAnalysis, error) {
	if strings.TrimSpace(req.JobRole) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a target job role is required", nil)
	}
	doc, err := LoadDocument(req.ResumePath, s.rules)
	if err != nil {
		return nil, err
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = s.experienceLevel
	}

	s.logger.Info("Submitting resume", "file", doc.Name, "size", doc.Size, "job_role", req.JobRole)
	analysis, err := s.backend.AnalyzeResume(ctx, req, doc.Content)
	if err != nil {
		return nil, err
	}
	if err := s.remember(analysis); err != nil {
		return nil, err
	}
	if analysis.Ready() {
		return analysis, nil
	}

	result, err := s.poller.Wait(ctx, analysis)
	if err != nil {
		return nil, err
	}
	if result.ID == "" {
		result.ID = analysis.ID
	}
	return result, nil
}

// Status fetches the current analysis, optionally waiting until it is ready
func (s *Service) Status(ctx context.Context, wait bool) (*types.ResumeAnalysis, error) {
	id, err := s.currentID()
	if err != nil {
		return nil, err
	}
	analysis, err := s.backend.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wait || analysis.Ready() {
		return analysis, nil
	}
	return s.poller.Poll(ctx, id)
}

// Restore adopts the latest analysis stored on the server
func (s *Service) Restore(ctx context.Context) (*types.ResumeAnalysis, error) {
	analysis, err := s.backend.LatestAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.remember(analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// Ask sends a question about the current analysis and records the answer
func (s *Service) Ask(ctx context.Context, question string) (*types.QAResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a question is required", nil)
	}
	id, err := s.currentID()
	if err != nil {
		return nil, err
	}

	qa, err := s.backend.AskResume(ctx, id, question)
	if err != nil {
		return nil, err
	}
	if qa.Question == "" {
		qa.Question = question
	}
	if qa.AskedAt.IsZero() {
		qa.AskedAt = s.now().UTC()
	}
	if err := s.history.AppendQA(*qa); err != nil {
		s.logger.Warn("Failed to record resume question", "error", err.Error())
	}
	return qa, nil
}

// Questions generates likely interview questions for the current analysis
func (s *Service) Questions(ctx context.Context, count int) (*types.QuestionBatch, error) {
	if count == 0 {
		count = DefaultQuestionCount
	}
	if count < 1 || count > MaxQuestionCount {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"question count must be between 1 and 20", nil).WithContext("count", count)
	}
	id, err := s.currentID()
	if err != nil {
		return nil, err
	}

	questions, err := s.backend.ResumeInterviewQuestions(ctx, id, count)
	if err != nil {
		return nil, err
	}
	batch := types.QuestionBatch{Questions: questions, GeneratedAt: s.now().UTC()}
	if err := s.history.AppendQuestions(batch); err != nil {
		s.logger.Warn("Failed to record interview questions", "error", err.Error())
	}
	return &batch, nil
}

// Reset starts over: the analysis id and both histories are forgotten
func (s *Service) Reset() error {
	return s.history.Reset()
}

func (s *Service) currentID() (string, error) {
	id, err := s.history.AnalysisID()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.NewSessionError(errors.ErrCodeNoSession,
			"no resume has been analysed yet; run 'resume analyze' or 'resume restore' first", nil)
	}
	return id, nil
}

func (s *Service) remember(analysis *types.ResumeAnalysis) error {
	if analysis == nil || analysis.ID == "" {
		return nil
	}
	return s.history.SetAnalysisID(analysis.ID)
}
