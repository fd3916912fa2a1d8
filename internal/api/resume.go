package api

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

var (
	analysisPaths   = []string{"data.analysis", "data.data", "analysis", "data", "@"}
	analysisIDPaths = []string{"id", "analysis_id", "analysisId", "data.id", "data.analysis_id", "data.analysisId", "data.data.id", "analysis.id", "data.analysis.id"}
	answerPaths     = []string{"data.answer", "answer", "data.response", "response", "data.data.answer"}
	questionsPaths  = []string{"data.questions", "data.data.questions", "questions", "data"}
)

// AnalyzeResume uploads a resume with the target-role specification. The
// returned analysis may already be complete, or may carry only an id to poll.
func (c *Client) AnalyzeResume(ctx context.Context, req types.AnalysisRequest, content []byte) (*types.ResumeAnalysis, error) {
	if req.JobRole == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a target job role is required", nil)
	}
	if len(content) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyDocument, "the resume file is empty", nil)
	}

	resp, err := c.Do(ctx, Request{
		Name:   "resume.analyze",
		Method: http.MethodPost,
		Path:   "/resume/analyze",
		Multipart: &Multipart{
			Fields: []FormField{
				{Name: "job_role", Value: req.JobRole},
				{Name: "job_description", Value: req.JobDescription},
				{Name: "experience_level", Value: req.ExperienceLevel},
			},
			FileField: "resume",
			FileName:  filepath.Base(req.ResumePath),
			Content:   content,
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(resp.Data)
}

// GetAnalysis fetches an analysis by id
func (c *Client) GetAnalysis(ctx context.Context, id string) (*types.ResumeAnalysis, error) {
	if id == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an analysis id is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "resume.get",
		Method: http.MethodGet,
		Path:   "/resume/analysis/" + url.PathEscape(id),
	})
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, errors.NewSessionError(errors.ErrCodeStaleSession, "the resume analysis no longer exists", err).
				WithContext("analysis_id", id)
		}
		return nil, err
	}
	analysis, err := decodeAnalysis(resp.Data)
	if err != nil {
		return nil, err
	}
	if analysis.ID == "" {
		analysis.ID = id
	}
	return analysis, nil
}

// LatestAnalysis fetches the user's most recent analysis
func (c *Client) LatestAnalysis(ctx context.Context) (*types.ResumeAnalysis, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "resume.latest",
		Method: http.MethodGet,
		Path:   "/resume/analysis/latest",
	})
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, errors.NewSessionError(errors.ErrCodeNoSession, "no previous resume analysis was found", err)
		}
		return nil, err
	}
	analysis, err := decodeAnalysis(resp.Data)
	if errors.HasCode(err, errors.ErrCodeUnexpectedResponse) {
		return nil, errors.NewSessionError(errors.ErrCodeNoSession, "no previous resume analysis was found", err)
	}
	return analysis, err
}

// AskResume asks a free-form question about an analysed resume
func (c *Client) AskResume(ctx context.Context, id, question string) (*types.QAResult, error) {
	if question == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a question is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "resume.ask",
		Method: http.MethodPost,
		Path:   "/resume/analysis/" + url.PathEscape(id) + "/ask",
		Body:   map[string]string{"question": question},
	})
	if err != nil {
		return nil, err
	}
	answer := LocateString(resp.Data, answerPaths...)
	if answer == "" {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server returned an empty answer", nil)
	}
	return &types.QAResult{Question: question, Answer: answer, AskedAt: time.Now().UTC()}, nil
}

// ResumeInterviewQuestions generates likely interview questions for a resume
func (c *Client) ResumeInterviewQuestions(ctx context.Context, id string, count int) ([]types.InterviewQuestion, error) {
	body := map[string]any{}
	if count > 0 {
		body["count"] = count
	}
	resp, err := c.Do(ctx, Request{
		Name:   "resume.questions",
		Method: http.MethodPost,
		Path:   "/resume/analysis/" + url.PathEscape(id) + "/interview-questions",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	// some deployments return bare strings instead of question objects
	if raw, ok := Locate(resp.Data, questionsPaths...); ok {
		if list, isList := raw.([]any); isList && len(list) > 0 {
			if _, isString := list[0].(string); isString {
				out := make([]types.InterviewQuestion, 0, len(list))
				for _, item := range list {
					if text, ok := item.(string); ok && text != "" {
						out = append(out, types.InterviewQuestion{Question: text})
					}
				}
				return out, nil
			}
		}
	}
	return DecodeList[types.InterviewQuestion](resp.Data, questionsPaths...)
}

func decodeAnalysis(data any) (*types.ResumeAnalysis, error) {
	analysis, err := Decode[types.ResumeAnalysis](data, analysisPaths...)
	if err != nil {
		return nil, err
	}
	if analysis.ID == "" {
		analysis.ID = LocateString(data, analysisIDPaths...)
	}
	if analysis.ID == "" && !analysis.Ready() {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server returned neither a result nor an analysis id", nil)
	}
	return &analysis, nil
}
