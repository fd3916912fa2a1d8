package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

var (
	quizResultPaths  = []string{"data.submission", "data.result", "data.data", "submission", "result", "data", "@"}
	submissionsPaths = []string{"data.submissions", "data.data.submissions", "submissions", "data.data", "data"}
	jobsPaths        = []string{"data.jobs", "data.data.jobs", "jobs", "data.results", "results", "data.data", "data"}
	enrollmentsPaths = []string{"data.enrollments", "data.data.enrollments", "enrollments", "data.data", "data"}
	enrollmentPaths  = []string{"data.enrollment", "data.data", "enrollment", "data", "@"}
)

// SubmitQuiz sends a quiz answer set for grading
func (c *Client) SubmitQuiz(ctx context.Context, sub types.QuizSubmission) (*types.QuizResult, error) {
	if sub.QuizID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a quiz id is required", nil)
	}
	if len(sub.Answers) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "at least one answer is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "quiz.submit",
		Method: http.MethodPost,
		Path:   "/quiz/" + url.PathEscape(sub.QuizID) + "/submit",
		Body:   sub,
	})
	if err != nil {
		return nil, err
	}
	result, err := Decode[types.QuizResult](resp.Data, quizResultPaths...)
	if err != nil {
		return nil, err
	}
	if result.QuizID == "" {
		result.QuizID = sub.QuizID
	}
	return &result, nil
}

// QuizSubmissions lists the user's graded quizzes
func (c *Client) QuizSubmissions(ctx context.Context) ([]types.QuizResult, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "quiz.submissions",
		Method: http.MethodGet,
		Path:   "/quiz/submissions",
	})
	if err != nil {
		return nil, err
	}
	return DecodeList[types.QuizResult](resp.Data, submissionsPaths...)
}

// SearchJobs runs a job search
func (c *Client) SearchJobs(ctx context.Context, q types.JobQuery) ([]types.Job, error) {
	query := url.Values{}
	if q.Keywords != "" {
		query.Set("q", q.Keywords)
	}
	if q.Location != "" {
		query.Set("location", q.Location)
	}
	if q.Remote {
		query.Set("remote", "true")
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	resp, err := c.Do(ctx, Request{
		Name:   "jobs.search",
		Method: http.MethodGet,
		Path:   "/jobs/search",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return DecodeList[types.Job](resp.Data, jobsPaths...)
}

// Enrollments lists the user's internship enrollments
func (c *Client) Enrollments(ctx context.Context) ([]types.Enrollment, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "internships.enrollments",
		Method: http.MethodGet,
		Path:   "/internships/enrollments",
	})
	if err != nil {
		return nil, err
	}
	return DecodeList[types.Enrollment](resp.Data, enrollmentsPaths...)
}

// Enroll enrolls the user in an internship
func (c *Client) Enroll(ctx context.Context, internshipID string) (*types.Enrollment, error) {
	if internshipID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an internship id is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "internships.enroll",
		Method: http.MethodPost,
		Path:   "/internships/" + url.PathEscape(internshipID) + "/enroll",
	})
	if err != nil {
		return nil, err
	}
	enrollment, err := Decode[types.Enrollment](resp.Data, enrollmentPaths...)
	if err != nil {
		return nil, err
	}
	if enrollment.InternshipID == "" {
		enrollment.InternshipID = internshipID
	}
	return &enrollment, nil
}
