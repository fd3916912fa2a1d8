package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

var (
	sessionIDPaths    = []string{"session_id", "sessionId", "data.session_id", "data.sessionId", "data.data.session_id", "data.data.sessionId", "id", "data.id"}
	roundsPaths       = []string{"rounds", "data.rounds", "data.data.rounds", "interview_rounds", "data.interview_rounds"}
	startQuestionPath = []string{"question", "data.question", "data.data.question", "first_question", "data.first_question"}
	questionPaths     = []string{"data.question", "data.data.question", "question", "data.data", "data", "@"}
	questionTextPaths = []string{"text", "question_text", "questionText", "question", "prompt", "content"}
	questionIDPaths   = []string{"id", "question_id", "questionId"}
	resultPaths       = []string{"data.data", "data", "@"}
	evaluationPaths   = []string{"evaluation", "data.evaluation", "data.data.evaluation", "feedback_result"}
	nextActionPaths   = []string{"next_action", "nextAction", "data.next_action", "data.nextAction", "data.data.next_action"}
	followUpPaths     = []string{"follow_up", "followup", "followUp", "follow_up_question", "data.follow_up", "data.followup", "data.followUp", "data.follow_up_question"}
	nextQuestionPaths = []string{"next_question", "nextQuestion", "data.next_question", "data.nextQuestion"}
	summaryPaths      = []string{"data.summary", "data.round_summary", "summary", "round_summary", "data.data", "data", "@"}
	reportPaths       = []string{"data.report", "data.data.report", "report", "data.data", "data", "@"}
	sessionPaths      = []string{"data.session", "data.data", "session", "data", "@"}
	problemsPaths     = []string{"data.problems", "data.data.problems", "problems", "data"}
)

// startQuestionIDPaths leaves out "id", which names the session in a start response
var startQuestionIDPaths = []string{"question_id", "questionId"}

// StartInterview creates a new interview session
func (c *Client) StartInterview(ctx context.Context, req types.StartRequest) (*types.StartResult, error) {
	if req.JobRole == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "a target job role is required", nil)
	}
	if req.Mode == types.ModeSpecific && !req.SpecificRound.Valid() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "specific mode needs a valid round", nil).
			WithContext("round", string(req.SpecificRound))
	}

	resp, err := c.Do(ctx, Request{
		Name:   "interview.start",
		Method: http.MethodPost,
		Path:   "/interview/start",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	result := &types.StartResult{SessionID: LocateString(resp.Data, sessionIDPaths...)}
	if result.SessionID == "" {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server did not return a session id", nil)
	}
	if rounds, err := DecodeList[types.RoundType](resp.Data, roundsPaths...); err == nil {
		result.Rounds = rounds
	}
	if question, err := locateQuestion(resp.Data, startQuestionPath, startQuestionIDPaths); err == nil {
		result.Question = question
	}
	return result, nil
}

// GetInterview fetches the server's view of a session
func (c *Client) GetInterview(ctx context.Context, sessionID string) (*types.RemoteSession, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "interview.get",
		Method: http.MethodGet,
		Path:   interviewPath(sessionID, ""),
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}

	session, err := Decode[types.RemoteSession](resp.Data, sessionPaths...)
	if err != nil {
		return nil, err
	}
	if session.SessionID == "" {
		session.SessionID = sessionID
	}
	if raw, ok := Locate(resp.Data, "current_question", "data.current_question", "data.data.current_question", "currentQuestion", "data.currentQuestion"); ok {
		if question, err := decodeQuestion(raw); err == nil {
			session.Question = question
		}
	}
	return &session, nil
}

// NextQuestion asks the server for the next question in a round
func (c *Client) NextQuestion(ctx context.Context, sessionID string, round types.RoundType) (*types.Question, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "interview.question",
		Method: http.MethodPost,
		Path:   interviewPath(sessionID, "question"),
		Body:   map[string]string{"round_type": string(round)},
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}

	question, err := locateQuestion(resp.Data, questionPaths, questionIDPaths)
	if err != nil {
		return nil, err
	}
	if question.ID == "" {
		question.ID = LocateString(resp.Data, "question_id", "questionId", "data.question_id", "data.questionId")
	}
	if question.Round == "" {
		question.Round = round
	}
	return question, nil
}

// SubmitAnswer sends the answer to the current question
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, sub types.AnswerSubmission) (*types.AnswerResult, error) {
	if strings.TrimSpace(sub.Answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an answer is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "interview.answer",
		Method: http.MethodPost,
		Path:   interviewPath(sessionID, "answer"),
		Body:   sub,
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}
	return decodeAnswerResult(resp.Data, sub.QuestionID)
}

// SubmitFollowUp sends the answer to the current follow-up question
func (c *Client) SubmitFollowUp(ctx context.Context, sessionID string, sub types.FollowUpSubmission) (*types.AnswerResult, error) {
	if strings.TrimSpace(sub.Answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an answer is required", nil)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "interview.followup",
		Method: http.MethodPost,
		Path:   interviewPath(sessionID, "followup"),
		Body:   sub,
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}
	return decodeAnswerResult(resp.Data, sub.QuestionID)
}

// CompleteRound marks a round as finished on the server
func (c *Client) CompleteRound(ctx context.Context, sessionID string, round types.RoundType) (*types.RoundSummary, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "interview.complete_round",
		Method: http.MethodPost,
		Path:   interviewPath(sessionID, "complete-round"),
		Body:   map[string]string{"round_type": string(round)},
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}

	summary := &types.RoundSummary{Round: round}
	if decoded, err := Decode[types.RoundSummary](resp.Data, summaryPaths...); err == nil {
		summary = &decoded
		if summary.Round == "" {
			summary.Round = round
		}
	}
	return summary, nil
}

// GenerateReport requests the final report for a session
func (c *Client) GenerateReport(ctx context.Context, sessionID string) (*types.Report, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "interview.report",
		Method: http.MethodPost,
		Path:   interviewPath(sessionID, "report"),
	})
	if err != nil {
		return nil, staleSession(err, sessionID)
	}

	report, err := Decode[types.Report](resp.Data, reportPaths...)
	if err != nil {
		return nil, err
	}
	if report.SessionID == "" {
		report.SessionID = sessionID
	}
	return &report, nil
}

// CodingProblems lists practice problems, optionally filtered by difficulty
func (c *Client) CodingProblems(ctx context.Context, difficulty string) ([]types.CodingProblem, error) {
	query := url.Values{}
	if difficulty != "" {
		query.Set("difficulty", difficulty)
	}
	resp, err := c.Do(ctx, Request{
		Name:   "interview.problems",
		Method: http.MethodGet,
		Path:   "/interview/problems",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return DecodeList[types.CodingProblem](resp.Data, problemsPaths...)
}

func interviewPath(sessionID, action string) string {
	path := "/interview/" + url.PathEscape(sessionID)
	if action != "" {
		path += "/" + action
	}
	return path
}

// staleSession turns a 404 on a session endpoint into a session error
func staleSession(err error, sessionID string) error {
	if StatusOf(err) == http.StatusNotFound {
		return errors.NewSessionError(errors.ErrCodeStaleSession,
			"this interview session no longer exists on the server", err).
			WithContext("session_id", sessionID)
	}
	return err
}

// decodeQuestion accepts a question object or a bare prompt string
// locateQuestion finds a question at one of paths. A question sent as a bare
// string takes its id from the object that holds the string.
func locateQuestion(data any, paths, siblingIDPaths []string) (*types.Question, error) {
	raw, parent, ok := LocateWithParent(data, paths...)
	if !ok {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server did not return a question", nil)
	}
	question, err := decodeQuestion(raw)
	if err != nil {
		return nil, err
	}
	if _, bare := raw.(string); bare && question.ID == "" && parent != nil {
		question.ID = LocateString(parent, siblingIDPaths...)
	}
	return question, nil
}

func decodeQuestion(raw any) (*types.Question, error) {
	if text, ok := raw.(string); ok {
		if strings.TrimSpace(text) == "" {
			return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server returned an empty question", nil)
		}
		return &types.Question{Text: text}, nil
	}

	question, err := Decode[types.Question](raw, "@")
	if err != nil {
		return nil, err
	}
	if question.Text == "" {
		question.Text = LocateString(raw, questionTextPaths...)
	}
	if question.ID == "" {
		question.ID = LocateString(raw, questionIDPaths...)
	}
	if strings.TrimSpace(question.Text) == "" {
		return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server returned an empty question", nil)
	}
	return &question, nil
}

func decodeAnswerResult(data any, questionID string) (*types.AnswerResult, error) {
	result := &types.AnswerResult{}

	if evaluation, err := Decode[types.Evaluation](data, evaluationPaths...); err == nil {
		result.Evaluation = evaluation
	} else if flat, err := Decode[types.Evaluation](data, resultPaths...); err == nil {
		result.Evaluation = flat
	}

	if raw, ok := Locate(data, followUpPaths...); ok {
		if followUp := decodeFollowUp(raw, questionID); followUp != nil {
			result.FollowUp = followUp
		}
	}
	if raw, ok := Locate(data, nextQuestionPaths...); ok {
		if question, err := decodeQuestion(raw); err == nil {
			result.NextQuestion = question
		}
	}

	result.NextAction = NormalizeAction(LocateString(data, nextActionPaths...), result.FollowUp != nil)
	return result, nil
}

func decodeFollowUp(raw any, questionID string) *types.FollowUp {
	if text, ok := raw.(string); ok {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return &types.FollowUp{QuestionID: questionID, Text: text}
	}
	followUp, err := Decode[types.FollowUp](raw, "@")
	if err != nil {
		return nil
	}
	if followUp.Text == "" {
		followUp.Text = LocateString(raw, questionTextPaths...)
	}
	if strings.TrimSpace(followUp.Text) == "" {
		return nil
	}
	if followUp.QuestionID == "" {
		followUp.QuestionID = questionID
	}
	return &followUp
}

// NormalizeAction maps the server's next-action spelling onto the known
// actions. An unknown or missing action means follow-up when one was sent,
// otherwise the next question.
func NormalizeAction(action string, hasFollowUp bool) types.NextAction {
	key := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(action)))
	switch key {
	case "followup", "follow_up", "ask_followup", "ask_follow_up":
		return types.ActionFollowUp
	case "next_question", "nextquestion", "next", "continue":
		return types.ActionNextQuestion
	case "complete_round", "completeround", "round_complete", "end_round", "complete":
		return types.ActionCompleteRound
	}
	if hasFollowUp {
		return types.ActionFollowUp
	}
	return types.ActionNextQuestion
}
