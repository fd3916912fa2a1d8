package interview

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/storage"
	"prepcoach/internal/types"
)

//go:generate go tool mockgen -destination=mock_backend_test.go -package=interview prepcoach/internal/interview Backend

// Backend is the remote interview API
type Backend interface {
	StartInterview(ctx context.Context, req types.StartRequest) (*types.StartResult, error)
	GetInterview(ctx context.Context, sessionID string) (*types.RemoteSession, error)
	NextQuestion(ctx context.Context, sessionID string, round types.RoundType) (*types.Question, error)
	SubmitAnswer(ctx context.Context, sessionID string, sub types.AnswerSubmission) (*types.AnswerResult, error)
	SubmitFollowUp(ctx context.Context, sessionID string, sub types.FollowUpSubmission) (*types.AnswerResult, error)
	CompleteRound(ctx context.Context, sessionID string, round types.RoundType) (*types.RoundSummary, error)
	GenerateReport(ctx context.Context, sessionID string) (*types.Report, error)
}

// Persister mirrors session state to local storage
type Persister interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
	PutString(key, value string) error
	GetString(key string) (string, error)
	Delete(keys ...string) error
}

// Metrics receives interview lifecycle events
type Metrics interface {
	SessionStarted(ctx context.Context, mode string)
	AnswerSubmitted(ctx context.Context, round string, followUp bool, score float64)
	RoundCompleted(ctx context.Context, round string)
	SessionCompleted(ctx context.Context, overallScore float64)
}

// Options configures a Store
type Options struct {
	Backend Backend
	// Mirror is optional; without it sessions cannot be resumed
	Mirror  Persister
	Plan    Plan
	Logger  *errors.Logger
	Metrics Metrics
	Clock   func() time.Time
}

// Store is the single source of truth for interview progress. Every action
// performs one backend call and applies one transition. Only one action may
// run at a time; an overlapping call fails with ACTION_IN_FLIGHT.
type Store struct {
	mu        sync.Mutex
	busy      bool
	state     types.SessionSnapshot
	backend   Backend
	mirror    Persister
	plan      Plan
	logger    *errors.Logger
	metrics   Metrics
	now       func() time.Time
	listeners []func(types.SessionSnapshot)
}

// NewStore creates an idle store
func NewStore(opts Options) *Store {
	plan := opts.Plan
	if len(plan.Order) == 0 {
		plan = DefaultPlan()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		backend: opts.Backend,
		mirror:  opts.Mirror,
		plan:    plan,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     clock,
	}
	s.state = s.idleState()
	return s
}

// Plan returns the store's round plan
func (s *Store) Plan() Plan {
	return s.plan
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.state)
}

// Subscribe registers fn to receive a snapshot after every state change
func (s *Store) Subscribe(fn func(types.SessionSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Start creates a new session on the server and resets local history
func (s *Store) Start(ctx context.Context, req types.StartRequest) error {
	rounds, err := s.plan.Rounds(req.Mode, req.SpecificRound)
	if err != nil {
		return err
	}
	if req.Mode == "" {
		req.Mode = types.ModeFull
	}
	if strings.TrimSpace(req.JobRole) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "a target job role is required", nil)
	}

	if err := s.begin("Starting your interview...", nil); err != nil {
		return err
	}
	result, err := s.backend.StartInterview(ctx, req)
	if err != nil {
		return s.fail(err, "start")
	}

	s.finish(func(st *types.SessionSnapshot) {
		*st = s.idleState()
		st.SessionID = result.SessionID
		st.Status = types.StatusActive
		st.Mode = req.Mode
		st.JobRole = req.JobRole
		st.Rounds = rounds
		first := rounds[0]
		st.CurrentRound = &first
		if result.Question != nil {
			s.adoptQuestion(st, result.Question)
		}
	})
	if s.metrics != nil {
		s.metrics.SessionStarted(ctx, string(req.Mode))
	}
	s.logger.Info("Interview started", "session_id", result.SessionID, "mode", req.Mode, "rounds", len(rounds))
	return nil
}

// Restore reloads the mirrored session and reconciles it with the server.
// A session the server no longer knows is dropped from the mirror.
func (s *Store) Restore(ctx context.Context) error {
	local, err := s.loadMirror()
	if err != nil {
		return err
	}
	if local.SessionID == "" {
		return errors.NewSessionError(errors.ErrCodeNoSession, "there is no interview to resume", nil)
	}

	if err := s.begin("Restoring your interview...", nil); err != nil {
		return err
	}
	remote, err := s.backend.GetInterview(ctx, local.SessionID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeStaleSession) {
			s.clearMirror()
			s.finish(func(st *types.SessionSnapshot) {
				*st = s.idleState()
				st.Error = errors.UserMessage(err)
			})
			return err
		}
		s.mu.Lock()
		s.state = local
		s.mu.Unlock()
		return s.fail(err, "restore")
	}

	s.finish(func(st *types.SessionSnapshot) {
		*st = reconcile(local, remote, s.plan)
	})
	s.logger.Info("Interview restored", "session_id", local.SessionID)
	return nil
}

// GetQuestion fetches the next question for the current round
func (s *Store) GetQuestion(ctx context.Context) error {
	var sessionID string
	var round types.RoundType
	guard := func(st *types.SessionSnapshot) error {
		if err := requireRound(st); err != nil {
			return err
		}
		if st.FollowUp != nil {
			return invalidTransition("answer the follow-up question first")
		}
		if st.QuestionCounts[*st.CurrentRound] >= s.plan.Ceiling(*st.CurrentRound) {
			return invalidTransition("this round has reached its question limit")
		}
		sessionID, round = st.SessionID, *st.CurrentRound
		return nil
	}
	if err := s.begin("Fetching your next question...", guard); err != nil {
		return err
	}

	question, err := s.backend.NextQuestion(ctx, sessionID, round)
	if err == nil && question == nil {
		err = errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "the server did not return a question", nil)
	}
	if err != nil {
		return s.fail(err, "get_question")
	}
	s.finish(func(st *types.SessionSnapshot) {
		st.RoundDone = false
		s.adoptQuestion(st, question)
	})
	return nil
}

// SubmitAnswer sends the answer to the current question. The returned result
// has its next action normalised: followup only when a follow-up was sent.
func (s *Store) SubmitAnswer(ctx context.Context, answer string) (*types.AnswerResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an answer is required", nil)
	}

	var sessionID string
	var round types.RoundType
	var question types.Question
	guard := func(st *types.SessionSnapshot) error {
		if err := requireRound(st); err != nil {
			return err
		}
		if st.FollowUp != nil {
			return invalidTransition("answer the follow-up question first")
		}
		if st.Question == nil {
			return invalidTransition("there is no question to answer")
		}
		sessionID, round, question = st.SessionID, *st.CurrentRound, *st.Question
		return nil
	}
	if err := s.begin("Evaluating your answer...", guard); err != nil {
		return nil, err
	}

	result, err := s.backend.SubmitAnswer(ctx, sessionID, types.AnswerSubmission{
		QuestionID: question.ID,
		Round:      round,
		Answer:     answer,
	})
	if err != nil {
		return nil, s.fail(err, "submit_answer")
	}

	normalized := *result
	if normalized.NextAction == types.ActionFollowUp && normalized.FollowUp == nil {
		normalized.NextAction = types.ActionNextQuestion
	}

	s.finish(func(st *types.SessionSnapshot) {
		s.recordAnswer(st, round, question.ID, question.Text, answer, false, normalized.Evaluation)
		switch normalized.NextAction {
		case types.ActionFollowUp:
			followUp := *normalized.FollowUp
			if followUp.QuestionID == "" {
				followUp.QuestionID = question.ID
			}
			st.FollowUp = &followUp
		default:
			s.applyNext(st, &normalized)
		}
	})
	if s.metrics != nil {
		s.metrics.AnswerSubmitted(ctx, string(round), false, normalized.Evaluation.Score)
	}
	return &normalized, nil
}

// SubmitFollowUp sends the answer to the active follow-up. Follow-ups never
// nest: a second followup action is treated as next_question.
func (s *Store) SubmitFollowUp(ctx context.Context, answer string) (*types.AnswerResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "an answer is required", nil)
	}

	var sessionID string
	var round types.RoundType
	var followUp types.FollowUp
	guard := func(st *types.SessionSnapshot) error {
		if err := requireRound(st); err != nil {
			return err
		}
		if st.FollowUp == nil {
			return invalidTransition("there is no follow-up question to answer")
		}
		sessionID, round, followUp = st.SessionID, *st.CurrentRound, *st.FollowUp
		return nil
	}
	if err := s.begin("Evaluating your follow-up answer...", guard); err != nil {
		return nil, err
	}

	result, err := s.backend.SubmitFollowUp(ctx, sessionID, types.FollowUpSubmission{
		FollowUpID: followUp.ID,
		QuestionID: followUp.QuestionID,
		Round:      round,
		Answer:     answer,
	})
	if err != nil {
		return nil, s.fail(err, "submit_followup")
	}

	normalized := *result
	if normalized.NextAction == types.ActionFollowUp {
		normalized.NextAction = types.ActionNextQuestion
		normalized.FollowUp = nil
	}

	s.finish(func(st *types.SessionSnapshot) {
		s.recordAnswer(st, round, followUp.QuestionID, followUp.Text, answer, true, normalized.Evaluation)
		st.FollowUp = nil
		s.applyNext(st, &normalized)
	})
	if s.metrics != nil {
		s.metrics.AnswerSubmitted(ctx, string(round), true, normalized.Evaluation.Score)
	}
	return &normalized, nil
}

// CompleteRound finishes the current round and advances the pointer to the
// next planned round, or to nil after the last one.
func (s *Store) CompleteRound(ctx context.Context) (*types.RoundSummary, error) {
	var sessionID string
	var round types.RoundType
	guard := func(st *types.SessionSnapshot) error {
		if err := requireRound(st); err != nil {
			return err
		}
		if st.FollowUp != nil {
			return invalidTransition("answer the follow-up question first")
		}
		sessionID, round = st.SessionID, *st.CurrentRound
		return nil
	}
	if err := s.begin("Wrapping up the "+DisplayName(currentRoundOf(s))+" round...", guard); err != nil {
		return nil, err
	}

	summary, err := s.backend.CompleteRound(ctx, sessionID, round)
	if err != nil {
		return nil, s.fail(err, "complete_round")
	}

	s.finish(func(st *types.SessionSnapshot) {
		if !slices.Contains(st.CompletedRounds, round) {
			st.CompletedRounds = append(st.CompletedRounds, round)
		}
		st.Question = nil
		st.FollowUp = nil
		st.RoundDone = false
		st.CurrentRound = NextRound(st.Rounds, round)
		if st.CurrentRound == nil {
			st.Status = types.StatusCompleted
		}
	})
	if s.metrics != nil {
		s.metrics.RoundCompleted(ctx, string(round))
	}
	s.logger.Info("Interview round completed", "session_id", sessionID, "round", round)
	return summary, nil
}

// GenerateReport fetches the final report once every round is complete. The
// session is then dropped from the mirror.
func (s *Store) GenerateReport(ctx context.Context) (*types.Report, error) {
	var sessionID string
	guard := func(st *types.SessionSnapshot) error {
		if st.SessionID == "" {
			return errors.NewSessionError(errors.ErrCodeNoSession, "there is no active interview", nil)
		}
		if st.CurrentRound != nil {
			return invalidTransition("finish every round before generating the report")
		}
		sessionID = st.SessionID
		return nil
	}
	if err := s.begin("Generating your interview report...", guard); err != nil {
		return nil, err
	}

	report, err := s.backend.GenerateReport(ctx, sessionID)
	if err != nil {
		return nil, s.fail(err, "generate_report")
	}

	s.finish(func(st *types.SessionSnapshot) {
		st.Report = report
		st.Status = types.StatusCompleted
	})
	s.clearMirror()
	if s.metrics != nil {
		s.metrics.SessionCompleted(ctx, report.OverallScore)
	}
	s.logger.Info("Interview report generated", "session_id", sessionID, "overall_score", report.OverallScore)
	return report, nil
}

// Reset abandons the session locally and removes it from the mirror
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busyError()
	}
	s.state = s.idleState()
	snapshot, listeners := cloneSnapshot(s.state), slices.Clone(s.listeners)
	s.mu.Unlock()

	s.clearMirror()
	notify(listeners, snapshot)
	return nil
}

// DismissError clears the error banner without changing progress
func (s *Store) DismissError() {
	s.mu.Lock()
	if s.state.Status == types.StatusError {
		s.state.Status = s.settledStatus(&s.state)
	}
	s.state.Error = ""
	snapshot, listeners := cloneSnapshot(s.state), slices.Clone(s.listeners)
	s.mu.Unlock()
	notify(listeners, snapshot)
}

// begin marks an action in flight. guard runs under the lock and may reject
// the action before any state changes.
func (s *Store) begin(message string, guard func(*types.SessionSnapshot) error) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busyError()
	}
	if guard != nil {
		if err := guard(&s.state); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.busy = true
	s.state.Status = types.StatusLoading
	s.state.Loading = message
	s.state.Error = ""
	snapshot, listeners := cloneSnapshot(s.state), slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, snapshot)
	return nil
}

// finish applies a successful transition, settles the status and mirrors it
func (s *Store) finish(apply func(*types.SessionSnapshot)) {
	s.mu.Lock()
	s.busy = false
	s.state.Loading = ""
	s.state.Error = ""
	apply(&s.state)
	if s.state.Status == types.StatusLoading || s.state.Status == types.StatusError {
		s.state.Status = s.settledStatus(&s.state)
	}
	s.state.UpdatedAt = s.now().UTC()
	snapshot, listeners := cloneSnapshot(s.state), slices.Clone(s.listeners)
	s.mu.Unlock()

	s.persist(snapshot)
	notify(listeners, snapshot)
}

// fail records a failed action. Progress is kept so the user can retry.
func (s *Store) fail(err error, action string) error {
	s.mu.Lock()
	s.busy = false
	s.state.Loading = ""
	s.state.Status = types.StatusError
	s.state.Error = errors.UserMessage(err)
	s.state.UpdatedAt = s.now().UTC()
	snapshot, listeners := cloneSnapshot(s.state), slices.Clone(s.listeners)
	s.mu.Unlock()

	s.logger.LogError(err, "Interview action failed", "action", action, "session_id", snapshot.SessionID)
	s.persist(snapshot)
	notify(listeners, snapshot)
	return err
}

// settledStatus is the status a session rests in when no action runs
func (s *Store) settledStatus(st *types.SessionSnapshot) types.SessionStatus {
	switch {
	case st.SessionID == "":
		return types.StatusIdle
	case st.CurrentRound == nil:
		return types.StatusCompleted
	default:
		return types.StatusActive
	}
}

func (s *Store) idleState() types.SessionSnapshot {
	return types.SessionSnapshot{
		Status:          types.StatusIdle,
		Rounds:          []types.RoundType{},
		CompletedRounds: []types.RoundType{},
		QuestionCounts:  map[types.RoundType]int{},
	}
}

// adoptQuestion makes q the active question unless the round is at its ceiling
func (s *Store) adoptQuestion(st *types.SessionSnapshot, q *types.Question) {
	if st.CurrentRound == nil || q == nil {
		return
	}
	round := *st.CurrentRound
	if st.QuestionCounts == nil {
		st.QuestionCounts = map[types.RoundType]int{}
	}
	if st.QuestionCounts[round] >= s.plan.Ceiling(round) {
		st.Question = nil
		return
	}
	question := *q
	if question.Round == "" {
		question.Round = round
	}
	st.Question = &question
	st.FollowUp = nil
	st.QuestionCounts[round]++
}

// applyNext handles next_question and complete_round after an evaluated answer
func (s *Store) applyNext(st *types.SessionSnapshot, result *types.AnswerResult) {
	st.Question = nil
	switch result.NextAction {
	case types.ActionCompleteRound:
		st.RoundDone = true
	default:
		if result.NextQuestion != nil {
			s.adoptQuestion(st, result.NextQuestion)
		}
	}
}

func (s *Store) recordAnswer(st *types.SessionSnapshot, round types.RoundType, questionID, prompt, answer string, followUp bool, evaluation types.Evaluation) {
	eval := evaluation
	st.Evaluation = &eval
	st.History = append(st.History, types.QAEntry{
		Round:      round,
		QuestionID: questionID,
		Prompt:     prompt,
		Answer:     answer,
		IsFollowUp: followUp,
		Evaluation: &eval,
		AnsweredAt: s.now().UTC(),
	})
}

func (s *Store) persist(snapshot types.SessionSnapshot) {
	if s.mirror == nil || snapshot.SessionID == "" {
		return
	}
	snapshot.Loading = ""
	if err := s.mirror.PutString(storage.KeyInterviewSessionID, snapshot.SessionID); err != nil {
		s.logger.Warn("Failed to mirror interview session id", "error", err.Error())
		return
	}
	if err := s.mirror.Put(storage.KeyInterviewSessionData, snapshot); err != nil {
		s.logger.Warn("Failed to mirror interview session", "error", err.Error())
	}
}

func (s *Store) clearMirror() {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Delete(storage.KeyInterviewSessionID, storage.KeyInterviewSessionData); err != nil {
		s.logger.Warn("Failed to clear mirrored interview session", "error", err.Error())
	}
}

// loadMirror returns the mirrored snapshot, falling back to the in-memory
// session when nothing is mirrored
func (s *Store) loadMirror() (types.SessionSnapshot, error) {
	s.mu.Lock()
	current := cloneSnapshot(s.state)
	s.mu.Unlock()

	if s.mirror == nil {
		return current, nil
	}
	sessionID, err := s.mirror.GetString(storage.KeyInterviewSessionID)
	if err != nil {
		return types.SessionSnapshot{}, err
	}
	if sessionID == "" {
		return current, nil
	}

	var local types.SessionSnapshot
	found, err := s.mirror.Get(storage.KeyInterviewSessionData, &local)
	if err != nil {
		s.logger.Warn("Ignoring unreadable mirrored interview session", "error", err.Error())
		found = false
	}
	if !found || local.SessionID != sessionID {
		local = s.idleState()
		local.SessionID = sessionID
	}
	if local.QuestionCounts == nil {
		local.QuestionCounts = map[types.RoundType]int{}
	}
	return local, nil
}

// reconcile merges the mirrored view with the server's. Completed rounds only
// grow, so the pointer never moves backwards.
func reconcile(local types.SessionSnapshot, remote *types.RemoteSession, plan Plan) types.SessionSnapshot {
	st := cloneSnapshot(local)
	st.Loading = ""
	st.Error = ""

	if len(st.Rounds) == 0 {
		switch {
		case len(remote.Rounds) > 0:
			st.Rounds = slices.Clone(remote.Rounds)
		case remote.Mode == types.ModeSpecific && remote.CurrentRound.Valid():
			st.Rounds = []types.RoundType{remote.CurrentRound}
		default:
			st.Rounds = slices.Clone(plan.Order)
		}
	}
	if st.Mode == "" {
		st.Mode = remote.Mode
		if st.Mode == "" {
			st.Mode = types.ModeFull
		}
	}
	if st.JobRole == "" {
		st.JobRole = remote.JobRole
	}

	for _, round := range st.Rounds {
		if slices.Contains(remote.CompletedRounds, round) && !slices.Contains(st.CompletedRounds, round) {
			st.CompletedRounds = append(st.CompletedRounds, round)
		}
	}
	// keep completed rounds in planned order
	ordered := make([]types.RoundType, 0, len(st.CompletedRounds))
	for _, round := range st.Rounds {
		if slices.Contains(st.CompletedRounds, round) {
			ordered = append(ordered, round)
		}
	}
	st.CompletedRounds = ordered

	previous := st.CurrentRound
	st.CurrentRound = FirstPending(st.Rounds, st.CompletedRounds)
	if previous == nil || st.CurrentRound == nil || *previous != *st.CurrentRound {
		st.Question = nil
		st.FollowUp = nil
		st.RoundDone = false
	}
	if st.CurrentRound != nil && st.Question == nil && remote.Question != nil &&
		(remote.Question.Round == "" || remote.Question.Round == *st.CurrentRound) {
		question := *remote.Question
		st.Question = &question
		if st.QuestionCounts == nil {
			st.QuestionCounts = map[types.RoundType]int{}
		}
		if st.QuestionCounts[*st.CurrentRound] == 0 {
			st.QuestionCounts[*st.CurrentRound] = 1
		}
	}
	if remote.Report != nil {
		st.Report = remote.Report
	}

	switch {
	case st.CurrentRound == nil:
		st.Status = types.StatusCompleted
	default:
		st.Status = types.StatusActive
	}
	return st
}

func requireRound(st *types.SessionSnapshot) error {
	if st.SessionID == "" {
		return errors.NewSessionError(errors.ErrCodeNoSession, "there is no active interview", nil)
	}
	if st.CurrentRound == nil {
		return invalidTransition("every round is already complete")
	}
	return nil
}

func currentRoundOf(s *Store) types.RoundType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentRound == nil {
		return ""
	}
	return *s.state.CurrentRound
}

func invalidTransition(message string) error {
	return errors.NewSessionError(errors.ErrCodeInvalidTransition, message, nil)
}

func busyError() error {
	return errors.NewSessionError(errors.ErrCodeActionInFlight, "another interview action is still running", nil)
}

func notify(listeners []func(types.SessionSnapshot), snapshot types.SessionSnapshot) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func cloneSnapshot(st types.SessionSnapshot) types.SessionSnapshot {
	out := st
	out.Rounds = slices.Clone(st.Rounds)
	out.CompletedRounds = slices.Clone(st.CompletedRounds)
	out.History = slices.Clone(st.History)
	if st.CurrentRound != nil {
		round := *st.CurrentRound
		out.CurrentRound = &round
	}
	if st.QuestionCounts != nil {
		out.QuestionCounts = make(map[types.RoundType]int, len(st.QuestionCounts))
		for k, v := range st.QuestionCounts {
			out.QuestionCounts[k] = v
		}
	}
	if st.Question != nil {
		question := *st.Question
		question.Hints = slices.Clone(st.Question.Hints)
		out.Question = &question
	}
	if st.FollowUp != nil {
		followUp := *st.FollowUp
		out.FollowUp = &followUp
	}
	if st.Evaluation != nil {
		evaluation := *st.Evaluation
		out.Evaluation = &evaluation
	}
	return out
}
