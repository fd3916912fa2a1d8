package types

import (
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of an interview session held by the store
type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"
	StatusLoading   SessionStatus = "loading"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
)

// RoundType identifies one phase of the mock interview
type RoundType string

const (
	RoundFormalQA     RoundType = "formal_qa"
	RoundTechnical    RoundType = "technical"
	RoundCoding       RoundType = "coding"
	RoundSystemDesign RoundType = "system_design"
	RoundHR           RoundType = "hr"
)

// DefaultRoundOrder is the sequence a full interview walks through
var DefaultRoundOrder = []RoundType{
	RoundFormalQA,
	RoundTechnical,
	RoundCoding,
	RoundSystemDesign,
	RoundHR,
}

// Valid reports whether r is one of the known round types
func (r RoundType) Valid() bool {
	for _, known := range DefaultRoundOrder {
		if r == known {
			return true
		}
	}
	return false
}

// InterviewMode selects between the full sequence and a single round
type InterviewMode string

const (
	ModeFull     InterviewMode = "full"
	ModeSpecific InterviewMode = "specific"
)

// NextAction is the server's instruction after an answer is evaluated
type NextAction string

const (
	ActionFollowUp      NextAction = "followup"
	ActionNextQuestion  NextAction = "next_question"
	ActionCompleteRound NextAction = "complete_round"
)

// Question is a prompt for the current round
type Question struct {
	ID         string    `json:"id" mapstructure:"id" yaml:"id"`
	Text       string    `json:"text" mapstructure:"text" yaml:"text"`
	Round      RoundType `json:"round,omitempty" mapstructure:"round" yaml:"round,omitempty"`
	Difficulty string    `json:"difficulty,omitempty" mapstructure:"difficulty" yaml:"difficulty,omitempty"`
	Hints      []string  `json:"hints,omitempty" mapstructure:"hints" yaml:"hints,omitempty"`
}

// FollowUp is a supplementary question attached to exactly one parent question
type FollowUp struct {
	ID         string `json:"id" mapstructure:"id" yaml:"id"`
	QuestionID string `json:"questionId" mapstructure:"question_id" yaml:"questionId"`
	Text       string `json:"text" mapstructure:"text" yaml:"text"`
}

// Evaluation is the score and feedback for the most recent answer
type Evaluation struct {
	Score        float64  `json:"score" mapstructure:"score" yaml:"score"`
	Feedback     string   `json:"feedback" mapstructure:"feedback" yaml:"feedback"`
	Strengths    []string `json:"strengths,omitempty" mapstructure:"strengths" yaml:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty" mapstructure:"improvements" yaml:"improvements,omitempty"`
}

// AnswerResult is what the backend returns after an answer or follow-up answer
type AnswerResult struct {
	Evaluation   Evaluation `json:"evaluation" mapstructure:"evaluation" yaml:"evaluation"`
	NextAction   NextAction `json:"nextAction" mapstructure:"next_action" yaml:"nextAction"`
	FollowUp     *FollowUp  `json:"followUp,omitempty" mapstructure:"follow_up" yaml:"followUp,omitempty"`
	NextQuestion *Question  `json:"nextQuestion,omitempty" mapstructure:"next_question" yaml:"nextQuestion,omitempty"`
}

// RoundSummary is the backend's summary of a completed round
type RoundSummary struct {
	Round    RoundType `json:"round" mapstructure:"round" yaml:"round"`
	Score    float64   `json:"score" mapstructure:"score" yaml:"score"`
	Feedback string    `json:"feedback,omitempty" mapstructure:"feedback" yaml:"feedback,omitempty"`
	Answered int       `json:"questionsAnswered,omitempty" mapstructure:"questions_answered" yaml:"questionsAnswered,omitempty"`
}

// Report is the terminal aggregate fetched once all rounds finish
type Report struct {
	SessionID       string         `json:"sessionId" mapstructure:"session_id" yaml:"sessionId"`
	OverallScore    float64        `json:"overallScore" mapstructure:"overall_score" yaml:"overallScore"`
	Strengths       []string       `json:"strengths" mapstructure:"strengths" yaml:"strengths"`
	Weaknesses      []string       `json:"weaknesses" mapstructure:"weaknesses" yaml:"weaknesses"`
	Recommendations []string       `json:"recommendations" mapstructure:"recommendations" yaml:"recommendations"`
	Rounds          []RoundSummary `json:"rounds" mapstructure:"rounds" yaml:"rounds"`
	Summary         string         `json:"summary,omitempty" mapstructure:"summary" yaml:"summary,omitempty"`
}

// StartRequest configures a new interview session
type StartRequest struct {
	Mode            InterviewMode `json:"interview_mode"`
	SpecificRound   RoundType     `json:"specific_round,omitempty"`
	JobRole         string        `json:"job_role"`
	ExperienceLevel string        `json:"experience_level,omitempty"`
	AnalysisID      string        `json:"resume_analysis_id,omitempty"`
}

// StartResult is the backend response to a start call
type StartResult struct {
	SessionID string      `json:"sessionId" mapstructure:"session_id"`
	Rounds    []RoundType `json:"rounds,omitempty" mapstructure:"rounds"`
	Question  *Question   `json:"question,omitempty" mapstructure:"question"`
}

// RemoteSession is the backend's view of an interview session, used to restore
type RemoteSession struct {
	SessionID       string        `json:"sessionId" mapstructure:"session_id"`
	Status          string        `json:"status" mapstructure:"status"`
	Mode            InterviewMode `json:"mode,omitempty" mapstructure:"interview_mode"`
	JobRole         string        `json:"jobRole,omitempty" mapstructure:"job_role"`
	Rounds          []RoundType   `json:"rounds" mapstructure:"rounds"`
	CompletedRounds []RoundType   `json:"completedRounds" mapstructure:"completed_rounds"`
	CurrentRound    RoundType     `json:"currentRound,omitempty" mapstructure:"current_round"`
	Question        *Question     `json:"question,omitempty" mapstructure:"-"`
	Report          *Report       `json:"report,omitempty" mapstructure:"report"`
}

// AnswerSubmission is a free-text answer to the current question
type AnswerSubmission struct {
	QuestionID string    `json:"question_id"`
	Round      RoundType `json:"round_type"`
	Answer     string    `json:"answer"`
}

// FollowUpSubmission is a free-text answer to a follow-up question
type FollowUpSubmission struct {
	FollowUpID string    `json:"followup_id,omitempty"`
	QuestionID string    `json:"question_id"`
	Round      RoundType `json:"round_type"`
	Answer     string    `json:"answer"`
}

// SessionSnapshot is a point-in-time copy of the interview session state.
// It is also the payload mirrored to local storage.
type SessionSnapshot struct {
	SessionID       string            `json:"sessionId" yaml:"sessionId"`
	Status          SessionStatus     `json:"status" yaml:"status"`
	Mode            InterviewMode     `json:"mode" yaml:"mode"`
	JobRole         string            `json:"jobRole,omitempty" yaml:"jobRole,omitempty"`
	Rounds          []RoundType       `json:"rounds" yaml:"rounds"`
	CompletedRounds []RoundType       `json:"completedRounds" yaml:"completedRounds"`
	CurrentRound    *RoundType        `json:"currentRound,omitempty" yaml:"currentRound,omitempty"`
	QuestionCounts  map[RoundType]int `json:"questionCounts,omitempty" yaml:"questionCounts,omitempty"`
	RoundDone       bool              `json:"roundDone,omitempty" yaml:"roundDone,omitempty"`
	Question        *Question         `json:"question,omitempty" yaml:"question,omitempty"`
	FollowUp        *FollowUp         `json:"followUp,omitempty" yaml:"followUp,omitempty"`
	Evaluation      *Evaluation       `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
	Report          *Report           `json:"report,omitempty" yaml:"report,omitempty"`
	History         []QAEntry         `json:"history,omitempty" yaml:"history,omitempty"`
	Loading         string            `json:"loading,omitempty" yaml:"loading,omitempty"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// QAEntry records one answered prompt within an interview session
type QAEntry struct {
	Round      RoundType   `json:"round" yaml:"round"`
	QuestionID string      `json:"questionId" yaml:"questionId"`
	Prompt     string      `json:"prompt" yaml:"prompt"`
	Answer     string      `json:"answer" yaml:"answer"`
	IsFollowUp bool        `json:"isFollowUp,omitempty" yaml:"isFollowUp,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
	AnsweredAt time.Time   `json:"answeredAt" yaml:"answeredAt"`
}

// AnalysisRequest is the target-role specification sent with a resume
type AnalysisRequest struct {
	ResumePath      string `json:"-"`
	JobRole         string `json:"job_role"`
	JobDescription  string `json:"job_description,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// ResumeAnalysis is the backend's analysis of a submitted resume. Fields are
// optional because a pending analysis returns only its id and status.
type ResumeAnalysis struct {
	ID              string             `json:"id" mapstructure:"id" yaml:"id"`
	Status          string             `json:"status,omitempty" mapstructure:"status" yaml:"status,omitempty"`
	JobRole         string             `json:"jobRole,omitempty" mapstructure:"job_role" yaml:"jobRole,omitempty"`
	OverallScore    *float64           `json:"overallScore,omitempty" mapstructure:"overall_score" yaml:"overallScore,omitempty"`
	SkillScores     map[string]float64 `json:"skillScores,omitempty" mapstructure:"skill_scores" yaml:"skillScores,omitempty"`
	Strengths       []string           `json:"strengths,omitempty" mapstructure:"strengths" yaml:"strengths,omitempty"`
	Weaknesses      []string           `json:"weaknesses,omitempty" mapstructure:"weaknesses" yaml:"weaknesses,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty" mapstructure:"recommendations" yaml:"recommendations,omitempty"`
	MissingSkills   []string           `json:"missingSkills,omitempty" mapstructure:"missing_skills" yaml:"missingSkills,omitempty"`
	Summary         string             `json:"summary,omitempty" mapstructure:"summary" yaml:"summary,omitempty"`
}

// Ready reports whether any result field is present
func (a *ResumeAnalysis) Ready() bool {
	if a == nil {
		return false
	}
	return a.OverallScore != nil || len(a.SkillScores) > 0 || len(a.Strengths) > 0
}

// Failed reports whether the backend gave up on the analysis. Results win
// over the status.
func (a *ResumeAnalysis) Failed() bool {
	if a == nil || a.Ready() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(a.Status)) {
	case "failed", "failure", "error":
		return true
	}
	return false
}

// QAResult is one answered question about an analysed resume
type QAResult struct {
	Question string    `json:"question" mapstructure:"question" yaml:"question"`
	Answer   string    `json:"answer" mapstructure:"answer" yaml:"answer"`
	AskedAt  time.Time `json:"askedAt" mapstructure:"-" yaml:"askedAt"`
}

// InterviewQuestion is a likely interview question generated from a resume
type InterviewQuestion struct {
	Question   string `json:"question" mapstructure:"question" yaml:"question"`
	Category   string `json:"category,omitempty" mapstructure:"category" yaml:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty" mapstructure:"difficulty" yaml:"difficulty,omitempty"`
	Rationale  string `json:"rationale,omitempty" mapstructure:"rationale" yaml:"rationale,omitempty"`
}

// QuestionBatch is one generated set of interview questions
type QuestionBatch struct {
	Questions   []InterviewQuestion `json:"questions" yaml:"questions"`
	GeneratedAt time.Time           `json:"generatedAt" yaml:"generatedAt"`
}

// CodingProblem is a practice problem for the coding round
type CodingProblem struct {
	ID          string   `json:"id" mapstructure:"id" yaml:"id"`
	Title       string   `json:"title" mapstructure:"title" yaml:"title"`
	Difficulty  string   `json:"difficulty" mapstructure:"difficulty" yaml:"difficulty"`
	Description string   `json:"description,omitempty" mapstructure:"description" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" mapstructure:"tags" yaml:"tags,omitempty"`
}

// QuizSubmission is the answer set sent for a quiz
type QuizSubmission struct {
	QuizID  string         `json:"-"`
	Answers map[string]any `json:"answers"`
}

// QuizResult is a graded quiz submission
type QuizResult struct {
	ID          string    `json:"id" mapstructure:"id" yaml:"id"`
	QuizID      string    `json:"quizId" mapstructure:"quiz_id" yaml:"quizId"`
	Title       string    `json:"title,omitempty" mapstructure:"title" yaml:"title,omitempty"`
	Score       float64   `json:"score" mapstructure:"score" yaml:"score"`
	Total       float64   `json:"total,omitempty" mapstructure:"total" yaml:"total,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" mapstructure:"submitted_at" yaml:"submittedAt"`
}

// JobQuery filters a job search
type JobQuery struct {
	Keywords string
	Location string
	Remote   bool
	Page     int
	Limit    int
}

// Job is a job search result
type Job struct {
	ID       string   `json:"id" mapstructure:"id" yaml:"id"`
	Title    string   `json:"title" mapstructure:"title" yaml:"title"`
	Company  string   `json:"company" mapstructure:"company" yaml:"company"`
	Location string   `json:"location,omitempty" mapstructure:"location" yaml:"location,omitempty"`
	Remote   bool     `json:"remote,omitempty" mapstructure:"remote" yaml:"remote,omitempty"`
	URL      string   `json:"url,omitempty" mapstructure:"url" yaml:"url,omitempty"`
	Skills   []string `json:"skills,omitempty" mapstructure:"skills" yaml:"skills,omitempty"`
}

// Enrollment is the user's enrollment in an internship programme
type Enrollment struct {
	ID           string    `json:"id" mapstructure:"id" yaml:"id"`
	InternshipID string    `json:"internshipId" mapstructure:"internship_id" yaml:"internshipId"`
	Title        string    `json:"title" mapstructure:"title" yaml:"title"`
	Company      string    `json:"company,omitempty" mapstructure:"company" yaml:"company,omitempty"`
	Status       string    `json:"status" mapstructure:"status" yaml:"status"`
	EnrolledAt   time.Time `json:"enrolledAt" mapstructure:"enrolled_at" yaml:"enrolledAt"`
}

// User is the authenticated account
type User struct {
	ID    string `json:"id" mapstructure:"id" yaml:"id"`
	Email string `json:"email" mapstructure:"email" yaml:"email"`
	Name  string `json:"name,omitempty" mapstructure:"name" yaml:"name,omitempty"`
}

// Credentials are used to log in
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResumeDraft is a resume assembled locally by the builder wizard
type ResumeDraft struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Email      string            `json:"email" yaml:"email"`
	Phone      string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Headline   string            `json:"headline,omitempty" yaml:"headline,omitempty"`
	Summary    string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty" yaml:"skills,omitempty"`
	Experience []DraftExperience `json:"experience,omitempty" yaml:"experience,omitempty"`
	Education  []DraftEducation  `json:"education,omitempty" yaml:"education,omitempty"`
	CreatedAt  time.Time         `json:"createdAt" yaml:"createdAt"`
}

// DraftExperience is one position in a resume draft
type DraftExperience struct {
	Title   string `json:"title" yaml:"title"`
	Company string `json:"company" yaml:"company"`
	Period  string `json:"period,omitempty" yaml:"period,omitempty"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// DraftEducation is one qualification in a resume draft
type DraftEducation struct {
	Degree      string `json:"degree" yaml:"degree"`
	Institution string `json:"institution" yaml:"institution"`
	Year        string `json:"year,omitempty" yaml:"year,omitempty"`
}
