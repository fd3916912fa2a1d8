package formatters

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"prepcoach/internal/interview"
	"prepcoach/internal/types"
)

func registerTextFormatters(r *FormatterRegistry) {
	r.RegisterFormatter("text", TypeAnalysis, typed[types.ResumeAnalysis]{TypeAnalysis, analysisText})
	r.RegisterFormatter("text", TypeReport, typed[types.Report]{TypeReport, reportText})
	r.RegisterFormatter("text", TypeSession, typed[types.SessionSnapshot]{TypeSession, sessionText})
	r.RegisterFormatter("text", TypeQAHistory, typed[[]types.QAResult]{TypeQAHistory, qaHistoryText})
	r.RegisterFormatter("text", TypeQuestionBatch, typed[types.QuestionBatch]{TypeQuestionBatch, questionBatchText})
	r.RegisterFormatter("text", TypeQuestionHistory, typed[[]types.QuestionBatch]{TypeQuestionHistory, questionHistoryText})
	r.RegisterFormatter("text", TypeProblems, typed[[]types.CodingProblem]{TypeProblems, problemsText})
	r.RegisterFormatter("text", TypeJobs, typed[[]types.Job]{TypeJobs, jobsText})
	r.RegisterFormatter("text", TypeEnrollments, typed[[]types.Enrollment]{TypeEnrollments, enrollmentsText})
	r.RegisterFormatter("text", TypeEnrollment, typed[types.Enrollment]{TypeEnrollment, func(e types.Enrollment) string {
		return enrollmentsText([]types.Enrollment{e})
	}})
	r.RegisterFormatter("text", TypeQuizResults, typed[[]types.QuizResult]{TypeQuizResults, quizResultsText})
	r.RegisterFormatter("text", TypeQuizResult, typed[types.QuizResult]{TypeQuizResult, func(q types.QuizResult) string {
		return quizResultsText([]types.QuizResult{q})
	}})
	r.RegisterFormatter("text", TypeUser, typed[types.User]{TypeUser, userText})
	r.RegisterFormatter("text", TypeDraft, typed[types.ResumeDraft]{TypeDraft, draftMarkdown})
}

func writeList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(title + ":\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

func analysisText(a types.ResumeAnalysis) string {
	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	if a.ID != "" {
		output.WriteString(fmt.Sprintf("Analysis: %s\n", a.ID))
	}
	if a.JobRole != "" {
		output.WriteString(fmt.Sprintf("Target role: %s\n", a.JobRole))
	}
	if !a.Ready() {
		status := a.Status
		if status == "" {
			status = "processing"
		}
		output.WriteString(fmt.Sprintf("Status: %s\n\nResults are not available yet.\n", status))
		return output.String()
	}
	if a.OverallScore != nil {
		output.WriteString(fmt.Sprintf("Overall score: %s/100\n", formatScore(*a.OverallScore)))
	}
	output.WriteString("\n")

	if len(a.SkillScores) > 0 {
		output.WriteString("=== SKILL SCORES ===\n")
		output.WriteString(textTable([]string{"Skill", "Score"}, skillRows(a.SkillScores)))
		output.WriteString("\n")
	}
	writeList(&output, "Strengths", a.Strengths)
	writeList(&output, "Weaknesses", a.Weaknesses)
	writeList(&output, "Missing skills", a.MissingSkills)
	writeList(&output, "Recommendations", a.Recommendations)
	if a.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(a.Summary)
		output.WriteString("\n")
	}
	return output.String()
}

func skillRows(scores map[string]float64) [][]string {
	skills := make([]string, 0, len(scores))
	for skill := range scores {
		skills = append(skills, skill)
	}
	slices.Sort(skills)
	rows := make([][]string, len(skills))
	for i, skill := range skills {
		rows[i] = []string{skill, formatScore(scores[skill])}
	}
	return rows
}

func roundRows(rounds []types.RoundSummary) [][]string {
	rows := make([][]string, len(rounds))
	for i, r := range rounds {
		answered := ""
		if r.Answered > 0 {
			answered = fmt.Sprintf("%d", r.Answered)
		}
		rows[i] = []string{interview.DisplayName(r.Round), formatScore(r.Score), answered}
	}
	return rows
}

func reportText(r types.Report) string {
	var output strings.Builder

	output.WriteString("=== INTERVIEW REPORT ===\n\n")
	output.WriteString(fmt.Sprintf("Overall score: %s\n\n", formatScore(r.OverallScore)))
	if len(r.Rounds) > 0 {
		output.WriteString("=== ROUNDS ===\n")
		output.WriteString(textTable([]string{"Round", "Score", "Answered"}, roundRows(r.Rounds)))
		output.WriteString("\n")
	}
	writeList(&output, "Strengths", r.Strengths)
	writeList(&output, "Weaknesses", r.Weaknesses)
	writeList(&output, "Recommendations", r.Recommendations)
	if r.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(r.Summary)
		output.WriteString("\n")
	}
	return output.String()
}

// roundMarker shows where a round stands within a session
func roundMarker(s types.SessionSnapshot, round types.RoundType) string {
	switch {
	case slices.Contains(s.CompletedRounds, round):
		return "[x]"
	case s.CurrentRound != nil && *s.CurrentRound == round:
		return "[>]"
	default:
		return "[ ]"
	}
}

func sessionText(s types.SessionSnapshot) string {
	var output strings.Builder

	output.WriteString("=== INTERVIEW SESSION ===\n\n")
	if s.SessionID == "" {
		output.WriteString("No interview in progress.\n")
		if s.Error != "" {
			output.WriteString(fmt.Sprintf("Last error: %s\n", s.Error))
		}
		return output.String()
	}
	output.WriteString(fmt.Sprintf("Session: %s\n", s.SessionID))
	output.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	output.WriteString(fmt.Sprintf("Mode: %s\n", s.Mode))
	if s.JobRole != "" {
		output.WriteString(fmt.Sprintf("Target role: %s\n", s.JobRole))
	}
	if !s.UpdatedAt.IsZero() {
		output.WriteString(fmt.Sprintf("Updated: %s\n", s.UpdatedAt.Local().Format(time.DateTime)))
	}
	output.WriteString("\nRounds:\n")
	for _, round := range s.Rounds {
		line := fmt.Sprintf("%s %s", roundMarker(s, round), interview.DisplayName(round))
		if n := s.QuestionCounts[round]; n > 0 {
			line += fmt.Sprintf(" (%d asked)", n)
		}
		output.WriteString(line + "\n")
	}
	output.WriteString("\n")

	if s.FollowUp != nil {
		output.WriteString(fmt.Sprintf("Follow-up waiting: %s\n", s.FollowUp.Text))
	} else if s.Question != nil {
		output.WriteString(fmt.Sprintf("Current question: %s\n", s.Question.Text))
	}
	if s.Evaluation != nil {
		output.WriteString(fmt.Sprintf("Last score: %s\n", formatScore(s.Evaluation.Score)))
	}
	output.WriteString(fmt.Sprintf("Answers recorded: %d\n", len(s.History)))
	if s.Error != "" {
		output.WriteString(fmt.Sprintf("Last error: %s\n", s.Error))
	}
	return output.String()
}

func qaHistoryText(entries []types.QAResult) string {
	if len(entries) == 0 {
		return "No questions asked yet.\n"
	}
	var output strings.Builder
	output.WriteString("=== RESUME Q&A ===\n\n")
	for i, qa := range entries {
		output.WriteString(fmt.Sprintf("%d. Q: %s\n", i+1, qa.Question))
		output.WriteString(fmt.Sprintf("   A: %s\n\n", strings.ReplaceAll(qa.Answer, "\n", "\n      ")))
	}
	return output.String()
}

func questionBatchText(batch types.QuestionBatch) string {
	var output strings.Builder
	for i, q := range batch.Questions {
		line := fmt.Sprintf("%d. %s", i+1, q.Question)
		var tags []string
		if q.Category != "" {
			tags = append(tags, q.Category)
		}
		if q.Difficulty != "" {
			tags = append(tags, q.Difficulty)
		}
		if len(tags) > 0 {
			line += fmt.Sprintf(" [%s]", strings.Join(tags, ", "))
		}
		output.WriteString(line + "\n")
	}
	return output.String()
}

func questionHistoryText(batches []types.QuestionBatch) string {
	if len(batches) == 0 {
		return "No interview questions generated yet.\n"
	}
	var output strings.Builder
	output.WriteString("=== INTERVIEW QUESTIONS ===\n")
	for _, batch := range batches {
		output.WriteString(fmt.Sprintf("\n--- %s ---\n", batch.GeneratedAt.Local().Format(time.DateTime)))
		output.WriteString(questionBatchText(batch))
	}
	return output.String()
}

func problemsText(problems []types.CodingProblem) string {
	if len(problems) == 0 {
		return "No coding problems found.\n"
	}
	rows := make([][]string, len(problems))
	for i, p := range problems {
		rows[i] = []string{p.ID, p.Title, p.Difficulty, strings.Join(p.Tags, ", ")}
	}
	return textTable([]string{"ID", "Title", "Difficulty", "Tags"}, rows)
}

func jobsText(jobs []types.Job) string {
	if len(jobs) == 0 {
		return "No jobs matched the search.\n"
	}
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = []string{j.Title, j.Company, j.Location, yesNo(j.Remote)}
	}
	return textTable([]string{"Title", "Company", "Location", "Remote"}, rows)
}

func enrollmentsText(enrollments []types.Enrollment) string {
	if len(enrollments) == 0 {
		return "No internship enrollments.\n"
	}
	rows := make([][]string, len(enrollments))
	for i, e := range enrollments {
		enrolled := ""
		if !e.EnrolledAt.IsZero() {
			enrolled = e.EnrolledAt.Local().Format(time.DateOnly)
		}
		rows[i] = []string{e.Title, e.Company, e.Status, enrolled}
	}
	return textTable([]string{"Internship", "Company", "Status", "Enrolled"}, rows)
}

func quizResultsText(results []types.QuizResult) string {
	if len(results) == 0 {
		return "No quiz submissions.\n"
	}
	rows := make([][]string, len(results))
	for i, q := range results {
		title := q.Title
		if title == "" {
			title = q.QuizID
		}
		score := formatScore(q.Score)
		if q.Total > 0 {
			score += "/" + formatScore(q.Total)
		}
		submitted := ""
		if !q.SubmittedAt.IsZero() {
			submitted = q.SubmittedAt.Local().Format(time.DateTime)
		}
		rows[i] = []string{title, score, submitted}
	}
	return textTable([]string{"Quiz", "Score", "Submitted"}, rows)
}

func userText(u types.User) string {
	if u.Name != "" {
		return fmt.Sprintf("Logged in as %s <%s>\n", u.Name, u.Email)
	}
	return fmt.Sprintf("Logged in as %s\n", u.Email)
}
