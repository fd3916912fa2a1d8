package formatters

import (
	"fmt"
	"strings"
	"time"

	"prepcoach/internal/interview"
	"prepcoach/internal/resume"
	"prepcoach/internal/types"
)

func registerMarkdownFormatters(r *FormatterRegistry) {
	r.RegisterFormatter("markdown", TypeAnalysis, typed[types.ResumeAnalysis]{TypeAnalysis, analysisMarkdown})
	r.RegisterFormatter("markdown", TypeReport, typed[types.Report]{TypeReport, reportMarkdown})
	r.RegisterFormatter("markdown", TypeSession, typed[types.SessionSnapshot]{TypeSession, sessionMarkdown})
	r.RegisterFormatter("markdown", TypeQAHistory, typed[[]types.QAResult]{TypeQAHistory, qaHistoryMarkdown})
	r.RegisterFormatter("markdown", TypeQuestionBatch, typed[types.QuestionBatch]{TypeQuestionBatch, func(b types.QuestionBatch) string {
		return "# Interview Questions\n\n" + questionBatchText(b)
	}})
	r.RegisterFormatter("markdown", TypeQuestionHistory, typed[[]types.QuestionBatch]{TypeQuestionHistory, questionHistoryMarkdown})
	r.RegisterFormatter("markdown", TypeProblems, typed[[]types.CodingProblem]{TypeProblems, problemsMarkdown})
	r.RegisterFormatter("markdown", TypeJobs, typed[[]types.Job]{TypeJobs, jobsMarkdown})
	r.RegisterFormatter("markdown", TypeDraft, typed[types.ResumeDraft]{TypeDraft, draftMarkdown})
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

func analysisMarkdown(a types.ResumeAnalysis) string {
	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	if a.JobRole != "" {
		output.WriteString(fmt.Sprintf("**Target role:** %s\n\n", a.JobRole))
	}
	if !a.Ready() {
		output.WriteString("_Results are not available yet._\n")
		return output.String()
	}
	if a.OverallScore != nil {
		output.WriteString(fmt.Sprintf("**Overall score:** %s/100\n\n", formatScore(*a.OverallScore)))
	}
	if len(a.SkillScores) > 0 {
		output.WriteString("## Skill Scores\n\n")
		output.WriteString(markdownTable([]string{"Skill", "Score"}, skillRows(a.SkillScores)))
		output.WriteString("\n")
	}
	writeMarkdownList(&output, "Strengths", a.Strengths)
	writeMarkdownList(&output, "Weaknesses", a.Weaknesses)
	writeMarkdownList(&output, "Missing Skills", a.MissingSkills)
	writeMarkdownList(&output, "Recommendations", a.Recommendations)
	if a.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(a.Summary)
		output.WriteString("\n")
	}
	return output.String()
}

func reportMarkdown(r types.Report) string {
	var output strings.Builder

	output.WriteString("# Interview Report\n\n")
	output.WriteString(fmt.Sprintf("**Overall score:** %s\n\n", formatScore(r.OverallScore)))
	if len(r.Rounds) > 0 {
		output.WriteString("## Rounds\n\n")
		output.WriteString(markdownTable([]string{"Round", "Score", "Answered"}, roundRows(r.Rounds)))
		output.WriteString("\n")
	}
	writeMarkdownList(&output, "Strengths", r.Strengths)
	writeMarkdownList(&output, "Weaknesses", r.Weaknesses)
	writeMarkdownList(&output, "Recommendations", r.Recommendations)
	if r.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(r.Summary)
		output.WriteString("\n")
	}
	return output.String()
}

func sessionMarkdown(s types.SessionSnapshot) string {
	var output strings.Builder

	output.WriteString("# Interview Session\n\n")
	if s.SessionID == "" {
		output.WriteString("No interview in progress.\n")
		return output.String()
	}
	output.WriteString(fmt.Sprintf("- **Session:** %s\n- **Status:** %s\n- **Mode:** %s\n", s.SessionID, s.Status, s.Mode))
	if s.JobRole != "" {
		output.WriteString(fmt.Sprintf("- **Target role:** %s\n", s.JobRole))
	}
	output.WriteString("\n## Rounds\n\n")
	for _, round := range s.Rounds {
		check := " "
		if roundMarker(s, round) == "[x]" {
			check = "x"
		}
		output.WriteString(fmt.Sprintf("- [%s] %s\n", check, interview.DisplayName(round)))
	}
	if len(s.History) > 0 {
		output.WriteString("\n## Answers\n\n")
		for _, entry := range s.History {
			prefix := ""
			if entry.IsFollowUp {
				prefix = "Follow-up: "
			}
			output.WriteString(fmt.Sprintf("### %s%s\n\n", prefix, entry.Prompt))
			output.WriteString(fmt.Sprintf("%s\n\n", entry.Answer))
			if entry.Evaluation != nil {
				output.WriteString(fmt.Sprintf("_Score %s: %s_\n\n", formatScore(entry.Evaluation.Score), entry.Evaluation.Feedback))
			}
		}
	}
	return output.String()
}

func qaHistoryMarkdown(entries []types.QAResult) string {
	var output strings.Builder
	output.WriteString("# Resume Q&A\n\n")
	if len(entries) == 0 {
		output.WriteString("No questions asked yet.\n")
		return output.String()
	}
	for _, qa := range entries {
		output.WriteString(fmt.Sprintf("### %s\n\n%s\n\n", qa.Question, qa.Answer))
	}
	return output.String()
}

func questionHistoryMarkdown(batches []types.QuestionBatch) string {
	var output strings.Builder
	output.WriteString("# Interview Questions\n\n")
	if len(batches) == 0 {
		output.WriteString("No interview questions generated yet.\n")
		return output.String()
	}
	for _, batch := range batches {
		output.WriteString(fmt.Sprintf("## %s\n\n", batch.GeneratedAt.Local().Format(time.DateTime)))
		output.WriteString(questionBatchText(batch))
		output.WriteString("\n")
	}
	return output.String()
}

func problemsMarkdown(problems []types.CodingProblem) string {
	var output strings.Builder
	output.WriteString("# Coding Problems\n\n")
	for _, p := range problems {
		output.WriteString(fmt.Sprintf("## %s (%s)\n\n", p.Title, p.Difficulty))
		if p.Description != "" {
			output.WriteString(p.Description + "\n\n")
		}
		if len(p.Tags) > 0 {
			output.WriteString(fmt.Sprintf("Tags: %s\n\n", strings.Join(p.Tags, ", ")))
		}
	}
	return output.String()
}

func jobsMarkdown(jobs []types.Job) string {
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		title := j.Title
		if j.URL != "" {
			title = fmt.Sprintf("[%s](%s)", j.Title, j.URL)
		}
		rows[i] = []string{title, j.Company, j.Location, yesNo(j.Remote)}
	}
	return "# Jobs\n\n" + markdownTable([]string{"Title", "Company", "Location", "Remote"}, rows)
}

func draftMarkdown(d types.ResumeDraft) string {
	return resume.RenderMarkdown(&d)
}
