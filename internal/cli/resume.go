package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prepcoach/internal/common"
	"prepcoach/internal/errors"
	"prepcoach/internal/resume"
	"prepcoach/internal/types"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Analyse a resume against a target role and ask about the result",
}

var resumeAnalyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Upload a resume for analysis and wait for the result",
	Long: `Upload a resume (PDF, DOCX, TXT or Markdown) for analysis against a target
job role. The command waits for the analysis to finish, polling the backend
at the configured interval; on a terminal it asks whether to keep waiting
when the analysis takes longer than expected.

The analysis id is remembered, so "resume ask" and "resume questions" work on
this analysis until the next "resume analyze" or "resume new".`,
	Args: cobra.ExactArgs(1),
	RunE: runResumeAnalyze,
}

var resumeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current analysis",
	Args:  cobra.NoArgs,
	RunE:  runResumeStatus,
}

var resumeRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Adopt the latest analysis stored on the server",
	Args:  cobra.NoArgs,
	RunE:  runResumeRestore,
}

var resumeAskCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the analysed resume",
	Args:  cobra.ArbitraryArgs,
	RunE:  runResumeAsk,
}

var resumeQuestionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate likely interview questions from the analysed resume",
	Args:  cobra.NoArgs,
	RunE:  runResumeQuestions,
}

var resumeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the questions asked about the current analysis",
	Args:  cobra.NoArgs,
	RunE:  runResumeHistory,
}

var resumeNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Forget the current analysis and its histories",
	Args:  cobra.NoArgs,
	RunE:  runResumeNew,
}

var resumeExtractCmd = &cobra.Command{
	Use:   "extract [resume-file]",
	Short: "Print the text that would be analysed from a resume file",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeExtract,
}

var resumeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a resume interactively",
	Long: `Walk through a short form to build a resume from scratch. The draft is
saved as YAML with --save and can be edited again with --draft. The result is
printed in the chosen format; markdown and html give a ready-to-share resume.`,
	Args: cobra.NoArgs,
	RunE: runResumeBuild,
}

var (
	analyzeRequest       types.AnalysisRequest
	analyzeJobDescFile   string
	analyzeConfig        common.CommandConfig
	resumeStatusWait     bool
	resumeStatusConfig   common.CommandConfig
	resumeRestoreConfig  common.CommandConfig
	resumeAskConfig      common.CommandConfig
	questionsCount       int
	resumeQuestionConfig common.CommandConfig
	historyQuestions     bool
	resumeHistoryConfig  common.CommandConfig
	buildDraftFile       string
	buildSaveFile        string
	resumeBuildConfig    common.CommandConfig
)

func init() {
	resumeAnalyzeCmd.Flags().StringVarP(&analyzeRequest.JobRole, "role", "r", "", "Target job role (required)")
	resumeAnalyzeCmd.Flags().StringVar(&analyzeRequest.JobDescription, "job-description", "", "Job description text")
	resumeAnalyzeCmd.Flags().StringVar(&analyzeJobDescFile, "job-description-file", "", "File containing the job description")
	resumeAnalyzeCmd.Flags().StringVar(&analyzeRequest.ExperienceLevel, "level", "", "Experience level: entry, mid, senior, lead")
	resumeAnalyzeCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-file")
	addOutputFlags(resumeAnalyzeCmd, &analyzeConfig)

	resumeStatusCmd.Flags().BoolVarP(&resumeStatusWait, "wait", "w", false, "Wait until the analysis is ready")
	addOutputFlags(resumeStatusCmd, &resumeStatusConfig)
	addOutputFlags(resumeRestoreCmd, &resumeRestoreConfig)
	addOutputFlags(resumeAskCmd, &resumeAskConfig)

	resumeQuestionsCmd.Flags().IntVarP(&questionsCount, "count", "n", resume.DefaultQuestionCount,
		fmt.Sprintf("Number of questions (1-%d)", resume.MaxQuestionCount))
	addOutputFlags(resumeQuestionsCmd, &resumeQuestionConfig)

	resumeHistoryCmd.Flags().BoolVar(&historyQuestions, "questions", false, "Show generated question batches instead of Q&A")
	addOutputFlags(resumeHistoryCmd, &resumeHistoryConfig)

	resumeBuildCmd.Flags().StringVar(&buildDraftFile, "draft", "", "Start from a saved YAML draft")
	resumeBuildCmd.Flags().StringVar(&buildSaveFile, "save", "", "Save the draft as YAML to this file")
	addOutputFlags(resumeBuildCmd, &resumeBuildConfig)

	resumeCmd.AddCommand(resumeAnalyzeCmd)
	resumeCmd.AddCommand(resumeStatusCmd)
	resumeCmd.AddCommand(resumeRestoreCmd)
	resumeCmd.AddCommand(resumeAskCmd)
	resumeCmd.AddCommand(resumeQuestionsCmd)
	resumeCmd.AddCommand(resumeHistoryCmd)
	resumeCmd.AddCommand(resumeNewCmd)
	resumeCmd.AddCommand(resumeExtractCmd)
	resumeCmd.AddCommand(resumeBuildCmd)
}

func runResumeAnalyze(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())

	req := analyzeRequest
	req.ResumePath = args[0]
	if analyzeJobDescFile != "" {
		description, err := common.NewFileProcessor(a.logger).ReadTextFile(analyzeJobDescFile)
		if err != nil {
			return err
		}
		req.JobDescription = description
	}
	if strings.TrimSpace(req.JobRole) == "" && a.term.Interactive() {
		role, err := a.term.Input(cmd.Context(), "Target job role", true)
		if err != nil {
			return err
		}
		req.JobRole = role
	}

	p := &progress{term: a.term}
	svc, err := a.resumeService(p)
	if err != nil {
		return err
	}

	return common.RunCommand(cmd.Context(), a.logger, analyzeConfig, a.out, "resume.analyze",
		func(ctx context.Context) (*types.ResumeAnalysis, error) {
			p.start("Analysing your resume...")
			defer p.end()
			return svc.Analyze(ctx, req)
		})
}

func runResumeStatus(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	p := &progress{term: a.term}
	svc, err := a.resumeService(p)
	if err != nil {
		return err
	}

	return common.RunCommand(cmd.Context(), a.logger, resumeStatusConfig, a.out, "resume.status",
		func(ctx context.Context) (*types.ResumeAnalysis, error) {
			if resumeStatusWait {
				p.start("Waiting for the analysis...")
				defer p.end()
			}
			return svc.Status(ctx, resumeStatusWait)
		})
}

func runResumeRestore(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	svc, err := a.resumeService(nil)
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, resumeRestoreConfig, a.out, "resume.restore", svc.Restore)
}

func runResumeAsk(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	svc, err := a.resumeService(nil)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		if !a.term.Interactive() {
			return errors.NewValidationError(errors.ErrCodeMissingField, "a question is required", nil)
		}
		if question, err = a.term.Input(cmd.Context(), "What would you like to know about your resume?", true); err != nil {
			return err
		}
	}

	return common.RunCommand(cmd.Context(), a.logger, resumeAskConfig, a.out, "resume.ask",
		func(ctx context.Context) (*types.QAResult, error) {
			return svc.Ask(ctx, question)
		})
}

func runResumeQuestions(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	svc, err := a.resumeService(nil)
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, resumeQuestionConfig, a.out, "resume.questions",
		func(ctx context.Context) (*types.QuestionBatch, error) {
			return svc.Questions(ctx, questionsCount)
		})
}

// runResumeHistory reads the mirror only and never calls the backend
func runResumeHistory(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	history := resume.NewHistory(a.mirror)

	if historyQuestions {
		batches, err := history.QuestionBatches()
		if err != nil {
			return err
		}
		return a.output(batches, resumeHistoryConfig)
	}
	qa, err := history.QA()
	if err != nil {
		return err
	}
	return a.output(qa, resumeHistoryConfig)
}

func runResumeNew(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	if err := resume.NewHistory(a.mirror).Reset(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Cleared the current analysis and its histories") //nolint:errcheck
	return nil
}

func runResumeExtract(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	doc, err := resume.LoadDocument(args[0], resume.FileRules{
		MaxSize:           a.cfg.Resume.MaxFileSize,
		AllowedExtensions: a.cfg.Resume.AllowedExtensions,
	})
	if err != nil {
		return err
	}
	text, err := resume.ExtractText(doc.Path, doc.Content)
	if err != nil {
		return err
	}
	a.logger.Debug("Extracted resume text", "file", doc.Name, "size", doc.Size, "chars", len(text))
	fmt.Fprintln(a.out, text) //nolint:errcheck
	return nil
}

func runResumeBuild(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	if !a.term.Interactive() && buildDraftFile == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField,
			"the resume builder needs a terminal; pass --draft to render a saved draft", nil)
	}

	draft := resume.NewDraft(time.Now())
	if buildDraftFile != "" {
		loaded, err := resume.LoadDraft(buildDraftFile)
		if err != nil {
			return err
		}
		draft = loaded
	}

	if a.term.Interactive() {
		if err := a.term.BuildResume(cmd.Context(), draft); err != nil {
			return err
		}
	} else if err := resume.ValidateDraft(draft); err != nil {
		return err
	}

	if buildSaveFile != "" {
		if err := resume.SaveDraft(buildSaveFile, draft); err != nil {
			return err
		}
		a.logger.Info("Saved resume draft", "file", buildSaveFile)
		fmt.Fprintf(a.errOut, "Draft saved to %s\n", buildSaveFile) //nolint:errcheck
	}
	return a.output(draft, resumeBuildConfig)
}
