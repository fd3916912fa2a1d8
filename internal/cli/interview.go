package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"prepcoach/internal/common"
	"prepcoach/internal/errors"
	"prepcoach/internal/interview"
	"prepcoach/internal/resume"
	"prepcoach/internal/storage"
	"prepcoach/internal/terminal"
	"prepcoach/internal/types"

	"github.com/spf13/cobra"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview round by round",
}

var interviewStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new mock interview",
	Long: `Start a mock interview for a job role. A full interview walks through every
configured round (formal Q&A, technical, coding, system design, HR); a
specific interview runs a single round.

Each answer is evaluated before the next question. The server may ask a
follow-up, move on, or end the round early. Type /stop to pause; the
session is saved locally and "prepcoach interview resume" picks it up.`,
	Args: cobra.NoArgs,
	RunE: runInterviewStart,
}

var interviewResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue the saved interview",
	Args:  cobra.NoArgs,
	RunE:  runInterviewResume,
}

var interviewStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved interview",
	Long: `Show the interview saved in the storage directory. With --refresh the
session is first reconciled with the server.`,
	Args: cobra.NoArgs,
	RunE: runInterviewStatus,
}

var interviewReportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Fetch the final report",
	Long: `Fetch the final report of the saved interview once every round is
complete. A finished session is no longer saved locally, so pass its id to
fetch its report again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInterviewReport,
}

var interviewAbandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Discard the saved interview",
	Args:  cobra.NoArgs,
	RunE:  runInterviewAbandon,
}

var interviewWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the saved interview as another terminal answers it",
	Args:  cobra.NoArgs,
	RunE:  runInterviewWatch,
}

var interviewProblemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List coding practice problems",
	Args:  cobra.NoArgs,
	RunE:  runInterviewProblems,
}

var (
	startRequest       types.StartRequest
	startMode          string
	startRound         string
	startForce         bool
	interviewConfig    common.CommandConfig
	statusRefresh      bool
	statusConfig       common.CommandConfig
	reportConfig       common.CommandConfig
	abandonYes         bool
	watchConfig        common.CommandConfig
	problemsDifficulty string
	problemsConfig     common.CommandConfig
)

func init() {
	interviewStartCmd.Flags().StringVarP(&startRequest.JobRole, "role", "r", "", "Job role to interview for")
	interviewStartCmd.Flags().StringVar(&startRequest.ExperienceLevel, "level", "", "Experience level: entry, mid, senior, lead")
	interviewStartCmd.Flags().StringVar(&startMode, "mode", "", "Interview mode: full or specific (default from config)")
	interviewStartCmd.Flags().StringVar(&startRound, "round", "", "Round for a specific interview: formal_qa, technical, coding, system_design, hr")
	interviewStartCmd.Flags().StringVar(&startRequest.AnalysisID, "analysis", "", "Resume analysis id (default: the current analysis)")
	interviewStartCmd.Flags().BoolVarP(&startForce, "force", "f", false, "Discard a saved interview without asking")
	addOutputFlags(interviewStartCmd, &interviewConfig)
	addOutputFlags(interviewResumeCmd, &interviewConfig)

	interviewStatusCmd.Flags().BoolVar(&statusRefresh, "refresh", false, "Reconcile with the server first")
	addOutputFlags(interviewStatusCmd, &statusConfig)
	addOutputFlags(interviewReportCmd, &reportConfig)

	interviewAbandonCmd.Flags().BoolVarP(&abandonYes, "yes", "y", false, "Do not ask for confirmation")

	addOutputFlags(interviewWatchCmd, &watchConfig)

	interviewProblemsCmd.Flags().StringVar(&problemsDifficulty, "difficulty", "", "Filter by difficulty: easy, medium, hard")
	addOutputFlags(interviewProblemsCmd, &problemsConfig)

	interviewCmd.AddCommand(interviewStartCmd)
	interviewCmd.AddCommand(interviewResumeCmd)
	interviewCmd.AddCommand(interviewStatusCmd)
	interviewCmd.AddCommand(interviewReportCmd)
	interviewCmd.AddCommand(interviewAbandonCmd)
	interviewCmd.AddCommand(interviewWatchCmd)
	interviewCmd.AddCommand(interviewProblemsCmd)
}

// buildStartRequest merges flags, configuration and the current resume
// analysis into a start request
func buildStartRequest(a *app, plan interview.Plan) (types.StartRequest, error) {
	req := startRequest
	req.Mode = types.InterviewMode(startMode)
	if req.Mode == "" {
		req.Mode = types.InterviewMode(a.cfg.Interview.Mode)
	}
	if req.Mode != types.ModeFull && req.Mode != types.ModeSpecific {
		return req, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown interview mode %q; use full or specific", req.Mode), nil)
	}
	if startRound != "" {
		round, err := interview.ParseRound(startRound)
		if err != nil {
			return req, err
		}
		req.SpecificRound = round
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = a.cfg.Resume.ExperienceLevel
	}
	if req.AnalysisID == "" {
		id, err := resume.NewHistory(a.mirror).AnalysisID()
		if err != nil {
			a.logger.Warn("Ignoring unreadable resume analysis id", "error", err)
		}
		req.AnalysisID = id
	}
	if _, err := plan.Rounds(req.Mode, req.SpecificRound); err != nil && !a.term.Interactive() {
		return req, err
	}
	return req, nil
}

// confirmReplace guards against silently discarding a saved interview
func confirmReplace(ctx context.Context, a *app) error {
	if startForce || !a.mirror.Has(storage.KeyInterviewSessionID) {
		return nil
	}
	if !a.term.Interactive() {
		return errors.NewSessionError(errors.ErrCodeInvalidTransition,
			"an interview is already in progress; resume it or pass --force to start over", nil)
	}
	replace, err := a.term.Confirm(ctx, "An interview is already in progress. Discard it and start a new one?", false)
	if err != nil {
		return err
	}
	if !replace {
		return terminal.ErrCancelled
	}
	return nil
}

func runInterviewStart(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	store, err := a.interviewStore()
	if err != nil {
		return err
	}

	req, err := buildStartRequest(a, store.Plan())
	if err != nil {
		return err
	}
	if a.term.Interactive() {
		if err := a.term.StartOptions(cmd.Context(), &req, store.Plan()); err != nil {
			return err
		}
	}
	if err := confirmReplace(cmd.Context(), a); err != nil {
		return err
	}

	return drive(cmd.Context(), a, store, func(ctx context.Context) error {
		return store.Start(ctx, req)
	})
}

func runInterviewResume(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	store, err := a.interviewStore()
	if err != nil {
		return err
	}
	return drive(cmd.Context(), a, store, store.Restore)
}

// drive opens the session with open and runs the interview to the report.
// Stopping early keeps the session saved.
func drive(ctx context.Context, a *app, store *interview.Store, open func(context.Context) error) error {
	p := &progress{term: a.term}
	store.Subscribe(p.follow)
	defer p.end()

	if err := open(ctx); err != nil {
		return err
	}

	driver := interview.NewDriver(store, terminal.NewInterviewUI(a.term), a.logger)
	report, err := driver.Run(ctx)
	if stderrors.Is(err, interview.ErrStopped) {
		p.end()
		a.term.Println("\nInterview paused. Run \"prepcoach interview resume\" to continue.")
		return nil
	}
	if err != nil {
		return err
	}

	if interviewConfig.OutputFile != "" {
		return a.output(report, interviewConfig)
	}
	return nil
}

func runInterviewStatus(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())

	if statusRefresh {
		store, err := a.interviewStore()
		if err != nil {
			return err
		}
		if err := store.Restore(cmd.Context()); err != nil {
			return err
		}
		return a.output(store.Snapshot(), statusConfig)
	}

	snap, err := savedSnapshot(a.mirror)
	if err != nil {
		return err
	}
	return a.output(snap, statusConfig)
}

// savedSnapshot reads the mirrored interview without contacting the server
func savedSnapshot(mirror *storage.Mirror) (types.SessionSnapshot, error) {
	var snap types.SessionSnapshot
	found, err := mirror.Get(storage.KeyInterviewSessionData, &snap)
	if err != nil {
		return snap, err
	}
	if !found || snap.SessionID == "" {
		return snap, errors.NewSessionError(errors.ErrCodeNoSession, "there is no interview in progress", nil)
	}
	return snap, nil
}

func runInterviewReport(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())

	if len(args) == 1 {
		client, err := a.apiClient()
		if err != nil {
			return err
		}
		return common.RunCommand(cmd.Context(), a.logger, reportConfig, a.out, "interview.report",
			func(ctx context.Context) (*types.Report, error) {
				return client.GenerateReport(ctx, args[0])
			})
	}

	store, err := a.interviewStore()
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, reportConfig, a.out, "interview.report",
		func(ctx context.Context) (*types.Report, error) {
			if err := store.Restore(ctx); err != nil {
				return nil, err
			}
			return store.GenerateReport(ctx)
		})
}

func runInterviewAbandon(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	snap, err := savedSnapshot(a.mirror)
	if err != nil {
		return err
	}

	if !abandonYes && a.term.Interactive() {
		discard, err := a.term.Confirm(cmd.Context(),
			fmt.Sprintf("Discard the %s interview for %s?", snap.Mode, snap.JobRole), false)
		if err != nil {
			return err
		}
		if !discard {
			return terminal.ErrCancelled
		}
	}

	store, err := a.interviewStore()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	a.logger.Info("Interview abandoned", "session_id", snap.SessionID)
	a.term.Println("Interview discarded")
	return nil
}

func runInterviewWatch(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	if !a.cfg.Storage.Watch.Enabled {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"watching is disabled; set storage.watch.enabled to true", nil)
	}

	var mu sync.Mutex
	show := func() {
		mu.Lock()
		defer mu.Unlock()
		snap, err := savedSnapshot(a.mirror)
		if err != nil {
			a.term.Println(errors.UserMessage(err))
			return
		}
		if err := a.output(snap, watchConfig); err != nil {
			a.logger.LogError(err, "Failed to print interview")
		}
	}

	watcher := storage.NewWatcher(a.mirror, []string{storage.KeyInterviewSessionData},
		a.cfg.Storage.Watch.DebounceDelay, func(string) { show() }, a.logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			a.logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	show()
	<-cmd.Context().Done()
	return nil
}

func runInterviewProblems(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, problemsConfig, a.out, "interview.problems",
		func(ctx context.Context) ([]types.CodingProblem, error) {
			return client.CodingProblems(ctx, problemsDifficulty)
		})
}
