package cli

import (
	"context"

	"prepcoach/internal/errors"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Define custom private types for context keys.
type appKeyType struct{}
type spanKeyType struct{}

// Use variables of these types as the keys.
var appKey = appKeyType{}
var spanKey = spanKeyType{}

// skipSetup marks commands that run without configuration or a backend
const skipSetup = "skip-setup"

var rootFlags rootOptions

var rootCmd = &cobra.Command{
	Use:   "prepcoach",
	Short: "Practice mock interviews and get resume feedback from the terminal",
	Long: `Prepcoach is a command-line client for the career-prep platform. It runs
multi-round mock interviews, submits resumes for analysis, answers questions
about an analysed resume, and browses quizzes, jobs and internships.

Interview and resume progress is mirrored to a local directory, so an
interrupted session can be resumed with "prepcoach interview resume".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

// Execute runs the command tree with ctx as the root context
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	cmd, err := rootCmd.ExecuteC()
	if cmd != nil {
		teardownApp(cmd.Context(), err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.prepcoach/config.yaml)")
	flags.StringVar(&rootFlags.envFile, "env-file", "", "Environment file (default: ./.env)")
	flags.StringVar(&rootFlags.baseURL, "base-url", "", "Backend base URL (overrides config)")
	flags.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Print where configuration values come from")
	flags.BoolVar(&rootFlags.accessible, "accessible", false, "Use plain line-based prompts instead of forms")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(internshipsCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupApp(cmd *cobra.Command, args []string) error {
	if needsNoSetup(cmd) {
		return nil
	}

	a, err := newApp(rootFlags, cmd.Flags().Changed("accessible"), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, span := a.obs.Tracer("prepcoach/cli").Start(cmd.Context(), cmd.CommandPath(),
		oteltrace.WithAttributes(attribute.String("command", cmd.Name())))
	ctx = context.WithValue(ctx, appKey, a)
	ctx = context.WithValue(ctx, spanKey, span)
	cmd.SetContext(ctx)
	return nil
}

// needsNoSetup reports whether cmd runs without configuration, which holds
// for version and the shell completion commands
func needsNoSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetup] == "true" || c.Name() == "completion" || c.Name() == cobra.ShellCompRequestCmd {
			return true
		}
	}
	return false
}

// teardownApp ends the command span and releases the app. It runs after
// failed commands too, which PersistentPostRunE would not.
func teardownApp(ctx context.Context, cmdErr error) {
	if span, ok := ctx.Value(spanKey).(oteltrace.Span); ok {
		if cmdErr != nil {
			span.RecordError(cmdErr)
			span.SetStatus(codes.Error, errors.UserMessage(cmdErr))
		}
		span.End()
	}
	if a, ok := ctx.Value(appKey).(*app); ok {
		a.close(context.WithoutCancel(ctx))
	}
}

// getAppFromContext is a helper function to get the app from context
func getAppFromContext(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey).(*app); ok {
		return a
	}
	panic("app not found in context") // Should not happen if properly initialized
}
