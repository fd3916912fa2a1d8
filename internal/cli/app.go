package cli

import (
	"context"
	"io"
	"sync"

	"prepcoach/internal/api"
	"prepcoach/internal/common"
	"prepcoach/internal/config"
	"prepcoach/internal/errors"
	"prepcoach/internal/interview"
	"prepcoach/internal/observability"
	"prepcoach/internal/resume"
	"prepcoach/internal/storage"
	"prepcoach/internal/terminal"
	"prepcoach/internal/types"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configFile string
	envFile    string
	baseURL    string
	logLevel   string
	verbose    bool
	accessible bool
}

// overrides maps flags that were set to config keys
func (o rootOptions) overrides(accessibleSet bool) map[string]any {
	overrides := make(map[string]any)
	if o.baseURL != "" {
		overrides["api.baseURL"] = o.baseURL
	}
	if o.logLevel != "" {
		overrides["app.logLevel"] = o.logLevel
	}
	if accessibleSet {
		overrides["app.accessible"] = o.accessible
	}
	return overrides
}

// app holds everything a command needs. The backend client is built on
// first use so offline commands never touch the network.
type app struct {
	cfg       *config.Config
	logger    *errors.Logger
	logCloser io.Closer
	mirror    *storage.Mirror
	obs       *observability.ObservabilityManager
	recorder  *observability.Recorder
	term      *terminal.Terminal
	out       io.Writer
	errOut    io.Writer

	clientOnce sync.Once
	client     *api.Client
	clientErr  error
}

func newApp(opts rootOptions, accessibleSet bool, in io.Reader, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(config.LoadOptions{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
		Verbose:    opts.verbose,
		Overrides:  opts.overrides(accessibleSet),
	})
	if err != nil {
		return nil, errors.NewConfigError("CONFIG_LOAD_FAILED", "Failed to load configuration", err)
	}

	logger, logCloser, err := errors.NewWithFile(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, errors.NewConfigError("LOGGER_INIT_FAILED", "Failed to initialize logger", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logCloser.Close() //nolint:errcheck
		return nil, errors.NewConfigError("VAULT_SECRETS_FAILED", "Failed to load secrets from Vault", err)
	}

	mirror, err := storage.NewMirror(cfg.Storage.Dir, logger)
	if err != nil {
		logCloser.Close() //nolint:errcheck
		return nil, err
	}

	obs, err := observability.NewObservabilityManager(
		observability.GetObservabilityConfig(cfg, Version), cfg, observability.WithLogger(logger))
	if err != nil {
		logCloser.Close() //nolint:errcheck
		return nil, errors.NewConfigError("OBSERVABILITY_INIT_FAILED", "Failed to initialize observability", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		logCloser: logCloser,
		mirror:    mirror,
		obs:       obs,
		recorder:  obs.Recorder(),
		term:      terminal.New(in, out, cfg.App.Accessible).StatusTo(errOut),
		out:       out,
		errOut:    errOut,
	}, nil
}

// close flushes telemetry and closes the log file
func (a *app) close(ctx context.Context) {
	if a.client != nil {
		a.logger.Debug("Backend client stats",
			"breaker", a.client.Breaker().GetStats(),
			"limiter", a.client.Limiter().GetStats())
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down observability", "error", err)
	}
	if err := a.logCloser.Close(); err != nil {
		a.logger.Warn("Failed to close log file", "error", err)
	}
}

// apiClient returns the backend client, restoring the saved session
func (a *app) apiClient() (*api.Client, error) {
	a.clientOnce.Do(func() {
		var saved api.Session
		if _, err := a.mirror.Get(storage.KeyAuthSession, &saved); err != nil {
			a.logger.Warn("Ignoring unreadable saved session", "error", err)
			saved = api.Session{}
		}
		if saved.Token == "" {
			saved.Token = a.cfg.Auth.Token
		}

		a.client, a.clientErr = api.NewClient(api.Options{
			Config:          a.cfg.API,
			Session:         &saved,
			Logger:          a.logger,
			Observer:        a.recorder,
			OnSessionChange: a.saveSession,
		})
	})
	return a.client, a.clientErr
}

// saveSession mirrors the client's credentials for the next invocation
func (a *app) saveSession(s api.Session) {
	var err error
	if s.Empty() {
		err = a.mirror.Delete(storage.KeyAuthSession)
	} else {
		err = a.mirror.Put(storage.KeyAuthSession, s)
	}
	if err != nil {
		a.logger.LogError(err, "Failed to save session")
	}
}

// interviewStore builds a store over the backend and the mirror
func (a *app) interviewStore() (*interview.Store, error) {
	client, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	plan, err := interview.NewPlan(a.cfg.Interview.RoundOrder, a.cfg.Interview.QuestionCeilings)
	if err != nil {
		return nil, err
	}
	return interview.NewStore(interview.Options{
		Backend: client,
		Mirror:  a.mirror,
		Plan:    plan,
		Logger:  a.logger,
		Metrics: a.recorder,
	}), nil
}

// resumeService builds the resume service. The keep-waiting prompt only
// appears on a terminal and pauses p while it is shown.
func (a *app) resumeService(p *progress) (*resume.Service, error) {
	client, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	return a.resumeServiceWith(client, p), nil
}

func (a *app) resumeServiceWith(backend resume.Backend, p *progress) *resume.Service {
	keepWaiting := a.term.KeepWaiting
	if p != nil {
		keepWaiting = p.keepWaiting
	}
	return resume.NewService(resume.Options{
		Backend: backend,
		Mirror:  a.mirror,
		Rules: resume.FileRules{
			MaxSize:           a.cfg.Resume.MaxFileSize,
			AllowedExtensions: a.cfg.Resume.AllowedExtensions,
		},
		Poll: resume.PollOptions{
			Interval:    a.cfg.Resume.PollInterval,
			MaxAttempts: a.cfg.Resume.MaxPollAttempts,
			KeepWaiting: keepWaiting,
			OnAttempt: func(attempt, maxAttempts int) {
				a.logger.Debug("Analysis not ready yet", "attempt", attempt, "max_attempts", maxAttempts)
			},
			Metrics: a.recorder,
		},
		ExperienceLevel: a.cfg.Resume.ExperienceLevel,
		Logger:          a.logger,
	})
}

// output prints result in the format chosen by the command's flags
func (a *app) output(result any, cmdConfig common.CommandConfig) error {
	return common.NewOutputHandler(a.logger, a.out).HandleOutput(result, cmdConfig)
}

// addOutputFlags registers --output and --format and resolves the format
// before the command runs
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: text, json, yaml, markdown or html")

	// Add completion for format flag
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml", "markdown", "html"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		a := getAppFromContext(cmd.Context())
		if err := common.ResolveOutputFormat(cmdConfig, a.cfg.App.DefaultFormat, a.cfg.App.SupportedFormats); err != nil {
			return err
		}
		return common.NewFileProcessor(a.logger).ValidateOutputFile(cmdConfig.OutputFile)
	}
}

// progress is a spinner that can be paused while a prompt is on screen
type progress struct {
	term *terminal.Terminal
	mu   sync.Mutex
	stop func()
}

// start shows message, replacing any message already shown
func (p *progress) start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
	}
	p.stop = p.term.Spin(message)
}

// end clears the spinner
func (p *progress) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

// keepWaiting asks whether to continue polling with the spinner hidden
func (p *progress) keepWaiting(ctx context.Context, attempts int) bool {
	p.end()
	keep := p.term.KeepWaiting(ctx, attempts)
	if keep {
		p.start("Still analysing your resume...")
	}
	return keep
}

// follow mirrors the store's loading message on the spinner
func (p *progress) follow(snap types.SessionSnapshot) {
	if snap.Loading != "" {
		p.start(snap.Loading)
		return
	}
	p.end()
}
