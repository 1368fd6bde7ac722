// Package commands implements the lumen CLI on top of Cobra.
package commands

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/cli/keystore"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	httpClient  *http.Client
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	provider   string
	model      string
	locale     string
	timeout    time.Duration
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	ks     keystore.Keystore

	gen      generateFlags
	batch    batchFlags
	initOpts initFlags
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithHTTPClient sets the HTTP client handed to every provider adapter.
func WithHTTPClient(client *http.Client) AppOption {
	return func(a *App) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newKeystore: keystore.NewKeystore,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lumen",
		Short: "Lumen - image generation across Gemini, OpenRouter and FAL",
		Long: `Lumen turns a text prompt and optional reference images into generated
images using Gemini, OpenRouter or FAL behind one interface.

Use Lumen to generate images, run batches, and manage provider API keys.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.lumen/config.yaml)")
	root.PersistentFlags().StringVar(&a.provider, "provider", "", "provider ID (gemini, openrouter, fal)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. fal-ai/flux/dev)")
	root.PersistentFlags().StringVar(&a.locale, "locale", "", "language for error messages (en, es)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "overall time budget per call (default 2m)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newGenerateCommand())
	root.AddCommand(a.newBatchCommand())
	root.AddCommand(a.newProvidersCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands use to
// cancel in-flight calls.
func (a *App) ExecuteContext(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	return a.root.ExecuteContext(ctx)
}

// SetArgs overrides the arguments the root command parses.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return &exitError{code: ExitValidation, err: err}
	}
	a.cfg = cfg

	// Flags win over config and environment.
	if a.provider == "" {
		a.provider = cfg.DefaultProvider
	}
	if a.model == "" {
		a.model = cfg.DefaultModel
	}
	if a.locale == "" {
		a.locale = cfg.Locale
	}
	if a.timeout == 0 {
		a.timeout = cfg.Timeout
	}

	logger, err := newLogger(a.stderr, cfg.LogLevel, a.verbose)
	if err != nil {
		return &exitError{code: ExitValidation, err: err}
	}
	a.logger = logger
	return nil
}

// skipConfig replaces the root pre-run for commands that must work
// without a readable config.
func skipConfig(cmd *cobra.Command, args []string) error {
	return nil
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}

// ExecuteContext runs the default app root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return defaultApp.ExecuteContext(ctx)
}
