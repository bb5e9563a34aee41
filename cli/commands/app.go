package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petal-labs/aide/cli/config"
	"github.com/petal-labs/aide/cli/keystore"
	"github.com/petal-labs/aide/migrate"
	"github.com/petal-labs/aide/providers/anthropic"
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
	loadDotenv  func() error
	getenv      func(string) string
	migrateEnv  func() migrate.Env
	transport   anthropic.Transport
	logger      *zap.Logger
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	model      string
	bridgeURL  string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config

	chat  chatFlags
	serve serveFlags
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

// WithEnv replaces environment lookups and disables .env loading.
func WithEnv(getenv func(string) string) AppOption {
	return func(a *App) {
		if getenv != nil {
			a.getenv = getenv
			a.loadDotenv = func() error { return nil }
		}
	}
}

// WithMigrateEnv sets where editor installations are looked up.
func WithMigrateEnv(env func() migrate.Env) AppOption {
	return func(a *App) {
		if env != nil {
			a.migrateEnv = env
		}
	}
}

// WithTransport sends every exchange through t instead of HTTP or a bridge.
func WithTransport(t anthropic.Transport) AppOption {
	return func(a *App) {
		a.transport = t
	}
}

// WithLogger uses logger instead of one built from the config.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
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
		loadDotenv:  loadDotenv,
		getenv:      os.Getenv,
		migrateEnv:  migrate.EnvFromOS,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and reports any error on
// stderr.
func (a *App) ExecuteContext(ctx context.Context) error {
	err := a.root.ExecuteContext(ctx)
	if err != nil {
		a.reportError(err)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func (a *App) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigPath()
}
