package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/cmd/keymixer/commands"
	"github.com/systmms/keymixer/internal/config"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/execenv"
	"github.com/systmms/keymixer/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}

	os.Exit(execute(newRootCommand(cfg), cfg))
}

// execute runs the command tree and returns the process exit code. A child
// process started by exec passes its own exit code through.
func execute(rootCmd *cobra.Command, cfg *config.Config) int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	// Post-run hooks do not run when a command fails
	if flushErr := commands.FlushMetrics(cfg); flushErr != nil {
		cfg.GetLogger().Warn("%v", flushErr)
	}

	var exitErr execenv.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", dserrors.SimplifyError(err))
	return 1
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	// Global flags; defaults come from the environment
	var (
		keystorePath string
		appID        string
		logPath      string
		metricsFile  string
		noAudit      bool
		noSync       bool
		debug        bool
		noColor      bool
	)

	rootCmd := &cobra.Command{
		Use:   "keymixer",
		Short: "Rotate between multiple keys per service",
		Long: `keymixer keeps several interchangeable credentials per service name and
hands them out in round-robin order. Commands launched through keymixer see
a rotated key wherever they read an environment variable named after a
service in the keystore.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.KeystorePath = keystorePath
			cfg.AppID = appID
			cfg.LogPath = logPath
			cfg.MetricsFile = metricsFile
			cfg.AuditLog = !noAudit
			cfg.SyncEnv = !noSync
			cfg.Debug = debug
			cfg.NoColor = noColor
			cfg.Logger = logging.New(debug, noColor)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return commands.FlushMetrics(cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&keystorePath, "keystore", cfg.KeystorePath, "Keystore file path (env "+config.EnvKeystorePath+")")
	flags.StringVar(&appID, "app-id", cfg.AppID, "Application id recorded in the audit log (env "+config.EnvAppID+")")
	flags.StringVar(&logPath, "log-file", cfg.LogPath, "Audit log path (env "+config.EnvLogPath+")")
	flags.StringVar(&metricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file (env "+config.EnvMetricsFile+")")
	flags.BoolVar(&noAudit, "no-audit", !cfg.AuditLog, "Disable the audit log (env "+config.EnvDisableLogging+")")
	flags.BoolVar(&noSync, "no-sync", !cfg.SyncEnv, "Do not substitute keys into environment reads (env "+config.EnvDisableSync+")")
	flags.BoolVar(&debug, "debug", cfg.Debug, "Enable debug logging (env "+config.EnvDebug+")")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		commands.NewGetCommand(cfg),
		commands.NewAddCommand(cfg),
		commands.NewRevokeCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewEnvCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewImportCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd
}
