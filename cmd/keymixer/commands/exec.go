package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/envbridge"
	"github.com/systmms/keymixer/internal/execenv"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		printVars  bool
		workingDir string
		timeout    int
	)

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Execute a command with rotated keys in its environment",
		Long: `Execute a command whose environment carries the next rotated key for
every service in the keystore. Variables that are not keystore services
are passed through unchanged. With --no-sync the command gets the current
environment untouched.

The command must be separated from keymixer arguments with '--'.

Examples:
  keymixer exec -- node server.js
  keymixer exec --print -- python worker.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return dserrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: keymixer exec -- <command> [args...]",
				}
			}

			logger := cfg.GetLogger()
			if err := execenv.ValidateCommand(args); err != nil {
				logger.Warn("Command validation: %s", err.Error())
			}

			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			var services []string
			if cfg.SyncEnv {
				services = engine.Services()
			}

			return execenv.New(logger).Exec(cmd.Context(), execenv.ExecOptions{
				Command:    args,
				Env:        envbridge.Sync(cfg.SyncEnv, engine, envbridge.OSEnv{}),
				Services:   services,
				PrintVars:  printVars,
				WorkingDir: workingDir,
				Timeout:    timeout,
			})
		},
	}

	cmd.Flags().BoolVar(&printVars, "print", false, "Print substituted variables (values redacted)")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Command timeout in seconds (0 for no timeout)")

	return cmd
}
