package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
	"github.com/systmms/keymixer/internal/envbridge"
)

func NewEnvCommand(cfg *config.Config) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "env NAME...",
		Short: "Read environment variables through the keystore",
		Long: `Print NAME=value for each name, reading through the keystore.

Names with keys in the keystore print the next rotated key. Other names
print the value from the current environment. With --no-sync every name
reads straight from the environment.

Examples:
  keymixer env OPENAI_API_KEY HOME
  eval "export $(keymixer env OPENAI_API_KEY)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			env := envbridge.Sync(cfg.SyncEnv, engine, envbridge.OSEnv{})
			out := cmd.OutOrStdout()
			for _, name := range args {
				if strict && !engine.HasKeysFor(name) {
					return keysNotFound(name)
				}
				value, ok := env.Lookup(name)
				if !ok {
					cfg.GetLogger().Warn("%s is not set", name)
					continue
				}
				fmt.Fprintf(out, "%s=%s\n", name, value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail if a name has no keys in the keystore")

	return cmd
}
