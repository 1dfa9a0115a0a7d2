package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
)

func NewAddCommand(cfg *config.Config) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "add SERVICE [KEY...]",
		Short: "Add keys to a service's rotation",
		Long: `Append keys to the end of a service's rotation and save the keystore.

Keys already present are skipped. Prefer --stdin over positional keys so
secrets stay out of shell history.

Examples:
  keymixer add OPENAI_API_KEY sk-first sk-second
  pass show openai/keys | keymixer add OPENAI_API_KEY --stdin`,
		ValidArgsFunction: completeServices(cfg),
		Args:              cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]
			keys, err := collectKeys(args[1:], fromStdin, cmd.InOrStdin())
			if err != nil {
				return err
			}

			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			added := 0
			for _, key := range keys {
				if engine.AddKey(service, key) {
					added++
				}
			}

			logger := cfg.GetLogger()
			if added == 0 {
				logger.Warn("No new keys for %s (all %d already present)", service, len(keys))
				return nil
			}

			if err := saveEngine(engine); err != nil {
				return err
			}

			logger.Info("Added %d key(s) to %s (%d total)", added, service, len(engine.Keys(service)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read keys from stdin, one per line")

	return cmd
}
