package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
)

func NewRevokeCommand(cfg *config.Config) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "revoke SERVICE [KEY...]",
		Short: "Remove keys from a service's rotation",
		Long: `Remove keys from a service and save the keystore.

Rotation for the service restarts at its first remaining key. A service
whose last key is revoked stays in the keystore with no keys.

Examples:
  keymixer revoke OPENAI_API_KEY sk-leaked`,
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

			revoked := 0
			for _, key := range keys {
				if engine.RevokeKey(service, key) {
					revoked++
				}
			}

			logger := cfg.GetLogger()
			if revoked == 0 {
				logger.Warn("No matching keys for %s", service)
				return nil
			}

			if err := saveEngine(engine); err != nil {
				return err
			}

			remaining := len(engine.Keys(service))
			logger.Info("Revoked %d key(s) from %s (%d remaining)", revoked, service, remaining)
			if remaining == 0 {
				logger.Warn("%s has no keys left", service)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read keys from stdin, one per line")

	return cmd
}
