package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/keychain"
)

// newKeychainClient is replaced in tests
var newKeychainClient = keychain.New

func NewImportCommand(cfg *config.Config) *cobra.Command {
	var from []string

	cmd := &cobra.Command{
		Use:   "import SERVICE --from <keychain-service>/<account>...",
		Short: "Import keys from the OS keychain",
		Long: `Read secrets from the OS keychain and add them to a service's rotation.

Uses the macOS Keychain, the Secret Service on Linux, or the Windows
Credential Manager.

Examples:
  keymixer import OPENAI_API_KEY --from openai/primary --from openai/backup`,
		ValidArgsFunction: completeServices(cfg),
		Args:              cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]
			if len(from) == 0 {
				return dserrors.UserError{
					Message:    "No keychain items given",
					Suggestion: "Use --from <keychain-service>/<account>",
				}
			}

			refs := make([]keychain.Reference, 0, len(from))
			for _, raw := range from {
				ref, err := keychain.ParseReference(raw)
				if err != nil {
					return dserrors.ConfigError{
						Field:      "from",
						Value:      raw,
						Message:    err.Error(),
						Suggestion: "Use the form <keychain-service>/<account>",
					}
				}
				refs = append(refs, ref)
			}

			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			client := newKeychainClient()
			logger := cfg.GetLogger()
			added := 0
			for _, ref := range refs {
				secret, err := keychain.Fetch(client, ref)
				if err != nil {
					return dserrors.UserError{
						Message:    "Failed to read keychain item " + ref.String(),
						Details:    err.Error(),
						Suggestion: "Check the item exists and the keychain is unlocked",
						Err:        err,
					}
				}
				if engine.AddKey(service, secret) {
					added++
				} else {
					logger.Debug("Keychain item %s already in %s", ref, service)
				}
			}

			if added == 0 {
				logger.Warn("No new keys imported into %s", service)
				return nil
			}

			if err := saveEngine(engine); err != nil {
				return err
			}

			logger.Info("Imported %d key(s) into %s", added, service)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&from, "from", nil, "Keychain item as <keychain-service>/<account> (repeatable)")

	return cmd
}
