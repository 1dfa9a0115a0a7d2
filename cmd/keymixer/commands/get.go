package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/keystore"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		count      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get SERVICE",
		Short: "Print the next key for a service",
		Long: `Print keys for a service in rotation order.

Rotation positions live in memory, so each invocation starts from the first
key. Use --count to see several successive keys from one rotation.

Examples:
  # Next key for a service
  keymixer get OPENAI_API_KEY

  # Three keys in rotation order
  keymixer get OPENAI_API_KEY --count 3`,
		ValidArgsFunction: completeServices(cfg),
		Args:              cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]
			if count < 1 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Invalid --count %d", count),
					Suggestion: "Use a count of 1 or more",
				}
			}

			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			keys := make([]string, 0, count)
			for i := 0; i < count; i++ {
				key, err := engine.GetKey(service)
				if err != nil {
					return dserrors.KeystoreError("get", err)
				}
				keys = append(keys, key)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				output := map[string]interface{}{
					"service": service,
					"keys":    keys,
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}

			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of successive keys to print")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

// keysNotFound builds the error for a service without keys
func keysNotFound(service string) error {
	return dserrors.KeystoreError("get", &keystore.NoKeysError{Service: service})
}
