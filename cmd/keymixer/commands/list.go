package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
	"github.com/systmms/keymixer/internal/keystore"
)

// serviceSummary is the list command's view of one service
type serviceSummary struct {
	Service string   `json:"service"`
	Count   int      `json:"count"`
	Keys    []string `json:"keys"`
}

func NewListCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services and their redacted keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(cfg)
			if err != nil {
				return err
			}

			var summaries []serviceSummary
			for _, service := range engine.Services() {
				keys := engine.Keys(service)
				redacted := make([]string, len(keys))
				for i, k := range keys {
					redacted[i] = keystore.RedactKey(k)
				}
				summaries = append(summaries, serviceSummary{
					Service: service,
					Count:   len(keys),
					Keys:    redacted,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if summaries == nil {
					summaries = []serviceSummary{}
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(summaries); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}

			if len(summaries) == 0 {
				fmt.Fprintf(out, "No services in %s\n", engine.Path())
				return nil
			}

			for _, s := range summaries {
				fmt.Fprintf(out, "%s (%d): %s\n", s.Service, s.Count, strings.Join(s.Keys, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
