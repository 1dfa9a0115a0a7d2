package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/keymixer/internal/config"
)

// NewCompletionCommand creates the completion command for generating shell completions.
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for keymixer.

To load completions:

Bash:
  $ source <(keymixer completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ keymixer completion bash > /etc/bash_completion.d/keymixer
  # macOS:
  $ keymixer completion bash > $(brew --prefix)/etc/bash_completion.d/keymixer

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ keymixer completion zsh > "${fpath[1]}/_keymixer"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ keymixer completion fish | source

  # To load completions for each session, execute once:
  $ keymixer completion fish > ~/.config/fish/completions/keymixer.fish

PowerShell:
  PS> keymixer completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> keymixer completion powershell > keymixer.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeServices offers service names from the keystore for commands
// that take a SERVICE argument.
func completeServices(cfg *config.Config) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg.AuditLog = false
		engine, err := openEngine(cfg)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return engine.Services(), cobra.ShellCompDirectiveNoFileComp
	}
}
