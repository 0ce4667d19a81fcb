// Package completion provides the shell completion command.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/internal/cmd/constants"
)

// NewCommand creates the completion command. Scripts are written to the
// command's output so they can be sourced or redirected into place.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, zsh, fish or powershell.

  source <(mdm completion bash)
  mdm completion zsh > "${fpath[1]}/_mdm"
  mdm completion fish > ~/.config/fish/completions/mdm.fish`,
		Args:                  cobra.ExactArgs(1),
		ValidArgs:             constants.Shells(),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Generate(cmd.Root(), args[0], cmd)
		},
	}
}

// Generate writes the completion script for shell to cmd's output.
func Generate(root *cobra.Command, shell string, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	switch shell {
	case constants.ShellBash:
		return root.GenBashCompletionV2(w, true)
	case constants.ShellZsh:
		return root.GenZshCompletion(w)
	case constants.ShellFish:
		return root.GenFishCompletion(w, true)
	case constants.ShellPowerShell:
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell %q: must be one of %v", shell, constants.Shells())
	}
}
