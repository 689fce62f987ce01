package cli

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree for one input line so flag values
// never leak between lines.
func (a *App) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cribfeed",
		Short:         "A feed for creative communities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.feedCmd(),
		a.postCmd(),
		a.uploadCmd(),
		a.likeCmd(),
		a.saveCmd(),
		a.commentCmd(),
	)
	return root
}
