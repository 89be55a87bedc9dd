package cli

import (
	"github.com/spf13/cobra"
)

// SetupRootCmd builds the corvid root command and every subcommand,
// mirroring the teacher's SetupRootCmd(*config.Config) shape but bound to
// an already-constructed App rather than a bare config.
func SetupRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "corvid",
		Short: "corvid - personal automation assistant core",
		Long: `corvid is the decision-and-execution core of a personal automation
assistant: a tiered router that resolves most requests without an
agent call, a daemon loop that polls watchers and runs scheduled
tasks, and a small-model delegation fabric that keeps large-model
calls rare.`,
	}

	root.AddCommand(
		RouteCmd(app),
		RunCmd(app),
		DaemonCmd(app),
		ManifestCmd(app),
		LedgerCmd(app),
	)
	return root
}
