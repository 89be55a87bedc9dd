package cli

import (
	"github.com/spf13/cobra"
)

// DaemonCmd starts the Daemon Loop: watcher polling, scheduler ticks, and
// the heartbeat, blocking until a termination signal arrives.
func DaemonCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Start the daemon loop (watchers, scheduler, heartbeat)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Daemon.Run(cmd.Context())
		},
	}
}
