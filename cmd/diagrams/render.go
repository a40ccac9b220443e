package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ritzau/infra-diagrams/pkg/logging"
)

var renderCmd = &cobra.Command{
	Use:   "render [example|file|dir]...",
	Short: "Render diagrams to image files",
	Long: `Renders the named built-in examples and the diagrams declared in the given
definition files or directories. Without arguments every built-in example is
rendered. With --watch the command keeps running and re-renders whatever a
file change affects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newSession(ctx, cmd, args, nil)
		if err != nil {
			return err
		}

		err = s.run(ctx, "initial build")
		if !s.cfg.Watch {
			return err
		}
		if err != nil {
			logging.Warn("initial build failed, watching for changes", "error", err)
		}
		return s.watch(ctx, logStatus)
	},
}

func logStatus(state string, changed []string, err error) {
	switch state {
	case "failed":
		logging.Error("rebuild failed", "files", changed, "error", err)
	case "ready":
		logging.Info("rebuild finished", "files", changed)
	}
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolP("watch", "w", false, "Re-render on definition, config or icon changes")
}

