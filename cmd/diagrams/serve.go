package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/preview"
)

var serveCmd = &cobra.Command{
	Use:   "serve [example|file|dir]...",
	Short: "Serve a live preview of the diagrams",
	Long: `Renders the diagrams, serves them over HTTP and re-renders on file changes.
Open the printed URL in a browser; the page refreshes when a diagram is
rebuilt. Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := preview.NewServer()
		s, err := newSession(ctx, cmd, args, server)
		if err != nil {
			return err
		}

		status := func(state string, changed []string, err error) {
			logStatus(state, changed, err)
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			if pubErr := server.PublishBuildStatus(state, changed, msg); pubErr != nil {
				logging.Debug("failed to publish build status", "error", pubErr)
			}
		}

		// Render in the background so the page is reachable right away.
		go func() {
			status("building", nil, nil)
			if err := s.run(ctx, "initial build"); err != nil {
				status("failed", nil, err)
			} else {
				status("ready", nil, nil)
			}
			if err := s.watch(ctx, status); err != nil {
				logging.Error("watching stopped", "error", err)
			}
		}()

		if err := server.Start(ctx, s.cfg.Port); err != nil {
			return err
		}
		logging.Info("preview server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
