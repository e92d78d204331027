package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfinder/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the workflows over HTTP:

  POST /v1/support              triage a ticket
  POST /v1/rag                  ask a question
  POST /v1/workflows/{name}/runs run any workflow with a raw input object
  GET  /v1/workflows/{name}/graph  describe a workflow (?format=mermaid)
  GET  /v1/runs[/{id}]          stored run records
  GET  /v1/events               lifecycle events (SSE)
  GET  /metrics                 Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Ping(ctx); err != nil {
			return err
		}
		if tui.IsTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr)
		}
		return app.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
