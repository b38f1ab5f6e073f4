package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/snapreply/snapreply/internal/mcp"
)

func newMCPCmd(app *app) *cobra.Command {
	var dashboardURL string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve session control tools over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if dashboardURL == "" {
				dashboardURL = app.cfg.Dashboard.BaseURL()
			}
			client := mcpserver.NewClient(dashboardURL)
			return mcpserver.NewServer(client, version).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&dashboardURL, "dashboard-url", "", "dashboard API base URL (default from DASHBOARD_HOST and DASHBOARD_PORT)")
	return cmd
}
