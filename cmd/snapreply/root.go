package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// annotationNoWire marks commands that run without loading configuration
const annotationNoWire = "snapreply/no-wire"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "snapreply",
		Short:         "Auto-reply worker for a web chat, with a control dashboard",
		Long:          "snapreply drives logged-in browser sessions of a web chat, answers unread conversations through a language model, and exposes session control over HTTP and MCP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app := &app{}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[annotationNoWire] == "true" {
			return nil
		}
		return app.wire()
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newRunCmd(app),
		newLoginCmd(app),
		newSessionsCmd(app),
		newMCPCmd(app),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{annotationNoWire: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
