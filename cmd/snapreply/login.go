package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <session-id>",
		Short: "Open a browser window and capture the session's login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, err := cmd.Flags().GetDuration("timeout")
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = app.cfg.Target.LoginTimeout
			}

			repos, err := app.repositories()
			if err != nil {
				return err
			}
			defer repos.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Log in within the browser window (timeout %s)...\n", timeout)
			orch := app.orchestrator(repos, false)
			if err := orch.CaptureLogin(cmd.Context(), args[0], timeout); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Login saved.")
			return err
		},
	}
	cmd.Flags().Duration("timeout", 0, "how long to wait for the login to complete (default LOGIN_TIMEOUT)")
	return cmd
}
