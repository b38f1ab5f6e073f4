package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const runPollInterval = time.Second

func newRunCmd(app *app) *cobra.Command {
	var headed bool

	cmd := &cobra.Command{
		Use:   "run <session-id>",
		Short: "Run one session's worker in the foreground until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.run(ctx, args[0], !headed && app.cfg.Browser.Headless)
		},
	}
	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	return cmd
}

func (a *app) run(ctx context.Context, id string, headless bool) error {
	repos, err := a.repositories()
	if err != nil {
		return err
	}
	defer repos.Close()

	orch := a.orchestrator(repos, headless)
	if err := orch.StartSession(ctx, id); err != nil {
		return err
	}

	waitWhileRunning(ctx, func() bool { return orch.IsRunning(id) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return orch.Shutdown(shutdownCtx)
}

// waitWhileRunning blocks until running reports false or ctx is done
func waitWhileRunning(ctx context.Context, running func() bool) {
	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()
	for running() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
