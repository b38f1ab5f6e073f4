package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snapreply/snapreply/internal/server"
	"github.com/snapreply/snapreply/internal/service"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var start []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and manage session workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx, start)
		},
	}
	cmd.Flags().StringSliceVar(&start, "start", nil, "session IDs to start once the server is up")
	return cmd
}

func (a *app) serve(ctx context.Context, start []string) error {
	repos, err := a.repositories()
	if err != nil {
		return err
	}
	defer repos.Close()

	orch := a.orchestrator(repos, a.cfg.Browser.Headless)

	cron, err := service.NewCronRunner(orch, repos.Analytics, a.retention(), a.log)
	if err != nil {
		return err
	}
	cron.Start()
	defer cron.Stop()

	watcher, err := service.NewConfigWatcher(a.cfg.SessionsDir(), repos.Session, orch, a.log)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	dashboard := server.NewServer(repos.Session, repos.Analytics, orch, a.cfg.Target.LoginTimeout, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dashboard.Run(gctx, a.cfg.Dashboard.Addr())
	})
	g.Go(func() error {
		for _, id := range start {
			if err := orch.StartSession(gctx, id); err != nil {
				a.log.Error("failed to start session", zap.String("session", id), zap.Error(err))
			}
		}
		return nil
	})

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := orch.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}
	a.log.Info("server stopped")
	return err
}
