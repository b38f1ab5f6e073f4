package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/conf"
	"github.com/snapreply/snapreply/internal/data"
	"github.com/snapreply/snapreply/internal/service"
)

type app struct {
	cfg *conf.Config
	log *zap.Logger
}

// wire loads configuration and builds the logger once, before a command runs
func (a *app) wire() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := conf.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

// newLogger builds the process logger. Output goes to stderr so stdout stays free for MCP.
func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

func (a *app) sessionRepo() (repo.SessionRepo, error) {
	return data.NewSessionRepo(a.cfg.SessionsDir())
}

func (a *app) repositories() (*data.Repositories, error) {
	repos, err := data.NewRepositories(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("wire repositories: %w", err)
	}
	return repos, nil
}

func (a *app) orchestrator(repos *data.Repositories, headless bool) *service.Orchestrator {
	return service.NewOrchestrator(
		repos.Session,
		repos.Browser,
		repos.Analytics,
		repos.Alert,
		repos.Completion,
		a.cfg.Personalities,
		service.OrchestratorOptions{
			TargetURL: a.cfg.Target.URL,
			LoginURL:  a.cfg.Target.LoginURL,
			Headless:  headless,
		},
		a.log,
	)
}

func (a *app) retention() time.Duration {
	return time.Duration(a.cfg.Analytics.RetentionDays) * 24 * time.Hour
}
