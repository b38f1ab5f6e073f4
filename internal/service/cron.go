package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

const (
	snapshotSpec  = "@every 5m"
	retentionSpec = "@daily"
	cronJobLimit  = time.Minute
)

// Snapshotter persists the browser state of running sessions
type Snapshotter interface {
	SnapshotAll(ctx context.Context)
}

// CronRunner runs the periodic maintenance jobs
type CronRunner struct {
	cron        *cron.Cron
	snapshotter Snapshotter
	analytics   repo.AnalyticsRepo
	retention   time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewCronRunner creates a new cron runner. Events older than retention are purged daily.
func NewCronRunner(snapshotter Snapshotter, analytics repo.AnalyticsRepo, retention time.Duration, log *zap.Logger) (*CronRunner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("cron")
	clog := cronLogger{log.Sugar()}
	r := &CronRunner{
		cron:        cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog))),
		snapshotter: snapshotter,
		analytics:   analytics,
		retention:   retention,
		now:         time.Now,
		log:         log,
	}

	if _, err := r.cron.AddFunc(snapshotSpec, r.snapshot); err != nil {
		return nil, err
	}
	if retention > 0 {
		if _, err := r.cron.AddFunc(retentionSpec, r.cleanup); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Start starts the scheduler in its own goroutine
func (r *CronRunner) Start() {
	r.cron.Start()
	r.log.Info("cron started", zap.Int("jobs", len(r.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs
func (r *CronRunner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("cron stopped")
}

func (r *CronRunner) snapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobLimit)
	defer cancel()
	r.snapshotter.SnapshotAll(ctx)
}

func (r *CronRunner) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobLimit)
	defer cancel()

	n, err := r.analytics.CleanupOld(ctx, r.now().Add(-r.retention))
	if err != nil {
		r.log.Warn("analytics cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("analytics cleaned up", zap.Int64("deleted", n))
	}
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
