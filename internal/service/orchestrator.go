package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snapreply/snapreply/internal/biz"
	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/biz/usecase"
)

const (
	defaultStopTimeout = 5 * time.Second
	defaultLoginPoll   = 2 * time.Second
	finalizeTimeout    = 15 * time.Second
	controlBuffer      = 8
	reportBuffer       = 64
)

// OrchestratorOptions configures how sessions are run
type OrchestratorOptions struct {
	TargetURL   string
	LoginURL    string
	Headless    bool
	StopTimeout time.Duration // graceful stop window before the worker context is cancelled
	LoginPoll   time.Duration
}

// Orchestrator owns the running workers, one per session. It relays control
// messages to them and consumes their reports.
type Orchestrator struct {
	sessions   repo.SessionRepo
	browsers   repo.BrowserRepo
	analytics  repo.AnalyticsRepo
	alerts     repo.AlertRepo
	completion repo.CompletionRepo
	prompts    usecase.PromptResolver
	opts       OrchestratorOptions
	log        *zap.Logger

	// overridable in tests
	sleep usecase.Sleeper
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	workers map[string]*workerHandle
	logins  map[string]struct{}
}

// workerHandle is the orchestrator's side of one running worker
type workerHandle struct {
	id       string
	control  chan domain.ControlMessage
	cancel   context.CancelFunc
	browser  repo.BrowserSession
	finished chan struct{} // Run returned
	done     chan struct{} // browser closed and final status persisted

	mu   sync.Mutex
	last domain.Report
	cfg  domain.RuntimeConfig
}

func (h *workerHandle) lastReport() domain.Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// NewOrchestrator creates a new orchestrator. alerts may be nil.
func NewOrchestrator(
	sessions repo.SessionRepo,
	browsers repo.BrowserRepo,
	analytics repo.AnalyticsRepo,
	alerts repo.AlertRepo,
	completion repo.CompletionRepo,
	prompts usecase.PromptResolver,
	opts OrchestratorOptions,
	log *zap.Logger,
) *Orchestrator {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.LoginPoll <= 0 {
		opts.LoginPoll = defaultLoginPoll
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		sessions:   sessions,
		browsers:   browsers,
		analytics:  analytics,
		alerts:     alerts,
		completion: completion,
		prompts:    prompts,
		opts:       opts,
		log:        log.Named("orchestrator"),
		sleep:      usecase.SleepContext,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		workers:    make(map[string]*workerHandle),
		logins:     make(map[string]struct{}),
	}
}

// IsRunning checks if a worker is active for the session
func (o *Orchestrator) IsRunning(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.workers[id]
	return ok
}

// Running returns the IDs of all sessions with an active worker
func (o *Orchestrator) Running() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.workers))
	for id := range o.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartSession launches the browser for a session, loads the target site and spawns its worker
func (o *Orchestrator) StartSession(ctx context.Context, id string) error {
	o.mu.Lock()
	if _, ok := o.workers[id]; ok {
		o.mu.Unlock()
		return domain.ErrSessionRunning
	}
	if _, ok := o.logins[id]; ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: login in progress", domain.ErrSessionRunning)
	}
	// reserve the slot while the browser starts
	o.workers[id] = nil
	o.mu.Unlock()

	h, err := o.launch(ctx, id)

	o.mu.Lock()
	if err != nil {
		delete(o.workers, id)
	} else {
		o.workers[id] = h
	}
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) launch(ctx context.Context, id string) (*workerHandle, error) {
	log := o.log.With(zap.String("session", id))

	rec, err := o.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b, err := o.browsers.Open(o.ctx, id, repo.BrowserOptions{Headless: o.opts.Headless})
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("launch browser: %v", err))
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	if !rec.BrowserState.IsEmpty() {
		if err := b.RestoreState(ctx, rec.BrowserState); err != nil {
			log.Warn("failed to restore browser state", zap.Error(err))
		}
	}

	page := b.Page()
	if err := page.Navigate(ctx, o.opts.TargetURL); err != nil {
		_ = b.Close()
		o.fail(ctx, id, fmt.Sprintf("navigate to %s: %v", o.opts.TargetURL, err))
		return nil, fmt.Errorf("%w: %v", domain.ErrNavigation, err)
	}
	o.saveState(ctx, id, b)

	cfg := rec.Config.WithDefaults().Normalize()
	uc := biz.NewUsecases(o.completion, o.prompts, o.sleep, o.now, log)
	control := make(chan domain.ControlMessage, controlBuffer)
	reports := make(chan domain.Report, reportBuffer)

	worker := NewWorker(id, cfg, WorkerDeps{
		Page:      page,
		Scanner:   uc.Scanner,
		Filter:    uc.Filter,
		Navigator: uc.Navigator,
		Reply:     uc.Reply,
		Gate:      uc.Gate,
		Delay:     uc.Delay,
		Now:       o.now,
		Log:       o.log,
	}, control, reports)

	wctx, cancel := context.WithCancel(o.ctx)
	h := &workerHandle{
		id:       id,
		control:  control,
		cancel:   cancel,
		browser:  b,
		finished: make(chan struct{}),
		done:     make(chan struct{}),
		cfg:      cfg,
	}

	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		defer close(reports)
		defer close(h.finished)
		if err := worker.Run(wctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker exited", zap.Error(err))
		}
	}()
	go func() {
		defer o.wg.Done()
		for r := range reports {
			o.handleReport(h, r)
		}
		o.finalize(h)
	}()

	log.Info("session started")
	return h, nil
}

// handleReport records a worker report and persists status changes
func (o *Orchestrator) handleReport(h *workerHandle, r domain.Report) {
	h.mu.Lock()
	prev := h.last.State
	h.last = r
	h.mu.Unlock()

	ctx := o.ctx
	switch r.Type {
	case domain.ReportMessageReceived, domain.ReportMessageSent, domain.ReportError:
		ev := domain.AnalyticsEvent{SessionID: h.id, Type: r.Type, Conversation: r.Conversation, At: r.At}
		if err := o.analytics.Record(ctx, ev); err != nil {
			o.log.Warn("failed to record analytics", zap.String("session", h.id), zap.Error(err))
		}
	}

	if r.Type == domain.ReportError {
		o.alert(ctx, h.id, r.Error)
	}

	if r.Type == domain.ReportStatus && r.State != prev && r.State != domain.WorkerStopped {
		if err := o.sessions.UpdateStatus(ctx, h.id, domain.StatusFor(r.State), ""); err != nil {
			o.log.Warn("failed to persist status", zap.String("session", h.id), zap.Error(err))
		}
	}
}

// finalize runs once the worker has exited and its reports are drained
func (o *Orchestrator) finalize(h *workerHandle) {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	o.saveState(ctx, h.id, h.browser)
	if err := h.browser.Close(); err != nil {
		o.log.Warn("failed to close browser", zap.String("session", h.id), zap.Error(err))
	}
	if err := o.sessions.UpdateStatus(ctx, h.id, domain.SessionStopped, ""); err != nil {
		o.log.Warn("failed to persist status", zap.String("session", h.id), zap.Error(err))
	}

	o.mu.Lock()
	if o.workers[h.id] == h {
		delete(o.workers, h.id)
	}
	o.mu.Unlock()
	o.log.Info("session stopped", zap.String("session", h.id))
}

// fail marks a session as errored and raises an alert
func (o *Orchestrator) fail(ctx context.Context, id, msg string) {
	o.log.Error("session failed", zap.String("session", id), zap.String("error", msg))
	if err := o.sessions.UpdateStatus(ctx, id, domain.SessionError, msg); err != nil {
		o.log.Warn("failed to persist status", zap.String("session", id), zap.Error(err))
	}
	ev := domain.AnalyticsEvent{SessionID: id, Type: domain.ReportError, At: o.now()}
	if err := o.analytics.Record(ctx, ev); err != nil {
		o.log.Warn("failed to record analytics", zap.String("session", id), zap.Error(err))
	}
	o.alert(ctx, id, msg)
}

func (o *Orchestrator) alert(ctx context.Context, id, msg string) {
	if o.alerts == nil || msg == "" {
		return
	}
	if err := o.alerts.Alert(ctx, id, msg); err != nil {
		o.log.Warn("failed to send alert", zap.String("session", id), zap.Error(err))
	}
}

func (o *Orchestrator) saveState(ctx context.Context, id string, b repo.BrowserSession) {
	state, err := b.SnapshotState(ctx)
	if err != nil {
		o.log.Warn("failed to snapshot browser state", zap.String("session", id), zap.Error(err))
		return
	}
	state.SavedAt = o.now()
	if err := o.sessions.SaveBrowserState(ctx, id, state); err != nil {
		o.log.Warn("failed to save browser state", zap.String("session", id), zap.Error(err))
	}
}

func (o *Orchestrator) handle(id string) (*workerHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h := o.workers[id]
	if h == nil {
		return nil, domain.ErrSessionNotRunning
	}
	return h, nil
}

func (o *Orchestrator) send(ctx context.Context, id string, msg domain.ControlMessage) error {
	h, err := o.handle(id)
	if err != nil {
		return err
	}
	select {
	case h.control <- msg:
		return nil
	case <-h.finished:
		return domain.ErrSessionNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause asks the worker to stop polling until resumed
func (o *Orchestrator) Pause(ctx context.Context, id string) error {
	return o.send(ctx, id, domain.ControlMessage{Type: domain.ControlPause})
}

// Resume asks a paused worker to continue polling
func (o *Orchestrator) Resume(ctx context.Context, id string) error {
	return o.send(ctx, id, domain.ControlMessage{Type: domain.ControlResume})
}

// UpdateConfig merges patch into the stored config and pushes it to the worker if one is running
func (o *Orchestrator) UpdateConfig(ctx context.Context, id string, patch domain.RuntimeConfigPatch) (domain.RuntimeConfig, error) {
	rec, err := o.sessions.Get(ctx, id)
	if err != nil {
		return domain.RuntimeConfig{}, err
	}
	cfg := patch.Apply(rec.Config).WithDefaults().Normalize()
	if err := o.sessions.SaveConfig(ctx, id, cfg); err != nil {
		return domain.RuntimeConfig{}, err
	}
	if err := o.push(ctx, id, cfg); err != nil && !errors.Is(err, domain.ErrSessionNotRunning) {
		return cfg, err
	}
	return cfg, nil
}

// ReloadConfig re-reads the stored config and pushes it to the running worker when it changed
func (o *Orchestrator) ReloadConfig(ctx context.Context, id string) error {
	if !o.IsRunning(id) {
		return nil
	}
	rec, err := o.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	return o.push(ctx, id, rec.Config.WithDefaults().Normalize())
}

// push sends cfg to the worker unless it already has it
func (o *Orchestrator) push(ctx context.Context, id string, cfg domain.RuntimeConfig) error {
	h, err := o.handle(id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	unchanged := cmp.Equal(h.cfg, cfg)
	h.mu.Unlock()
	if unchanged {
		return nil
	}

	patch := domain.PatchFrom(cfg)
	if err := o.send(ctx, id, domain.ControlMessage{Type: domain.ControlConfig, Config: &patch}); err != nil {
		return err
	}

	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	o.log.Info("config pushed", zap.String("session", id))
	return nil
}

// StopSession stops the worker gracefully, cancelling it if it does not exit within the stop timeout
func (o *Orchestrator) StopSession(ctx context.Context, id string) error {
	h, err := o.handle(id)
	if err != nil {
		return err
	}

	select {
	case h.control <- domain.ControlMessage{Type: domain.ControlStop}:
	case <-h.finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(o.opts.StopTimeout)
	defer timer.Stop()

	select {
	case <-h.finished:
	case <-timer.C:
		o.log.Warn("worker did not stop in time, cancelling", zap.String("session", id))
		h.cancel()
	case <-ctx.Done():
		h.cancel()
	}

	select {
	case <-h.done:
		h.cancel()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the last report of a running worker
func (o *Orchestrator) Status(id string) (domain.Report, bool) {
	h, err := o.handle(id)
	if err != nil {
		return domain.Report{}, false
	}
	return h.lastReport(), true
}

// SnapshotAll saves the browser state of every running session
func (o *Orchestrator) SnapshotAll(ctx context.Context) {
	o.mu.Lock()
	handles := make([]*workerHandle, 0, len(o.workers))
	for _, h := range o.workers {
		if h != nil {
			handles = append(handles, h)
		}
	}
	o.mu.Unlock()

	for _, h := range handles {
		select {
		case <-h.finished:
			continue
		default:
		}
		o.saveState(ctx, h.id, h.browser)
	}
}

// CaptureLogin opens a visible browser on the login page and waits until the user has signed in.
// The resulting cookies and storage are saved to the session.
func (o *Orchestrator) CaptureLogin(ctx context.Context, id string, timeout time.Duration) error {
	o.mu.Lock()
	if _, ok := o.workers[id]; ok {
		o.mu.Unlock()
		return domain.ErrSessionRunning
	}
	if _, ok := o.logins[id]; ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: login in progress", domain.ErrSessionRunning)
	}
	o.logins[id] = struct{}{}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.logins, id)
		o.mu.Unlock()
	}()

	log := o.log.With(zap.String("session", id))

	rec, err := o.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := o.sessions.UpdateStatus(ctx, id, domain.SessionLoggingIn, ""); err != nil {
		return err
	}

	b, err := o.browsers.Open(ctx, id, repo.BrowserOptions{Headless: false})
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("launch browser: %v", err))
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer b.Close()

	if !rec.BrowserState.IsEmpty() {
		if err := b.RestoreState(ctx, rec.BrowserState); err != nil {
			log.Warn("failed to restore browser state", zap.Error(err))
		}
	}

	page := b.Page()
	if err := page.Navigate(ctx, o.opts.LoginURL); err != nil {
		o.fail(ctx, id, fmt.Sprintf("navigate to %s: %v", o.opts.LoginURL, err))
		return fmt.Errorf("%w: %v", domain.ErrNavigation, err)
	}

	nav := usecase.NewNavigatorUsecase(usecase.NewDelay(o.sleep), nil, o.log)
	deadline := o.now().Add(timeout)
	log.Info("waiting for login", zap.Duration("timeout", timeout))

	for {
		if nav.LoggedIn(ctx, page, o.opts.LoginURL) {
			break
		}
		if !o.now().Before(deadline) {
			_ = o.sessions.UpdateStatus(ctx, id, domain.SessionError, domain.ErrLoginTimeout.Error())
			return domain.ErrLoginTimeout
		}
		if err := o.sleep(ctx, o.opts.LoginPoll); err != nil {
			_ = o.sessions.UpdateStatus(context.Background(), id, domain.SessionIdle, "")
			return err
		}
	}

	state, err := b.SnapshotState(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot browser state: %w", err)
	}
	state.SavedAt = o.now()
	if err := o.sessions.SaveBrowserState(ctx, id, state); err != nil {
		return err
	}
	if err := o.sessions.MarkLoggedIn(ctx, id); err != nil {
		return err
	}
	log.Info("login captured", zap.Int("cookies", len(state.Cookies)))
	return nil
}

// BeginLogin runs CaptureLogin in the background
func (o *Orchestrator) BeginLogin(id string, timeout time.Duration) error {
	if o.IsRunning(id) {
		return domain.ErrSessionRunning
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.CaptureLogin(o.ctx, id, timeout); err != nil {
			o.log.Warn("login capture failed", zap.String("session", id), zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops every running worker concurrently and waits for background work to finish
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range o.Running() {
		g.Go(func() error {
			if err := o.StopSession(gctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotRunning) {
				return fmt.Errorf("stop %s: %w", id, err)
			}
			return nil
		})
	}
	err := g.Wait()

	o.cancel()
	o.wg.Wait()
	return err
}
