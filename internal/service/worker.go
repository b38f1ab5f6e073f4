package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/biz/usecase"
)

const (
	pausedMin         = 2 * time.Second
	pausedMax         = 4 * time.Second
	offScheduleMin    = 30 * time.Second
	offScheduleMax    = 60 * time.Second
	betweenConvMin    = 2 * time.Second
	betweenConvMax    = 4 * time.Second
	heartbeatEvery    = 10
	emptyScanLogEvery = 10
)

// WorkerDeps are the collaborators a worker drives
type WorkerDeps struct {
	Page      repo.PageRepo
	Scanner   *usecase.ScannerUsecase
	Filter    *usecase.FilterUsecase
	Navigator *usecase.NavigatorUsecase
	Reply     *usecase.ReplyUsecase
	Gate      *usecase.GateUsecase
	Delay     *usecase.Delay
	Now       func() time.Time
	Log       *zap.Logger
}

// Worker is the poll loop for one session. All of its state is owned by the
// goroutine running Run; the outside world talks to it through the control
// channel and hears from it through the report channel.
type Worker struct {
	sessionID string
	deps      WorkerDeps
	log       *zap.Logger

	control <-chan domain.ControlMessage
	reports chan<- domain.Report

	cfg   domain.RuntimeConfig
	state domain.WorkerState
	stats domain.WorkerStats

	iteration  int
	emptyScans int
}

// NewWorker creates a worker. It does nothing until Run is called.
func NewWorker(
	sessionID string,
	cfg domain.RuntimeConfig,
	deps WorkerDeps,
	control <-chan domain.ControlMessage,
	reports chan<- domain.Report,
) *Worker {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Worker{
		sessionID: sessionID,
		deps:      deps,
		log:       deps.Log.Named("worker").With(zap.String("session", sessionID)),
		control:   control,
		reports:   reports,
		cfg:       cfg.WithDefaults().Normalize(),
		state:     domain.WorkerStopped,
	}
}

// Run polls until a stop message arrives or ctx is cancelled.
// A graceful stop returns nil; cancellation returns the context error.
func (w *Worker) Run(ctx context.Context) error {
	now := w.deps.Now()
	w.stats.StartedAt = now
	w.stats.LastActivity = now
	w.setState(ctx, domain.WorkerStarting)
	w.setState(ctx, domain.WorkerRunning)
	w.log.Info("worker started")

	defer func() {
		w.setState(ctx, domain.WorkerStopped)
		w.log.Info("worker stopped",
			zap.Int("received", w.stats.MessagesReceived),
			zap.Int("sent", w.stats.MessagesSent),
		)
	}()

	for {
		if !w.drainControl(ctx) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if w.state == domain.WorkerPaused {
			if !w.idle(ctx, pausedMin, pausedMax) {
				return ctx.Err()
			}
			continue
		}

		if !w.deps.Gate.InSchedule(w.cfg) {
			w.log.Debug("outside schedule, backing off")
			if !w.idle(ctx, offScheduleMin, offScheduleMax) {
				return ctx.Err()
			}
			continue
		}

		if err := w.safeIterate(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("poll iteration failed", zap.Error(err))
			w.emit(ctx, domain.Report{Type: domain.ReportError, Error: err.Error()})
		}

		if w.state != domain.WorkerRunning && w.state != domain.WorkerPaused {
			return nil
		}

		min, max := w.cfg.PollInterval()
		if !w.idle(ctx, min, max) {
			return ctx.Err()
		}
	}
}

// safeIterate runs one poll iteration and turns a panic into an error
func (w *Worker) safeIterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in poll iteration: %v", r)
		}
	}()
	return w.iterate(ctx)
}

func (w *Worker) iterate(ctx context.Context) error {
	convs := w.deps.Scanner.ScanConversations(ctx, w.deps.Page)
	if len(convs) == 0 {
		if w.emptyScans%emptyScanLogEvery == 0 {
			w.log.Info("no conversations found", zap.Int("consecutive", w.emptyScans+1))
		}
		w.emptyScans++
	} else {
		w.emptyScans = 0
	}

	unread := domain.UnreadOnly(w.deps.Filter.Filter(convs, w.cfg))

	w.iteration++
	if w.iteration%heartbeatEvery == 0 {
		w.emit(ctx, domain.Report{Type: domain.ReportHeartbeat, Total: len(convs), Unread: len(unread)})
	}

	for i, conv := range unread {
		if i > 0 {
			if err := w.deps.Delay.Sleep(ctx, betweenConvMin, betweenConvMax); err != nil {
				return err
			}
			// stop and pause take effect between conversations, never mid-reply
			if !w.drainControl(ctx) || w.state != domain.WorkerRunning {
				return nil
			}
		}
		if err := w.handleConversation(ctx, conv); err != nil {
			return err
		}
	}
	return nil
}

// handleConversation processes one unread conversation. Only context errors are returned;
// everything else skips the conversation until the next poll.
func (w *Worker) handleConversation(ctx context.Context, conv domain.ConversationSummary) error {
	log := w.log.With(zap.String("conversation", conv.Name))

	w.stats.MessagesReceived++
	w.stats.LastActivity = w.deps.Now()
	w.emit(ctx, domain.Report{Type: domain.ReportMessageReceived, Conversation: conv.Name})

	if !w.deps.Navigator.Open(ctx, w.deps.Page, conv.Name) {
		return ctx.Err()
	}
	defer w.deps.Navigator.Exit(ctx, w.deps.Page)
	w.stats.ConversationsHandled++

	msgs := w.deps.Scanner.ScanMessages(ctx, w.deps.Page)
	last, idx := domain.LastReceived(msgs)
	if idx < 0 {
		log.Debug("no inbound message found")
		return nil
	}

	switch verdict := w.deps.Gate.Check(conv.Name, last.Text, w.cfg); verdict {
	case usecase.VerdictAllow:
	case usecase.VerdictDuplicate:
		log.Debug("already answered")
		return nil
	default:
		log.Info("reply gated", zap.Stringer("verdict", verdict))
		return nil
	}

	started := w.deps.Now()
	min, max := w.cfg.ResponseDelay()
	if err := w.deps.Delay.Sleep(ctx, min, max); err != nil {
		return err
	}

	reply, err := w.deps.Reply.Generate(ctx, w.cfg, last.Text, msgs[:idx])
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// not marked processed: the next poll retries
		log.Warn("reply generation failed", zap.Error(err))
		w.emit(ctx, domain.Report{Type: domain.ReportError, Conversation: conv.Name, Error: err.Error()})
		return nil
	}

	if err := w.deps.Navigator.Send(ctx, w.deps.Page, reply); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("send failed", zap.Error(err))
		if !errors.Is(err, domain.ErrNoChatInput) {
			w.emit(ctx, domain.Report{Type: domain.ReportError, Conversation: conv.Name, Error: err.Error()})
		}
		return nil
	}

	now := w.deps.Now()
	w.deps.Gate.MarkProcessed(conv.Name, last.Text)
	w.deps.Gate.RecordReply()
	w.stats.MessagesSent++
	w.stats.AddResponseTime(now.Sub(started))
	w.stats.LastActivity = now

	log.Info("reply sent", zap.Int("chars", len(reply)))
	w.emit(ctx, domain.Report{Type: domain.ReportMessageSent, Conversation: conv.Name, Text: reply})
	return nil
}

// drainControl applies every pending control message without blocking.
// It returns false once the worker must stop.
func (w *Worker) drainControl(ctx context.Context) bool {
	for {
		select {
		case msg, ok := <-w.control:
			if !w.apply(ctx, msg, ok) {
				return false
			}
		default:
			return true
		}
	}
}

// idle sleeps a random duration in [min, max] but wakes early for control messages.
// It returns false when the worker must stop or ctx is done.
func (w *Worker) idle(ctx context.Context, min, max time.Duration) bool {
	sleepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.deps.Delay.Sleep(sleepCtx, min, max) }()

	select {
	case err := <-done:
		return err == nil || ctx.Err() == nil
	case msg, ok := <-w.control:
		cancel()
		<-done
		if !w.apply(ctx, msg, ok) {
			return false
		}
		return ctx.Err() == nil
	}
}

// apply handles one control message; a closed channel counts as stop
func (w *Worker) apply(ctx context.Context, msg domain.ControlMessage, ok bool) bool {
	if !ok {
		msg = domain.ControlMessage{Type: domain.ControlStop}
	}

	next, valid := w.state.Next(msg.Type)
	if !valid {
		w.log.Debug("control message ignored", zap.String("type", string(msg.Type)), zap.String("state", string(w.state)))
		return true
	}

	if msg.Type == domain.ControlConfig && msg.Config != nil {
		w.cfg = msg.Config.Apply(w.cfg).WithDefaults().Normalize()
		w.log.Info("config updated")
	}
	if next != w.state {
		w.setState(ctx, next)
	}
	return next != domain.WorkerStopping
}

func (w *Worker) setState(ctx context.Context, s domain.WorkerState) {
	w.state = s
	w.emit(ctx, domain.Report{Type: domain.ReportStatus})
}

// emit sends a report stamped with the current state and stats.
// Once ctx is done the report is only delivered if there is room.
func (w *Worker) emit(ctx context.Context, r domain.Report) {
	r.SessionID = w.sessionID
	r.State = w.state
	r.Stats = w.stats.Snapshot()
	r.At = w.deps.Now()

	select {
	case w.reports <- r:
		return
	case <-ctx.Done():
	}
	select {
	case w.reports <- r:
	default:
	}
}
