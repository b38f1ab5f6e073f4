package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// ConfigReloader pushes a session's stored config to its running worker
type ConfigReloader interface {
	ReloadConfig(ctx context.Context, id string) error
}

// SessionFiles maps a file in the sessions directory to the session it stores
type SessionFiles interface {
	IDFromPath(path string) string
}

// ConfigWatcher watches the sessions directory and reloads configs edited on disk
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	files    SessionFiles
	reloader ConfigReloader
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher on dir
func NewConfigWatcher(dir string, files SessionFiles, reloader ConfigReloader, log *zap.Logger) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfigWatcher{
		watcher:  w,
		dir:      dir,
		files:    files,
		reloader: reloader,
		debounce: watchDebounce,
		log:      log.Named("watcher"),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.running {
		return nil
	}
	if err := cw.watcher.Add(cw.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cw.dir, err)
	}
	cw.running = true
	go cw.run(ctx)
	cw.log.Info("watching sessions", zap.String("dir", cw.dir))
	return nil
}

// Stop stops watching and releases the underlying watcher
func (cw *ConfigWatcher) Stop() {
	cw.mu.Lock()
	running := cw.running
	cw.running = false
	cw.mu.Unlock()

	if running {
		close(cw.stopCh)
		<-cw.doneCh
	}
	if err := cw.watcher.Close(); err != nil {
		cw.log.Warn("failed to close watcher", zap.Error(err))
	}
}

func (cw *ConfigWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	ticker := time.NewTicker(cw.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(ev)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			cw.flush(ctx)
		}
	}
}

// handleEvent records writes to session files; the session store replaces files by rename
func (cw *ConfigWatcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	id := cw.files.IDFromPath(ev.Name)
	if id == "" {
		return
	}
	cw.mu.Lock()
	cw.pending[id] = time.Now()
	cw.mu.Unlock()
}

// flush reloads sessions whose files have been quiet for the debounce window
func (cw *ConfigWatcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string

	cw.mu.Lock()
	for id, at := range cw.pending {
		if now.Sub(at) >= cw.debounce {
			ready = append(ready, id)
			delete(cw.pending, id)
		}
	}
	cw.mu.Unlock()

	for _, id := range ready {
		if err := cw.reloader.ReloadConfig(ctx, id); err != nil {
			cw.log.Warn("config reload failed", zap.String("session", id), zap.Error(err))
		}
	}
}
