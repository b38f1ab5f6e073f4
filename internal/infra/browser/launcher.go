package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// Options configures browser launches
type Options struct {
	Bin        string // browser binary; empty lets the launcher find or download one
	ProfileDir string // parent directory for per-session user data dirs
	NoSandbox  bool
}

// Launcher starts one isolated browser per session
type Launcher struct {
	opts Options
	log  *zap.Logger
}

// NewLauncher creates a launcher
func NewLauncher(opts Options, log *zap.Logger) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{opts: opts, log: log.Named("browser")}
}

// Instance is a running browser process and its connection
type Instance struct {
	Browser *rod.Browser

	launcher  *launcher.Launcher
	closeOnce sync.Once
}

// Launch starts a browser with the session's own profile directory and connects to it
func (l *Launcher) Launch(ctx context.Context, sessionID string, headless bool) (*Instance, error) {
	profile := filepath.Join(l.opts.ProfileDir, sessionID)
	if err := os.MkdirAll(profile, 0755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	lc := launcher.New().
		Headless(headless).
		UserDataDir(profile).
		Leakless(true)
	if l.opts.Bin != "" {
		lc = lc.Bin(l.opts.Bin)
	}
	if l.opts.NoSandbox {
		lc = lc.NoSandbox(true)
	}

	controlURL, err := lc.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		lc.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	l.log.Info("browser launched",
		zap.String("session", sessionID),
		zap.Bool("headless", headless),
		zap.String("profile", profile),
	)
	return &Instance{Browser: b, launcher: lc}, nil
}

// Close shuts the browser down. The profile directory is kept for the next launch.
func (i *Instance) Close() error {
	var err error
	i.closeOnce.Do(func() {
		err = i.Browser.Close()
		i.launcher.Kill()
	})
	return err
}
