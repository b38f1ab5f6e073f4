package repo

import (
	"context"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

// BrowserOptions controls how a session browser is launched
type BrowserOptions struct {
	Headless bool
}

// BrowserRepo launches isolated browsers, one per session
type BrowserRepo interface {
	Open(ctx context.Context, sessionID string, opts BrowserOptions) (BrowserSession, error)
}

// BrowserSession is a running browser bound to one session
type BrowserSession interface {
	Page() PageRepo

	// RestoreState injects cookies and local storage captured earlier
	RestoreState(ctx context.Context, state domain.BrowserState) error

	// SnapshotState captures cookies and local storage
	SnapshotState(ctx context.Context) (domain.BrowserState, error)

	Close() error
}
