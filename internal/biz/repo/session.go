package repo

import (
	"context"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

// SessionRepo is the session storage interface
type SessionRepo interface {
	List(ctx context.Context) ([]*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.SessionRecord, error)
	Create(ctx context.Context, name string) (*domain.SessionRecord, error)
	Delete(ctx context.Context, id string) error

	SaveConfig(ctx context.Context, id string, cfg domain.RuntimeConfig) error
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, lastErr string) error
	MarkLoggedIn(ctx context.Context, id string) error

	LoadBrowserState(ctx context.Context, id string) (domain.BrowserState, error)
	SaveBrowserState(ctx context.Context, id string, state domain.BrowserState) error

	// IDFromPath returns the session a stored file belongs to, or "" for any other file
	IDFromPath(path string) string
}
