package repo

import (
	"context"
	"time"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

// AnalyticsRepo records worker events for usage reporting
type AnalyticsRepo interface {
	Record(ctx context.Context, ev domain.AnalyticsEvent) error
	Summary(ctx context.Context, sessionID string, since time.Time) (*domain.AnalyticsSummary, error)
	CleanupOld(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// AlertRepo delivers operator alerts
type AlertRepo interface {
	Alert(ctx context.Context, sessionID, text string) error
}
