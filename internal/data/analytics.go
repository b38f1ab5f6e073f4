package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// analyticsRepo implements the analytics repository on SQLite
type analyticsRepo struct {
	db *sql.DB
}

// NewAnalyticsRepo opens (or creates) the analytics database
func NewAnalyticsRepo(dbPath string) (repo.AnalyticsRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			conversation TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_session_at ON events(session_id, at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &analyticsRepo{db: db}, nil
}

// Record stores one event
func (r *analyticsRepo) Record(ctx context.Context, ev domain.AnalyticsEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (session_id, type, conversation, at) VALUES (?, ?, ?, ?)
	`, ev.SessionID, string(ev.Type), ev.Conversation, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Summary counts received, sent and error events since the given time, per local day
func (r *analyticsRepo) Summary(ctx context.Context, sessionID string, since time.Time) (*domain.AnalyticsSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, at FROM events
		WHERE session_id = ? AND at >= ? AND type IN (?, ?, ?)
		ORDER BY at ASC
	`, sessionID, since.Unix(),
		string(domain.ReportMessageReceived), string(domain.ReportMessageSent), string(domain.ReportError))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	summary := &domain.AnalyticsSummary{SessionID: sessionID, Since: since, Daily: []domain.DailyCount{}}
	index := make(map[string]int)

	for rows.Next() {
		var typ string
		var at int64
		if err := rows.Scan(&typ, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		day := time.Unix(at, 0).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			summary.Daily = append(summary.Daily, domain.DailyCount{Day: day})
			i = len(summary.Daily) - 1
			index[day] = i
		}

		switch domain.ReportType(typ) {
		case domain.ReportMessageReceived:
			summary.Received++
			summary.Daily[i].Received++
		case domain.ReportMessageSent:
			summary.Sent++
			summary.Daily[i].Sent++
		case domain.ReportError:
			summary.Errors++
			summary.Daily[i].Errors++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return summary, nil
}

// CleanupOld deletes events older than before
func (r *analyticsRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database
func (r *analyticsRepo) Close() error {
	return r.db.Close()
}
