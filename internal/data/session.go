package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

const sessionFileExt = ".json"

// sessionRepo implements the session repository as one JSON file per session
type sessionRepo struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewSessionRepo creates a session repository rooted at dir
func NewSessionRepo(dir string) (repo.SessionRepo, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &sessionRepo{dir: dir, now: time.Now}, nil
}

// IDFromPath returns the session ID a session file path belongs to, or "" if it is not one
func (r *sessionRepo) IDFromPath(path string) string {
	return sessionIDFromPath(path)
}

func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, sessionFileExt) || strings.HasPrefix(base, ".") {
		return ""
	}
	return strings.TrimSuffix(base, sessionFileExt)
}

func (r *sessionRepo) path(id string) string {
	return filepath.Join(r.dir, id+sessionFileExt)
}

func (r *sessionRepo) read(id string) (*domain.SessionRecord, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, domain.ErrSessionNotFound
	}
	raw, err := os.ReadFile(r.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	// keys missing from older files keep the defaults; explicit zeros are kept
	rec := domain.SessionRecord{Config: domain.DefaultRuntimeConfig()}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if rec.Meta.ID == "" {
		rec.Meta.ID = id
	}
	rec.Config = rec.Config.WithDefaults()
	return &rec, nil
}

// write replaces the file atomically via a temp file in the same directory
func (r *sessionRepo) write(rec *domain.SessionRecord) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+rec.Meta.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path(rec.Meta.ID)); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// update runs a read-modify-write under the repository lock
func (r *sessionRepo) update(id string, fn func(rec *domain.SessionRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.read(id)
	if err != nil {
		return err
	}
	fn(rec)
	rec.Meta.UpdatedAt = r.now()
	return r.write(rec)
}

// List returns session metadata sorted by creation time
func (r *sessionRepo) List(ctx context.Context) ([]*domain.Session, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var result []*domain.Session
	for _, e := range entries {
		id := sessionIDFromPath(e.Name())
		if e.IsDir() || id == "" {
			continue
		}
		rec, err := r.read(id)
		if err != nil {
			continue
		}
		meta := rec.Meta
		result = append(result, &meta)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Get loads a full session record
func (r *sessionRepo) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	return r.read(id)
}

// Create writes a new idle session with the default configuration
func (r *sessionRepo) Create(ctx context.Context, name string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec := &domain.SessionRecord{
		Meta: domain.Session{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    domain.SessionIdle,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Config: domain.DefaultRuntimeConfig(),
	}
	if err := r.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the session file
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.read(id); err != nil {
		return err
	}
	if err := os.Remove(r.path(id)); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// SaveConfig replaces the runtime configuration
func (r *sessionRepo) SaveConfig(ctx context.Context, id string, cfg domain.RuntimeConfig) error {
	return r.update(id, func(rec *domain.SessionRecord) {
		rec.Config = cfg
	})
}

// UpdateStatus sets the status and last error
func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, lastErr string) error {
	return r.update(id, func(rec *domain.SessionRecord) {
		rec.Meta.Status = status
		rec.Meta.LastError = lastErr
	})
}

// MarkLoggedIn records a successful login capture
func (r *sessionRepo) MarkLoggedIn(ctx context.Context, id string) error {
	return r.update(id, func(rec *domain.SessionRecord) {
		rec.Meta.LastLoginAt = r.now()
		rec.Meta.Status = domain.SessionIdle
		rec.Meta.LastError = ""
	})
}

// LoadBrowserState returns the stored cookies and storage
func (r *sessionRepo) LoadBrowserState(ctx context.Context, id string) (domain.BrowserState, error) {
	rec, err := r.read(id)
	if err != nil {
		return domain.BrowserState{}, err
	}
	return rec.BrowserState, nil
}

// SaveBrowserState replaces the stored cookies and storage
func (r *sessionRepo) SaveBrowserState(ctx context.Context, id string, state domain.BrowserState) error {
	if state.SavedAt.IsZero() {
		state.SavedAt = r.now()
	}
	return r.update(id, func(rec *domain.SessionRecord) {
		rec.BrowserState = state
	})
}
