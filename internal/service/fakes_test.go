package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func unreadItem(name string) domain.ListItemSnapshot {
	return domain.ListItemSnapshot{Text: name + "\nreceived · 5m\nhey there"}
}

func inbound(text string, top float64) domain.MessageNodeSnapshot {
	return domain.MessageNodeSnapshot{Text: text, Top: top, ParentLeft: 40, RegionLeft: 0, RegionWidth: 1000}
}

func outbound(text string, top float64) domain.MessageNodeSnapshot {
	return domain.MessageNodeSnapshot{Text: text, Top: top, ParentLeft: 700, RegionLeft: 0, RegionWidth: 1000}
}

type fakeElement struct {
	text string
}

func (e *fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }
func (e *fakeElement) Click(ctx context.Context) error         { return nil }

// fakePage answers evaluations by the type of the result the caller decodes into
type fakePage struct {
	mu sync.Mutex

	items     []domain.ListItemSnapshot
	messages  []domain.MessageNodeSnapshot
	openable  map[string]bool
	loggedIn  bool
	navErr    error
	panicScan int
	block     bool // list scans hang until their context is cancelled

	url   string
	scans int
	typed strings.Builder
	keys  []repo.Key
}

func newFakePage() *fakePage {
	return &fakePage{openable: map[string]bool{}}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any, args ...any) error {
	p.mu.Lock()
	block := p.block
	p.mu.Unlock()
	if _, isList := out.(*[]domain.ListItemSnapshot); isList && block {
		<-ctx.Done()
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var res any
	switch out.(type) {
	case *[]domain.ListItemSnapshot:
		p.scans++
		if p.panicScan > 0 {
			p.panicScan--
			panic("page crashed")
		}
		res = p.items
	case *[]domain.MessageNodeSnapshot:
		res = p.messages
	case *bool:
		res = p.loggedIn
	default:
		// a name argument means a text lookup, which this page never satisfies
		res = map[string]any{"found": len(args) == 0, "x": 400, "y": 600}
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (p *fakePage) FindElements(ctx context.Context, selector string) ([]repo.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var els []repo.Element
	for name, ok := range p.openable {
		if ok {
			els = append(els, &fakeElement{text: name})
		}
	}
	return els, nil
}

func (p *fakePage) FindByText(ctx context.Context, selector, pattern string) (repo.Element, error) {
	return nil, repo.ErrElementNotFound
}

func (p *fakePage) ClickPoint(ctx context.Context, x, y float64) error { return nil }

func (p *fakePage) TypeText(ctx context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed.WriteString(text)
	return nil
}

func (p *fakePage) PressKey(ctx context.Context, key repo.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Typed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed.String()
}

func (p *fakePage) Scans() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scans
}

type fakeCompletion struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []repo.CompletionRequest
}

func (c *fakeCompletion) Complete(ctx context.Context, req repo.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return c.reply, c.err
}

func (c *fakeCompletion) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reqs)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.SessionRecord
	statuses map[string][]domain.SessionStatus
}

func newFakeSessionRepo(ids ...string) *fakeSessionRepo {
	r := &fakeSessionRepo{
		records:  map[string]*domain.SessionRecord{},
		statuses: map[string][]domain.SessionStatus{},
	}
	for _, id := range ids {
		r.records[id] = &domain.SessionRecord{
			Meta:   domain.Session{ID: id, Name: id, Status: domain.SessionIdle},
			Config: domain.DefaultRuntimeConfig(),
		}
	}
	return r
}

func (r *fakeSessionRepo) List(ctx context.Context) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, rec := range r.records {
		meta := rec.Meta
		out = append(out, &meta)
	}
	return out, nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, name string) (*domain.SessionRecord, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *fakeSessionRepo) SaveConfig(ctx context.Context, id string, cfg domain.RuntimeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.Config = cfg
	return nil
}

func (r *fakeSessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.Meta.Status = status
	rec.Meta.LastError = lastErr
	r.statuses[id] = append(r.statuses[id], status)
	return nil
}

func (r *fakeSessionRepo) MarkLoggedIn(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.Meta.LastLoginAt = time.Now()
	rec.Meta.Status = domain.SessionIdle
	return nil
}

func (r *fakeSessionRepo) LoadBrowserState(ctx context.Context, id string) (domain.BrowserState, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return domain.BrowserState{}, err
	}
	return rec.BrowserState, nil
}

func (r *fakeSessionRepo) SaveBrowserState(ctx context.Context, id string, state domain.BrowserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.BrowserState = state
	return nil
}

func (r *fakeSessionRepo) IDFromPath(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.TrimSuffix(base, ".json")
}

func (r *fakeSessionRepo) Record(id string) domain.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[id]
}

func (r *fakeSessionRepo) Statuses(id string) []domain.SessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionStatus(nil), r.statuses[id]...)
}

type fakeBrowserSession struct {
	page     *fakePage
	state    domain.BrowserState
	restored domain.BrowserState
	closed   bool
	mu       sync.Mutex
}

func (s *fakeBrowserSession) Page() repo.PageRepo { return s.page }

func (s *fakeBrowserSession) RestoreState(ctx context.Context, state domain.BrowserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = state
	return nil
}

func (s *fakeBrowserSession) SnapshotState(ctx context.Context) (domain.BrowserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *fakeBrowserSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeBrowserSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeBrowserRepo struct {
	mu       sync.Mutex
	page     *fakePage
	state    domain.BrowserState
	err      error
	sessions []*fakeBrowserSession
	opts     []repo.BrowserOptions
}

func (r *fakeBrowserRepo) Open(ctx context.Context, sessionID string, opts repo.BrowserOptions) (repo.BrowserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s := &fakeBrowserSession{page: r.page, state: r.state}
	r.sessions = append(r.sessions, s)
	r.opts = append(r.opts, opts)
	return s, nil
}

func (r *fakeBrowserRepo) Last() *fakeBrowserSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) == 0 {
		return nil
	}
	return r.sessions[len(r.sessions)-1]
}

type fakeAnalytics struct {
	mu      sync.Mutex
	events  []domain.AnalyticsEvent
	cleaned []time.Time
}

func (a *fakeAnalytics) Record(ctx context.Context, ev domain.AnalyticsEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *fakeAnalytics) Summary(ctx context.Context, sessionID string, since time.Time) (*domain.AnalyticsSummary, error) {
	return &domain.AnalyticsSummary{SessionID: sessionID, Since: since, Daily: []domain.DailyCount{}}, nil
}

func (a *fakeAnalytics) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleaned = append(a.cleaned, before)
	return 0, nil
}

func (a *fakeAnalytics) Close() error { return nil }

func (a *fakeAnalytics) Count(t domain.ReportType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, ev := range a.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type fakeAlerts struct {
	mu   sync.Mutex
	sent []string
}

func (a *fakeAlerts) Alert(ctx context.Context, sessionID, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, sessionID+": "+text)
	return nil
}

func (a *fakeAlerts) Sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sent...)
}
