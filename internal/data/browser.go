package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/infra/browser"
)

// browserRepo implements the browser repository with per-session rod browsers
type browserRepo struct {
	launcher *browser.Launcher
}

// NewBrowserRepo creates a browser repository
func NewBrowserRepo(launcher *browser.Launcher) repo.BrowserRepo {
	return &browserRepo{launcher: launcher}
}

// Open launches a browser for the session and opens a blank page
func (r *browserRepo) Open(ctx context.Context, sessionID string, opts repo.BrowserOptions) (repo.BrowserSession, error) {
	inst, err := r.launcher.Launch(ctx, sessionID, opts.Headless)
	if err != nil {
		return nil, err
	}
	page, err := inst.Browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = inst.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &rodSession{inst: inst, page: page, repo: NewPageRepo(page)}, nil
}

// rodSession implements repo.BrowserSession
type rodSession struct {
	inst *browser.Instance
	page *rod.Page
	repo repo.PageRepo
}

func (s *rodSession) Page() repo.PageRepo {
	return s.repo
}

// RestoreState sets cookies now and seeds local storage on every new document,
// since storage is only writable once the target origin has loaded
func (s *rodSession) RestoreState(ctx context.Context, state domain.BrowserState) error {
	if len(state.Cookies) > 0 {
		if err := s.inst.Browser.Context(ctx).SetCookies(toCookieParams(state.Cookies)); err != nil {
			return fmt.Errorf("set cookies: %w", err)
		}
	}
	if len(state.LocalStorage) > 0 {
		raw, err := json.Marshal(state.LocalStorage)
		if err != nil {
			return fmt.Errorf("encode local storage: %w", err)
		}
		js := fmt.Sprintf(`(() => {
			try {
				const items = %s;
				for (const [k, v] of Object.entries(items)) {
					if (localStorage.getItem(k) === null) localStorage.setItem(k, v);
				}
			} catch (e) {}
		})()`, raw)
		if _, err := s.page.Context(ctx).EvalOnNewDocument(js); err != nil {
			return fmt.Errorf("seed local storage: %w", err)
		}
	}
	return nil
}

const snapshotStorageScript = `() => {
	const out = {};
	try {
		for (const key of Object.keys(localStorage)) out[key] = localStorage.getItem(key);
	} catch (e) {}
	return out;
}`

// SnapshotState captures all cookies and the current origin's local storage
func (s *rodSession) SnapshotState(ctx context.Context) (domain.BrowserState, error) {
	cookies, err := s.inst.Browser.Context(ctx).GetCookies()
	if err != nil {
		return domain.BrowserState{}, fmt.Errorf("get cookies: %w", err)
	}

	storage := map[string]string{}
	if err := s.repo.Evaluate(ctx, snapshotStorageScript, &storage); err != nil {
		storage = nil
	}

	return domain.BrowserState{
		Cookies:      fromNetworkCookies(cookies),
		LocalStorage: storage,
		SavedAt:      time.Now(),
	}, nil
}

func (s *rodSession) Close() error {
	return s.inst.Close()
}

func toCookieParams(cookies []domain.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		})
	}
	return params
}

func fromNetworkCookies(cookies []*proto.NetworkCookie) []domain.Cookie {
	result := make([]domain.Cookie, 0, len(cookies))
	for _, c := range cookies {
		expires := float64(c.Expires)
		if c.Session {
			expires = 0
		}
		result = append(result, domain.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return result
}
