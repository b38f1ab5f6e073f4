package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

const textLookupTimeout = 2 * time.Second

// rodPage implements the page automation repository on a go-rod page
type rodPage struct {
	page *rod.Page
}

// NewPageRepo wraps a rod page
func NewPageRepo(page *rod.Page) repo.PageRepo {
	return &rodPage{page: page}
}

// Navigate loads url and waits for the load event
func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Evaluate runs a JS function and decodes its by-value result
func (p *rodPage) Evaluate(ctx context.Context, script string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           script,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if out == nil || res == nil {
		return nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// FindElements returns every element matching selector
func (p *rodPage) FindElements(ctx context.Context, selector string) ([]repo.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	result := make([]repo.Element, 0, len(els))
	for _, el := range els {
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

// FindByText returns the first element matching selector whose text matches pattern
func (p *rodPage) FindByText(ctx context.Context, selector, pattern string) (repo.Element, error) {
	el, err := p.page.Context(ctx).Timeout(textLookupTimeout).ElementR(selector, pattern)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, repo.ErrElementNotFound
		}
		return nil, fmt.Errorf("find %s by text: %w", selector, err)
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

// ClickPoint moves the mouse to (x, y) and clicks
func (p *rodPage) ClickPoint(ctx context.Context, x, y float64) error {
	mouse := p.page.Context(ctx).Mouse
	if err := mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	if err := mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// TypeText inserts text at the focused element
func (p *rodPage) TypeText(ctx context.Context, text string) error {
	if err := p.page.Context(ctx).InsertText(text); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

// PressKey presses a key
func (p *rodPage) PressKey(ctx context.Context, key repo.Key) error {
	var k input.Key
	switch key {
	case repo.KeyEnter:
		k = input.Enter
	case repo.KeyEscape:
		k = input.Escape
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := p.page.Context(ctx).Keyboard.Type(k); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// WaitForSelector waits for selector to appear
func (p *rodPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if _, err := p.page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// URL returns the page location
func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// rodElement implements repo.Element
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}
