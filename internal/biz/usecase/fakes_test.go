package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

var errNoResult = errors.New("no scripted result")

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type click struct{ X, Y float64 }

type fakeElement struct {
	text    string
	clicked int
	err     error
}

func (e *fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) Click(ctx context.Context) error {
	if e.err != nil {
		return e.err
	}
	e.clicked++
	return nil
}

// fakePage answers scripts from a table keyed by script source
type fakePage struct {
	results  map[string]any
	elements []repo.Element
	byText   map[string]repo.Element
	url      string

	evalArgs [][]any
	clicks   []click
	typed    strings.Builder
	keys     []repo.Key
}

func newFakePage() *fakePage {
	return &fakePage{results: map[string]any{}, byText: map[string]repo.Element{}}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.url = url
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any, args ...any) error {
	p.evalArgs = append(p.evalArgs, args)
	res, ok := p.results[script]
	if !ok {
		return errNoResult
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (p *fakePage) FindElements(ctx context.Context, selector string) ([]repo.Element, error) {
	return p.elements, nil
}

func (p *fakePage) FindByText(ctx context.Context, selector, pattern string) (repo.Element, error) {
	if el, ok := p.byText[pattern]; ok {
		return el, nil
	}
	return nil, repo.ErrElementNotFound
}

func (p *fakePage) ClickPoint(ctx context.Context, x, y float64) error {
	p.clicks = append(p.clicks, click{x, y})
	return nil
}

func (p *fakePage) TypeText(ctx context.Context, text string) error {
	p.typed.WriteString(text)
	return nil
}

func (p *fakePage) PressKey(ctx context.Context, key repo.Key) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	return p.url, nil
}

type fakeCompletion struct {
	reply string
	err   error
	calls []repo.CompletionRequest
}

func (c *fakeCompletion) Complete(ctx context.Context, req repo.CompletionRequest) (string, error) {
	c.calls = append(c.calls, req)
	return c.reply, c.err
}
