package repo

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a lookup matches nothing
var ErrElementNotFound = errors.New("element not found")

// Key is a keyboard key the automation presses
type Key string

const (
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)

// PageRepo is the browser page automation interface.
// All structural inspection goes through Evaluate so the heuristics stay testable.
type PageRepo interface {
	// Navigate loads url and waits for the page to settle
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a JS function in the page and decodes its JSON result into out.
	// out may be nil when the result is not needed.
	Evaluate(ctx context.Context, script string, out any, args ...any) error

	// FindElements returns every element matching a CSS selector
	FindElements(ctx context.Context, selector string) ([]Element, error)

	// FindByText returns the first element matching selector whose text matches the regex pattern
	FindByText(ctx context.Context, selector, pattern string) (Element, error)

	// ClickPoint clicks at page coordinates
	ClickPoint(ctx context.Context, x, y float64) error

	// TypeText inserts text at the focused element
	TypeText(ctx context.Context, text string) error

	// PressKey presses and releases a key
	PressKey(ctx context.Context, key Key) error

	// WaitForSelector waits until selector matches or timeout passes
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// URL returns the current location
	URL(ctx context.Context) (string, error)
}

// Element is a handle to one node on the page
type Element interface {
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
}
