package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

const (
	listItemSelector = `[role="listitem"], [role="option"], [class*="conversation" i], [class*="ChatListItem"]`
	textNodeSelector = "span, p, div"

	settleMin    = 1500 * time.Millisecond
	settleMax    = 2500 * time.Millisecond
	keystrokeMin = 30 * time.Millisecond
	keystrokeMax = 80 * time.Millisecond
	preEnterMin  = 300 * time.Millisecond
	preEnterMax  = 800 * time.Millisecond
	exitStepMin  = 200 * time.Millisecond
	exitStepMax  = 500 * time.Millisecond
)

// neutralPoint is clicked to drop focus from the chat view
var neutralPoint = point{X: 10, Y: 10}

type point struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// OpenStrategy is one way of opening a conversation by name
type OpenStrategy struct {
	Name string
	Open func(ctx context.Context, page repo.PageRepo, name string) bool
}

// DefaultOpenStrategies returns the strategies in the order they are tried
func DefaultOpenStrategies() []OpenStrategy {
	return []OpenStrategy{
		{Name: "list_item", Open: openByListItem},
		{Name: "exact_text", Open: openByExactText},
		{Name: "text_prefix", Open: openByTextPrefix},
	}
}

// openByListItem clicks the first list item whose text contains the name
func openByListItem(ctx context.Context, page repo.PageRepo, name string) bool {
	items, err := page.FindElements(ctx, listItemSelector)
	if err != nil {
		return false
	}
	for _, el := range items {
		text, err := el.Text(ctx)
		if err != nil || !strings.Contains(text, name) {
			continue
		}
		return el.Click(ctx) == nil
	}
	return false
}

// openByExactText uses the page's text lookup for a node reading exactly the name
func openByExactText(ctx context.Context, page repo.PageRepo, name string) bool {
	el, err := page.FindByText(ctx, textNodeSelector, "^"+regexp.QuoteMeta(name)+"$")
	if err != nil {
		return false
	}
	return el.Click(ctx) == nil
}

// openByTextPrefix clicks the center of any sensibly sized node starting with the name
func openByTextPrefix(ctx context.Context, page repo.PageRepo, name string) bool {
	var p point
	if err := page.Evaluate(ctx, findTextPrefixScript, &p, name); err != nil || !p.Found {
		return false
	}
	return page.ClickPoint(ctx, p.X, p.Y) == nil
}

// NavigatorUsecase opens conversations, sends replies and returns to the list
type NavigatorUsecase struct {
	strategies []OpenStrategy
	delay      *Delay
	log        *zap.Logger
}

// NewNavigatorUsecase creates a navigator. Nil strategies use DefaultOpenStrategies.
func NewNavigatorUsecase(delay *Delay, strategies []OpenStrategy, log *zap.Logger) *NavigatorUsecase {
	if strategies == nil {
		strategies = DefaultOpenStrategies()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NavigatorUsecase{strategies: strategies, delay: delay, log: log.Named("navigator")}
}

// Open tries each strategy in order and waits for the view to settle after the first success.
// It returns false when every strategy failed.
func (uc *NavigatorUsecase) Open(ctx context.Context, page repo.PageRepo, name string) bool {
	for _, s := range uc.strategies {
		if ctx.Err() != nil {
			return false
		}
		if !s.Open(ctx, page, name) {
			continue
		}
		uc.log.Debug("conversation opened", zap.String("conversation", name), zap.String("strategy", s.Name))
		if err := uc.delay.Sleep(ctx, settleMin, settleMax); err != nil {
			return false
		}
		return true
	}
	uc.log.Warn("could not open conversation", zap.String("conversation", name))
	return false
}

// Send types text into the chat input one character at a time and presses Enter
func (uc *NavigatorUsecase) Send(ctx context.Context, page repo.PageRepo, text string) error {
	var input point
	if err := page.Evaluate(ctx, findChatInputScript, &input); err != nil {
		return fmt.Errorf("locate chat input: %w", err)
	}
	if !input.Found {
		return domain.ErrNoChatInput
	}
	if err := page.ClickPoint(ctx, input.X, input.Y); err != nil {
		return fmt.Errorf("focus chat input: %w", err)
	}

	for _, r := range text {
		if err := page.TypeText(ctx, string(r)); err != nil {
			return fmt.Errorf("type text: %w", err)
		}
		if err := uc.delay.Sleep(ctx, keystrokeMin, keystrokeMax); err != nil {
			return err
		}
	}

	if err := uc.delay.Sleep(ctx, preEnterMin, preEnterMax); err != nil {
		return err
	}
	if err := page.PressKey(ctx, repo.KeyEnter); err != nil {
		return fmt.Errorf("press enter: %w", err)
	}
	return nil
}

// Exit leaves the open conversation on a best-effort basis. It never fails;
// a view left open is picked up again by the next scan.
func (uc *NavigatorUsecase) Exit(ctx context.Context, page repo.PageRepo) {
	uc.leave(ctx, page)

	if !uc.chatInputVisible(ctx, page) {
		return
	}
	uc.log.Debug("chat view still open, retrying exit")
	_ = page.PressKey(ctx, repo.KeyEscape)
	uc.pause(ctx)
	uc.clickListRegion(ctx, page)
}

func (uc *NavigatorUsecase) leave(ctx context.Context, page repo.PageRepo) {
	_ = page.ClickPoint(ctx, neutralPoint.X, neutralPoint.Y)
	uc.pause(ctx)

	for i := 0; i < 2; i++ {
		_ = page.PressKey(ctx, repo.KeyEscape)
		uc.pause(ctx)
	}

	var back point
	if err := page.Evaluate(ctx, findBackButtonScript, &back); err == nil && back.Found {
		_ = page.ClickPoint(ctx, back.X, back.Y)
		uc.pause(ctx)
	}

	uc.clickListRegion(ctx, page)
}

func (uc *NavigatorUsecase) clickListRegion(ctx context.Context, page repo.PageRepo) {
	var p point
	if err := page.Evaluate(ctx, listRegionPointScript, &p); err == nil && p.Found {
		_ = page.ClickPoint(ctx, p.X, p.Y)
		uc.pause(ctx)
	}
}

func (uc *NavigatorUsecase) chatInputVisible(ctx context.Context, page repo.PageRepo) bool {
	var p point
	if err := page.Evaluate(ctx, findChatInputScript, &p); err != nil {
		return false
	}
	return p.Found
}

func (uc *NavigatorUsecase) pause(ctx context.Context) {
	_ = uc.delay.Sleep(ctx, exitStepMin, exitStepMax)
}

// LoggedIn reports whether the page shows a signed-in chat UI
func (uc *NavigatorUsecase) LoggedIn(ctx context.Context, page repo.PageRepo, loginURL string) bool {
	var ok bool
	if err := page.Evaluate(ctx, loggedInScript, &ok); err == nil && ok {
		return true
	}
	current, err := page.URL(ctx)
	if err != nil || current == "" || current == "about:blank" {
		return false
	}
	return !strings.HasPrefix(current, loginURL) && !strings.Contains(strings.ToLower(current), "login")
}
