package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

func newNavigator(strategies []OpenStrategy) *NavigatorUsecase {
	return NewNavigatorUsecase(NewDelay(noSleep), strategies, nil)
}

func TestNavigator_OpenByListItem(t *testing.T) {
	page := newFakePage()
	bob := &fakeElement{text: "Bob\n2h"}
	alice := &fakeElement{text: "Alice\nreceived · 5m"}
	page.elements = []repo.Element{bob, alice}

	ok := newNavigator(nil).Open(context.Background(), page, "Alice")

	assert.True(t, ok)
	assert.Equal(t, 0, bob.clicked)
	assert.Equal(t, 1, alice.clicked)
}

func TestNavigator_FallsBackInOrder(t *testing.T) {
	page := newFakePage()
	exact := &fakeElement{}
	page.byText["^Alice$"] = exact

	ok := newNavigator(nil).Open(context.Background(), page, "Alice")
	assert.True(t, ok)
	assert.Equal(t, 1, exact.clicked)

	page = newFakePage()
	page.results[findTextPrefixScript] = point{Found: true, X: 120, Y: 340}

	ok = newNavigator(nil).Open(context.Background(), page, "Alice")
	assert.True(t, ok)
	assert.Equal(t, []click{{120, 340}}, page.clicks)
	assert.Equal(t, []any{"Alice"}, page.evalArgs[len(page.evalArgs)-1])
}

func TestNavigator_OpenAllStrategiesFail(t *testing.T) {
	page := newFakePage()
	page.elements = []repo.Element{&fakeElement{text: "Someone Else"}}

	assert.False(t, newNavigator(nil).Open(context.Background(), page, "Alice"))
	assert.Empty(t, page.clicks)
}

func TestNavigator_StrategiesStopAtFirstSuccess(t *testing.T) {
	var calls []string
	strategy := func(name string, ok bool) OpenStrategy {
		return OpenStrategy{Name: name, Open: func(ctx context.Context, page repo.PageRepo, target string) bool {
			calls = append(calls, name)
			return ok
		}}
	}

	nav := newNavigator([]OpenStrategy{strategy("a", false), strategy("b", true), strategy("c", true)})
	assert.True(t, nav.Open(context.Background(), newFakePage(), "Alice"))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestNavigator_Send(t *testing.T) {
	page := newFakePage()
	page.results[findChatInputScript] = point{Found: true, X: 800, Y: 900}

	err := newNavigator(nil).Send(context.Background(), page, "hey! what's up")

	require.NoError(t, err)
	assert.Equal(t, []click{{800, 900}}, page.clicks)
	assert.Equal(t, "hey! what's up", page.typed.String())
	assert.Equal(t, []repo.Key{repo.KeyEnter}, page.keys)
}

func TestNavigator_SendWithoutInput(t *testing.T) {
	page := newFakePage()
	page.results[findChatInputScript] = point{Found: false}

	err := newNavigator(nil).Send(context.Background(), page, "hello")

	assert.True(t, errors.Is(err, domain.ErrNoChatInput))
	assert.Empty(t, page.typed.String())
	assert.Empty(t, page.keys)
}

func TestNavigator_ExitRetriesWhileChatInputVisible(t *testing.T) {
	page := newFakePage()
	page.results[findChatInputScript] = point{Found: true, X: 800, Y: 900}
	page.results[listRegionPointScript] = point{Found: true, X: 20, Y: 200}

	newNavigator(nil).Exit(context.Background(), page)

	assert.Equal(t, []repo.Key{repo.KeyEscape, repo.KeyEscape, repo.KeyEscape}, page.keys)
	assert.Equal(t, []click{{10, 10}, {20, 200}, {20, 200}}, page.clicks)
}

func TestNavigator_ExitWithoutAnyControls(t *testing.T) {
	page := newFakePage()

	newNavigator(nil).Exit(context.Background(), page)

	assert.Equal(t, []repo.Key{repo.KeyEscape, repo.KeyEscape}, page.keys)
	assert.Equal(t, []click{{10, 10}}, page.clicks)
}

func TestNavigator_LoggedIn(t *testing.T) {
	nav := newNavigator(nil)

	page := newFakePage()
	page.results[loggedInScript] = true
	assert.True(t, nav.LoggedIn(context.Background(), page, "https://accounts.example.com/login"))

	page = newFakePage()
	page.results[loggedInScript] = false
	page.url = "https://accounts.example.com/login?next=web"
	assert.False(t, nav.LoggedIn(context.Background(), page, "https://accounts.example.com/login"))

	page.url = "https://web.example.com/"
	assert.True(t, nav.LoggedIn(context.Background(), page, "https://accounts.example.com/login"))
}
