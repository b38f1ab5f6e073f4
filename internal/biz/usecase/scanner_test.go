package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

func TestClassifyConversations_ReceivedMarker(t *testing.T) {
	got := ClassifyConversations([]domain.ListItemSnapshot{
		{Text: "Alice\nreceived · 5m\nhey there", FontWeight: 400},
	})

	want := []domain.ConversationSummary{
		{Name: "Alice", Preview: "received · 5m hey there", HasUnread: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ClassifyConversations() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyConversations_HandledMarkerWins(t *testing.T) {
	got := ClassifyConversations([]domain.ListItemSnapshot{
		{Text: "Bob\ndelivered\nreceived · 2m", ClassNames: "item unread-badge", FontWeight: 700},
	})

	require.Len(t, got, 1)
	assert.False(t, got[0].HasUnread)
	assert.False(t, got[0].IsNewChat)
	assert.False(t, got[0].IsNewSnap)
}

func TestClassifyConversations_Markers(t *testing.T) {
	tests := []struct {
		name string
		item domain.ListItemSnapshot
		want domain.ConversationSummary
	}{
		{
			name: "new chat",
			item: domain.ListItemSnapshot{Text: "Carol\nNew Chat"},
			want: domain.ConversationSummary{Name: "Carol", Preview: "New Chat", HasUnread: true, IsNewChat: true},
		},
		{
			name: "new snap",
			item: domain.ListItemSnapshot{Text: "Dan\nNew Snap · 1h"},
			want: domain.ConversationSummary{Name: "Dan", Preview: "New Snap · 1h", HasUnread: true, IsNewSnap: true},
		},
		{
			name: "badge class",
			item: domain.ListItemSnapshot{Text: "Erin\n3h", ClassNames: "row NotificationDot"},
			want: domain.ConversationSummary{Name: "Erin", Preview: "3h", HasUnread: true},
		},
		{
			name: "bold fallback",
			item: domain.ListItemSnapshot{Text: "Finn\n1d", FontWeight: 700},
			want: domain.ConversationSummary{Name: "Finn", Preview: "1d", HasUnread: true},
		},
		{
			name: "plain read item",
			item: domain.ListItemSnapshot{Text: "Gus\nopened · 4h", FontWeight: 400},
			want: domain.ConversationSummary{Name: "Gus", Preview: "opened · 4h"},
		},
		{
			name: "explicit marker skips bold check",
			item: domain.ListItemSnapshot{Text: "Hana\nnew chat", FontWeight: 800},
			want: domain.ConversationSummary{Name: "Hana", Preview: "new chat", HasUnread: true, IsNewChat: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyConversations([]domain.ListItemSnapshot{tt.item})
			require.Len(t, got, 1)
			if diff := cmp.Diff(tt.want, got[0]); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyConversations_Rejections(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}

	got := ClassifyConversations([]domain.ListItemSnapshot{
		{Text: ""},
		{Text: "A"},
		{Text: string(long)},
		{Text: "X\nsomething"},
		{Text: "Alice\nfirst"},
		{Text: "Alice\nsecond"},
		{Text: "alice\nthird"},
	})

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alice", "alice"}, names)
	assert.Equal(t, "first", got[0].Preview)
}

func TestClassifyConversations_PreviewTruncated(t *testing.T) {
	preview := ""
	for i := 0; i < 150; i++ {
		preview += "y"
	}
	got := ClassifyConversations([]domain.ListItemSnapshot{{Text: "Ivy\n" + preview}})

	require.Len(t, got, 1)
	assert.Len(t, got[0].Preview, maxPreviewChars)
}

func node(text string, top, parentLeft float64) domain.MessageNodeSnapshot {
	return domain.MessageNodeSnapshot{
		Text:        text,
		Top:         top,
		ParentLeft:  parentLeft,
		RegionLeft:  300,
		RegionWidth: 800,
	}
}

func TestClassifyMessages_FiltersAndAttributes(t *testing.T) {
	got := ClassifyMessages([]domain.MessageNodeSnapshot{
		node("Alice", 40, 320),            // header
		node("hey there", 200, 320),       // left half: received
		node("Delivered", 220, 320),       // status
		node("5m", 240, 320),              // timestamp
		node("just now", 250, 320),        // timestamp
		node("10:42 PM", 260, 320),        // timestamp
		node("Type a message", 900, 320),  // input placeholder
		node("hello!", 280, 900),          // right half: sent
		node("hey there", 300, 320),       // duplicate
		{Text: "ok cool", Top: 320, ParentLeft: 320, RegionLeft: 300, RegionWidth: 800, ParentClassName: "msg outgoing"},
	})

	want := []domain.Message{
		{Text: "hey there", IsSent: false},
		{Text: "hello!", IsSent: true},
		{Text: "ok cool", IsSent: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ClassifyMessages() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyMessages_KeepsLastTen(t *testing.T) {
	var nodes []domain.MessageNodeSnapshot
	for i := 0; i < 15; i++ {
		nodes = append(nodes, node(fmt.Sprintf("message number %d", i), float64(200+i*10), 320))
	}

	got := ClassifyMessages(nodes)
	require.Len(t, got, domain.MaxMessages)
	assert.Equal(t, "message number 5", got[0].Text)
	assert.Equal(t, "message number 14", got[9].Text)
}

func TestClassifyMessages_RejectsOverlong(t *testing.T) {
	long := make([]rune, 501)
	for i := range long {
		long[i] = 'z'
	}
	assert.Empty(t, ClassifyMessages([]domain.MessageNodeSnapshot{node(string(long), 200, 320)}))
}

func TestScanner_PageErrorsYieldEmpty(t *testing.T) {
	uc := NewScannerUsecase(nil)
	page := newFakePage()

	assert.Empty(t, uc.ScanConversations(context.Background(), page))
	assert.Empty(t, uc.ScanMessages(context.Background(), page))
}

func TestScanner_ScanConversationsFromPage(t *testing.T) {
	uc := NewScannerUsecase(nil)
	page := newFakePage()
	page.results[conversationListScript] = []domain.ListItemSnapshot{
		{Text: "Alice\nreceived · 5m\nhey there", FontWeight: 400},
		{Text: "Team Snapchat\nNew Snap", FontWeight: 400},
	}

	got := uc.ScanConversations(context.Background(), page)
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].Name)
	assert.True(t, got[0].HasUnread)
	assert.True(t, got[1].IsNewSnap)
}
