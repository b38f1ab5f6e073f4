package usecase

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

const (
	minItemChars    = 2
	maxItemChars    = 200
	minNameChars    = 2
	maxPreviewChars = 100
	maxMessageChars = 500
	headerOffsetPx  = 100
	boldFontWeight  = 600
)

// ScannerUsecase reads conversation lists and message threads from the page
type ScannerUsecase struct {
	log *zap.Logger
}

// NewScannerUsecase creates a new scanner usecase
func NewScannerUsecase(log *zap.Logger) *ScannerUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScannerUsecase{log: log.Named("scanner")}
}

// ScanConversations lists the conversations currently visible.
// It never fails: page errors yield an empty result.
func (uc *ScannerUsecase) ScanConversations(ctx context.Context, page repo.PageRepo) []domain.ConversationSummary {
	var items []domain.ListItemSnapshot
	if err := page.Evaluate(ctx, conversationListScript, &items); err != nil {
		uc.log.Debug("conversation scan failed", zap.Error(err))
		return nil
	}
	return ClassifyConversations(items)
}

// ScanMessages reads the recent messages of the open conversation.
// It never fails: page errors yield an empty result.
func (uc *ScannerUsecase) ScanMessages(ctx context.Context, page repo.PageRepo) []domain.Message {
	var nodes []domain.MessageNodeSnapshot
	if err := page.Evaluate(ctx, messageListScript, &nodes); err != nil {
		uc.log.Debug("message scan failed", zap.Error(err))
		return nil
	}
	return ClassifyMessages(nodes)
}

// unreadTier is one precedence level of unread detection.
// Tiers run in order; the first tier with a firing rule ends evaluation.
type unreadTier struct {
	name  string
	rules []unreadRule
}

type unreadRule func(status string, item domain.ListItemSnapshot, c *domain.ConversationSummary) bool

var (
	handledMarker  = regexp.MustCompile(`\b(delivered|sent|opened)\b`)
	receivedMarker = regexp.MustCompile(`\breceived\b(\s*[·•\-]?\s*\d+\s*[smhdw]\b)?`)
	newChatMarker  = regexp.MustCompile(`\bnew chats?\b`)
	newSnapMarker  = regexp.MustCompile(`\bnew (snaps?|messages?)\b`)

	badgeClasses = []string{"badge", "notification", "unread", "dot"}
)

var unreadTiers = []unreadTier{
	{
		// a send confirmation overrides any stale unread styling
		name: "handled",
		rules: []unreadRule{
			func(status string, _ domain.ListItemSnapshot, _ *domain.ConversationSummary) bool {
				return handledMarker.MatchString(status)
			},
		},
	},
	{
		name: "explicit",
		rules: []unreadRule{
			func(status string, _ domain.ListItemSnapshot, c *domain.ConversationSummary) bool {
				if receivedMarker.MatchString(status) {
					c.HasUnread = true
					return true
				}
				return false
			},
			func(status string, _ domain.ListItemSnapshot, c *domain.ConversationSummary) bool {
				if newChatMarker.MatchString(status) {
					c.IsNewChat = true
					return true
				}
				return false
			},
			func(status string, _ domain.ListItemSnapshot, c *domain.ConversationSummary) bool {
				if newSnapMarker.MatchString(status) {
					c.IsNewSnap = true
					return true
				}
				return false
			},
		},
	},
	{
		name: "badge",
		rules: []unreadRule{
			func(_ string, item domain.ListItemSnapshot, c *domain.ConversationSummary) bool {
				classes := strings.ToLower(item.ClassNames)
				for _, b := range badgeClasses {
					if strings.Contains(classes, b) {
						c.HasUnread = true
						return true
					}
				}
				return false
			},
		},
	},
	{
		name: "bold",
		rules: []unreadRule{
			func(_ string, item domain.ListItemSnapshot, c *domain.ConversationSummary) bool {
				if item.FontWeight >= boldFontWeight {
					c.HasUnread = true
					return true
				}
				return false
			},
		},
	},
}

// classifyUnread applies the unread tiers to one list item.
// status is the lowercased text below the name line.
func classifyUnread(status string, item domain.ListItemSnapshot, c *domain.ConversationSummary) {
	for _, tier := range unreadTiers {
		fired := false
		for _, rule := range tier.rules {
			if rule(status, item, c) {
				fired = true
			}
		}
		if fired {
			break
		}
	}
	c.HasUnread = c.HasUnread || c.IsNewChat || c.IsNewSnap
}

// ClassifyConversations turns raw list-item snapshots into conversation summaries.
// Names are deduplicated case-sensitively; the first occurrence wins.
func ClassifyConversations(items []domain.ListItemSnapshot) []domain.ConversationSummary {
	seen := make(map[string]struct{})
	var result []domain.ConversationSummary

	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		n := utf8.RuneCountInString(text)
		if n < minItemChars || n > maxItemChars {
			continue
		}

		lines := splitLines(text)
		if len(lines) == 0 {
			continue
		}
		name := lines[0]
		if utf8.RuneCountInString(name) < minNameChars {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		rest := strings.Join(lines[1:], " ")
		c := domain.ConversationSummary{
			Name:    name,
			Preview: truncateRunes(rest, maxPreviewChars),
		}
		classifyUnread(strings.ToLower(rest), item, &c)
		result = append(result, c)
	}
	return result
}

var (
	messageDenylist = []string{
		"delivered",
		"opened",
		"received",
		"type a message",
		"send a chat",
		"tap to view",
		"tap to load",
		"is typing",
		"screenshot",
		"saved in chat",
		"new chat",
		"new snap",
	}

	timestampPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d+[mhs]$`),
		regexp.MustCompile(`^just now$`),
		regexp.MustCompile(`^\d{1,2}:\d{2}\s*(am|pm)?$`),
		regexp.MustCompile(`^(today|yesterday)$`),
	}

	sentClasses = []string{"sent", "outgoing", "self", "right", "own"}
)

// isSystemText checks the denylist and timestamp shapes
func isSystemText(text string) bool {
	lower := strings.ToLower(text)
	for _, d := range messageDenylist {
		if strings.Contains(lower, d) {
			return true
		}
	}
	for _, re := range timestampPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// isSentNode attributes a message node to the automated account
func isSentNode(n domain.MessageNodeSnapshot) bool {
	if n.RegionWidth > 0 && n.ParentLeft > n.RegionLeft+n.RegionWidth/2 {
		return true
	}
	classes := strings.ToLower(n.ClassName + " " + n.ParentClassName)
	for _, s := range sentClasses {
		if strings.Contains(classes, s) {
			return true
		}
	}
	return false
}

// ClassifyMessages turns raw node snapshots into the last MaxMessages messages,
// in encounter order, deduplicated by exact text.
func ClassifyMessages(nodes []domain.MessageNodeSnapshot) []domain.Message {
	seen := make(map[string]struct{})
	var result []domain.Message

	for _, n := range nodes {
		text := strings.TrimSpace(n.Text)
		if text == "" || utf8.RuneCountInString(text) > maxMessageChars {
			continue
		}
		if isSystemText(text) {
			continue
		}
		if n.Top < headerOffsetPx {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		result = append(result, domain.Message{Text: text, IsSent: isSentNode(n)})
	}

	if len(result) > domain.MaxMessages {
		result = result[len(result)-domain.MaxMessages:]
	}
	return result
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
