package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

const minConversationName = 3

// uiChromeNames are list entries that belong to the app shell rather than to a contact
var uiChromeNames = map[string]struct{}{
	"stories":       {},
	"story":         {},
	"camera":        {},
	"discover":      {},
	"spotlight":     {},
	"map":           {},
	"snap map":      {},
	"settings":      {},
	"chat":          {},
	"chats":         {},
	"new chat":      {},
	"search":        {},
	"add friends":   {},
	"my ai":         {},
	"profile":       {},
	"notifications": {},
}

// FilterUsecase removes conversations that must never be answered
type FilterUsecase struct{}

// NewFilterUsecase creates a new filter usecase
func NewFilterUsecase() *FilterUsecase {
	return &FilterUsecase{}
}

// Allowed checks a single conversation name against UI chrome, length and the ignore list
func (uc *FilterUsecase) Allowed(name string, cfg domain.RuntimeConfig) bool {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < minConversationName {
		return false
	}
	if _, chrome := uiChromeNames[strings.ToLower(trimmed)]; chrome {
		return false
	}
	return !cfg.IsIgnored(trimmed)
}

// Filter keeps the allowed conversations in scan order
func (uc *FilterUsecase) Filter(convs []domain.ConversationSummary, cfg domain.RuntimeConfig) []domain.ConversationSummary {
	var result []domain.ConversationSummary
	for _, c := range convs {
		if uc.Allowed(c.Name, cfg) {
			result = append(result, c)
		}
	}
	return result
}
