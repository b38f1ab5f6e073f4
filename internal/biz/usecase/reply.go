package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

const (
	// ContextWindow is the number of prior messages sent with each completion
	ContextWindow = 10
	// MaxReplyTokens keeps replies chat-sized
	MaxReplyTokens = 150
)

// ErrEmptyReply is returned when the provider answers with no text
var ErrEmptyReply = errors.New("completion returned empty reply")

// PromptResolver maps a personality setting to a system prompt
type PromptResolver interface {
	SystemPrompt(personality string) string
}

// ReplyUsecase generates replies through the completion provider
type ReplyUsecase struct {
	completion repo.CompletionRepo
	prompts    PromptResolver
}

// NewReplyUsecase creates a new reply usecase. A nil resolver uses the personality verbatim.
func NewReplyUsecase(completion repo.CompletionRepo, prompts PromptResolver) *ReplyUsecase {
	return &ReplyUsecase{completion: completion, prompts: prompts}
}

// Generate produces a reply to lastMessage given the preceding history
func (uc *ReplyUsecase) Generate(
	ctx context.Context,
	cfg domain.RuntimeConfig,
	lastMessage string,
	history []domain.Message,
) (string, error) {
	system := cfg.Personality
	if uc.prompts != nil {
		system = uc.prompts.SystemPrompt(cfg.Personality)
	}

	text, err := uc.completion.Complete(ctx, repo.CompletionRequest{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   MaxReplyTokens,
		Turns:       BuildTurns(system, lastMessage, history),
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// BuildTurns assembles the system prompt, at most ContextWindow prior messages and the new user message
func BuildTurns(systemPrompt, lastMessage string, history []domain.Message) []repo.ChatTurn {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}

	turns := make([]repo.ChatTurn, 0, len(history)+2)
	turns = append(turns, repo.ChatTurn{Role: repo.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := repo.RoleUser
		if m.IsSent {
			role = repo.RoleAssistant
		}
		turns = append(turns, repo.ChatTurn{Role: role, Content: m.Text})
	}
	turns = append(turns, repo.ChatTurn{Role: repo.RoleUser, Content: lastMessage})
	return turns
}
