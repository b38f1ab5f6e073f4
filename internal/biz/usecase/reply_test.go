package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

type staticPrompts map[string]string

func (p staticPrompts) SystemPrompt(personality string) string {
	if s, ok := p[personality]; ok {
		return s
	}
	return personality
}

func TestBuildTurns_ContextWindowBound(t *testing.T) {
	var history []domain.Message
	for i := 0; i < 25; i++ {
		history = append(history, domain.Message{Text: fmt.Sprintf("m%d", i), IsSent: i%2 == 1})
	}

	turns := BuildTurns("be nice", "latest", history)

	require.Len(t, turns, ContextWindow+2)
	assert.Equal(t, repo.ChatTurn{Role: repo.RoleSystem, Content: "be nice"}, turns[0])
	assert.Equal(t, "m15", turns[1].Content)
	assert.Equal(t, repo.ChatTurn{Role: repo.RoleUser, Content: "latest"}, turns[len(turns)-1])
}

func TestBuildTurns_RoleMapping(t *testing.T) {
	turns := BuildTurns("sys", "new", []domain.Message{
		{Text: "hi", IsSent: false},
		{Text: "hello", IsSent: true},
	})

	assert.Equal(t, []repo.ChatTurn{
		{Role: repo.RoleSystem, Content: "sys"},
		{Role: repo.RoleUser, Content: "hi"},
		{Role: repo.RoleAssistant, Content: "hello"},
		{Role: repo.RoleUser, Content: "new"},
	}, turns)
}

func TestReply_Generate(t *testing.T) {
	completion := &fakeCompletion{reply: "  hey! what's up \n"}
	uc := NewReplyUsecase(completion, staticPrompts{"friendly": "You are friendly."})
	cfg := domain.DefaultRuntimeConfig()
	cfg.APIKey = "sk-session"

	got, err := uc.Generate(context.Background(), cfg, "hey there", nil)
	require.NoError(t, err)
	assert.Equal(t, "hey! what's up", got)

	require.Len(t, completion.calls, 1)
	req := completion.calls[0]
	assert.Equal(t, "sk-session", req.APIKey)
	assert.Equal(t, cfg.Model, req.Model)
	assert.Equal(t, MaxReplyTokens, req.MaxTokens)
	assert.Equal(t, "You are friendly.", req.Turns[0].Content)
}

func TestReply_GenerateFailures(t *testing.T) {
	cfg := domain.DefaultRuntimeConfig()

	uc := NewReplyUsecase(&fakeCompletion{reply: "   "}, nil)
	_, err := uc.Generate(context.Background(), cfg, "hi", nil)
	assert.ErrorIs(t, err, ErrEmptyReply)

	boom := errors.New("quota exceeded")
	uc = NewReplyUsecase(&fakeCompletion{err: boom}, nil)
	_, err = uc.Generate(context.Background(), cfg, "hi", nil)
	assert.ErrorIs(t, err, boom)
}
