package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

const completionTimeout = 30 * time.Second

// ErrNoAPIKey is returned when neither the session nor the process has a key
var ErrNoAPIKey = errors.New("no completion API key configured")

// openaiRepo implements the completion repository on an OpenAI-compatible API
type openaiRepo struct {
	baseURL    string
	defaultKey string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIRepo creates an OpenAI completion repository.
// baseURL may point at any OpenAI-compatible endpoint; empty uses the official one.
func NewOpenAIRepo(defaultKey, baseURL string) repo.CompletionRepo {
	return &openaiRepo{
		baseURL:    baseURL,
		defaultKey: defaultKey,
		clients:    make(map[string]*openai.Client),
	}
}

func (r *openaiRepo) client(key string) *openai.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		return c
	}
	config := openai.DefaultConfig(key)
	if r.baseURL != "" {
		config.BaseURL = r.baseURL
	}
	c := openai.NewClientWithConfig(config)
	r.clients[key] = c
	return c
}

// Complete sends the turns and returns the first choice
func (r *openaiRepo) Complete(ctx context.Context, req repo.CompletionRequest) (string, error) {
	key := req.APIKey
	if key == "" {
		key = r.defaultKey
	}
	if key == "" {
		return "", ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := r.client(key).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Turns),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toOpenAIMessages(turns []repo.ChatTurn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		switch t.Role {
		case repo.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case repo.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return msgs
}
