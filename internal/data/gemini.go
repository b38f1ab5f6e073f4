package data

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiRepo implements the completion repository on the Gemini API
type geminiRepo struct {
	defaultKey   string
	defaultModel string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiRepo creates a Gemini completion repository.
// Models not starting with "gemini" fall back to defaultModel, so a session
// configured with an OpenAI model name still works after switching providers.
func NewGeminiRepo(defaultKey, defaultModel string) repo.CompletionRepo {
	if defaultModel == "" {
		defaultModel = defaultGeminiModel
	}
	return &geminiRepo{
		defaultKey:   defaultKey,
		defaultModel: defaultModel,
		clients:      make(map[string]*genai.Client),
	}
}

func (r *geminiRepo) client(ctx context.Context, key string) (*genai.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	r.clients[key] = c
	return c, nil
}

// Complete sends the turns with the system turn as system instruction
func (r *geminiRepo) Complete(ctx context.Context, req repo.CompletionRequest) (string, error) {
	key := req.APIKey
	if key == "" {
		key = r.defaultKey
	}
	if key == "" {
		return "", ErrNoAPIKey
	}

	client, err := r.client(ctx, key)
	if err != nil {
		return "", err
	}

	model := req.Model
	if !strings.HasPrefix(model, "gemini") {
		model = r.defaultModel
	}

	system, contents := toGeminiContents(req.Turns)
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func toGeminiContents(turns []repo.ChatTurn) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case repo.RoleSystem:
			system = append(system, t.Content)
		case repo.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
