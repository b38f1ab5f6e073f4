package repo

import "context"

// ChatRole is the author of a completion turn
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message sent to the completion provider
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// CompletionRequest is a provider-neutral chat completion request
type CompletionRequest struct {
	APIKey      string // per-session key; empty falls back to the provider default
	Model       string
	Temperature float32
	MaxTokens   int
	Turns       []ChatTurn
}

// CompletionRepo is the LLM completion interface
type CompletionRepo interface {
	// Complete returns the trimmed text of the first choice.
	// An empty reply is returned as "" with a nil error.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
