package llm

import (
	"context"

	"github.com/soundprediction/graphista/pkg/types"
)

// Client is the text generation capability. Everything the rest of the
// system assumes about a language model is expressed here.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem types.Role = "system"
	// RoleUser represents a user message.
	RoleUser types.Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant types.Role = "assistant"
)

// Generate runs a single-prompt completion and returns the raw text.
func Generate(ctx context.Context, client Client, prompt string) (string, error) {
	response, err := client.Chat(ctx, []types.Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	return response.Content, nil
}
