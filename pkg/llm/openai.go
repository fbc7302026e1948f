package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/graphista/pkg/types"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// MaxRetries bounds transient-error retries per call.
	MaxRetries = 2
)

// ErrEmptyResponse is returned when the provider answers with no choices.
var ErrEmptyResponse = errors.New("empty response from model")

// OpenAIClient implements Client for OpenAI and OpenAI-compatible endpoints.
type OpenAIClient struct {
	client *openai.Client
	config *Config
	model  string
}

// NewOpenAIClient creates a client for the OpenAI API. A non-empty BaseURL
// redirects it to any compatible endpoint, such as a local Ollama server.
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		model:  model,
	}, nil
}

// NewAzureOpenAIClient creates a client for an Azure OpenAI deployment.
func NewAzureOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("azure-openai requires an endpoint base_url")
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.BaseURL)
	if config.APIVersion != "" {
		clientConfig.APIVersion = config.APIVersion
	}
	if config.Deployment != "" {
		clientConfig.AzureModelMapperFunc = func(model string) string {
			return config.Deployment
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		model:  model,
	}, nil
}

// Chat sends a chat completion request with retry on transient failures.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(messages),
		Temperature: c.config.Temperature,
	}
	if c.config.MaxTokens > 0 {
		request.MaxTokens = c.config.MaxTokens
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		response, err := c.client.CreateChatCompletion(ctx, request)
		if err != nil {
			lastErr = err
			if isRetriable(err) && attempt < MaxRetries {
				continue
			}
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}

		if len(response.Choices) == 0 {
			return nil, ErrEmptyResponse
		}

		result := &types.Response{
			Content:      response.Choices[0].Message.Content,
			Model:        response.Model,
			FinishReason: string(response.Choices[0].FinishReason),
		}
		if response.Usage.TotalTokens > 0 {
			result.TokensUsed = &types.TokenUsage{
				PromptTokens:     response.Usage.PromptTokens,
				CompletionTokens: response.Usage.CompletionTokens,
				TotalTokens:      response.Usage.TotalTokens,
			}
		}
		return result, nil
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// Close cleans up any resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func convertMessages(messages []types.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return converted
}

func isRetriable(err error) bool {
	message := strings.ToLower(err.Error())
	for _, candidate := range []string{
		"rate limit",
		"rate_limit",
		"timeout",
		"connection",
		"internal server error",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	} {
		if strings.Contains(message, candidate) {
			return true
		}
	}
	return false
}
