// Package embedder provides text embedding clients for vector representations.
//
// The Client interface covers the two operations the rest of the system
// needs: batch embedding during ingestion and single-text embedding for
// query-time retrieval. Implementations handle batching internally based
// on provider limits.
package embedder

import (
	"context"
	"fmt"
)

// Provider identifies an embedding backend.
type Provider string

const (
	// ProviderOpenAI is the OpenAI embeddings API or a compatible endpoint.
	ProviderOpenAI Provider = "openai"
	// ProviderLocal runs embeddings in-process via embed-everything.
	ProviderLocal Provider = "local"
)

// Client is the text embedding capability.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config enumerates everything needed to reach an embedding provider.
type Config struct {
	Provider   Provider `json:"provider" mapstructure:"provider"`
	Model      string   `json:"model" mapstructure:"model"`
	APIKey     string   `json:"api_key" mapstructure:"api_key"`
	BaseURL    string   `json:"base_url" mapstructure:"base_url"`
	Dimensions int      `json:"dimensions" mapstructure:"dimensions"`
	BatchSize  int      `json:"batch_size" mapstructure:"batch_size"`
}

// NewClient builds a Client for the configured provider.
func NewClient(config *Config) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("embedder config is nil")
	}

	switch config.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(config)
	case ProviderLocal:
		return NewEmbedEverythingClient(config)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}
