package embedder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used when no embedding model is configured.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimensions matches text-embedding-3-small.
	DefaultDimensions = 1536
	// DefaultBatchSize bounds how many texts go into one API request.
	DefaultBatchSize = 100
)

// OpenAIClient implements Client over the OpenAI embeddings API.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
}

// NewOpenAIClient creates an embedding client for the OpenAI API. A non-empty
// BaseURL redirects it to any compatible endpoint.
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := config.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// Embed generates embeddings for the given texts, batching requests to stay
// within provider limits.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		response, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(response.Data) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(response.Data))
		}

		for _, item := range response.Data {
			embeddings = append(embeddings, item.Embedding)
		}
	}

	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Close cleans up any resources.
func (c *OpenAIClient) Close() error {
	return nil
}
