package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/types"
)

// ChunkEmbedder embeds every chunk of a document and records the model that
// produced the vectors.
type ChunkEmbedder struct {
	client embedder.Client
	model  string
	logger *slog.Logger
}

// NewChunkEmbedder creates a ChunkEmbedder.
func NewChunkEmbedder(client embedder.Client, model string, logger *slog.Logger) *ChunkEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkEmbedder{client: client, model: model, logger: logger}
}

// EmbedDocumentChunks embeds all chunks of one document in a single batch.
func (e *ChunkEmbedder) EmbedDocumentChunks(ctx context.Context, doc *types.Document) error {
	if len(doc.Chunks) == 0 {
		return nil
	}

	texts := make([]string, len(doc.Chunks))
	for i, chunk := range doc.Chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := e.client.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for %s: %w", doc.Filename, err)
	}
	if len(embeddings) != len(doc.Chunks) {
		return fmt.Errorf("expected %d embeddings for %s, got %d", len(doc.Chunks), doc.Filename, len(embeddings))
	}

	for i, chunk := range doc.Chunks {
		chunk.Embedding = embeddings[i]
		chunk.EmbeddingsModel = e.model
	}

	e.logger.Info("embedded chunks", "filename", doc.Filename, "count", len(doc.Chunks))
	return nil
}
