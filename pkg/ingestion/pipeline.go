package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/graphista/pkg/types"
)

// Store is the persistence surface the pipeline writes through.
type Store interface {
	VerifyConnectivity(ctx context.Context) error
	UpsertChunkEmbedding(ctx context.Context, chunk *types.Chunk, metadata map[string]interface{}) error
	MergeEntitiesAndRelationships(ctx context.Context, chunk *types.Chunk) error
	LinkChunkSequence(ctx context.Context, filename string, version int) error
	CreateDocument(ctx context.Context, doc *types.Document) error
}

// Result reports what one pipeline run did.
type Result struct {
	Ingested int
	Skipped  int
}

// Pipeline runs load -> clean -> chunk -> embed -> mine -> write, one
// document at a time. Mining is optional; without a Miner documents are
// ingested without entity subgraphs.
type Pipeline struct {
	store    Store
	cleaner  *Cleaner
	chunker  *Chunker
	embedder *ChunkEmbedder
	miner    *Miner
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline. miner may be nil.
func NewPipeline(store Store, cleaner *Cleaner, chunker *Chunker, chunkEmbedder *ChunkEmbedder, miner *Miner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		cleaner:  cleaner,
		chunker:  chunker,
		embedder: chunkEmbedder,
		miner:    miner,
		logger:   logger,
	}
}

// Run ingests all documents. Connectivity is checked once up front and is
// the only fatal failure; afterwards each document fails independently.
func (p *Pipeline) Run(ctx context.Context, docs []*types.Document) (*Result, error) {
	if err := p.store.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("store unreachable, aborting ingestion: %w", err)
	}

	result := &Result{}
	for _, doc := range docs {
		if err := p.ingestDocument(ctx, doc); err != nil {
			p.logger.Warn("skipping document", "filename", doc.Filename, "error", err)
			result.Skipped++
			continue
		}
		result.Ingested++
	}

	p.logger.Info("ingestion complete", "ingested", result.Ingested, "skipped", result.Skipped)
	return result, nil
}

func (p *Pipeline) ingestDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	p.cleaner.CleanDocument(doc)
	p.chunker.ChunkDocument(doc)
	if len(doc.Chunks) == 0 {
		return fmt.Errorf("document produced no chunks")
	}

	if p.embedder != nil {
		if err := p.embedder.EmbedDocumentChunks(ctx, doc); err != nil {
			return err
		}
	}
	if p.miner != nil {
		p.miner.MineDocument(ctx, doc)
	}

	metadata := make(map[string]interface{}, len(doc.Metadata))
	for k, v := range doc.Metadata {
		metadata[k] = v
	}

	for _, chunk := range doc.Chunks {
		if err := p.store.UpsertChunkEmbedding(ctx, chunk, metadata); err != nil {
			p.logger.Warn("failed to store chunk", "filename", doc.Filename, "chunk_id", chunk.ChunkID, "error", err)
			continue
		}
		if len(chunk.Entities) > 0 {
			if err := p.store.MergeEntitiesAndRelationships(ctx, chunk); err != nil {
				p.logger.Warn("failed to store chunk subgraph", "filename", doc.Filename, "chunk_id", chunk.ChunkID, "error", err)
			}
		}
	}

	if err := p.store.LinkChunkSequence(ctx, doc.Filename, doc.Version); err != nil {
		p.logger.Warn("failed to link chunk sequence", "filename", doc.Filename, "error", err)
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		p.logger.Warn("failed to create document node", "filename", doc.Filename, "error", err)
	}
	return nil
}
