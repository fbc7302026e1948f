package graphista

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/graphista/pkg/analytics"
	"github.com/soundprediction/graphista/pkg/driver"
	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/graph"
	"github.com/soundprediction/graphista/pkg/ingestion"
	"github.com/soundprediction/graphista/pkg/llm"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/reporter"
	"github.com/soundprediction/graphista/pkg/types"
)

// Config holds configuration for the Graphista client.
type Config struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int
	// ChunkOverlap is how many characters consecutive chunks share.
	ChunkOverlap int
	// EmbeddingsModel names the model recorded on each chunk.
	EmbeddingsModel string
	// Ontology restricts graph mining; nil allows everything.
	Ontology *types.Ontology
	// MineGraph enables entity and relationship extraction during ingestion.
	MineGraph bool
	// DocumentVersion is the version assigned to newly ingested documents.
	DocumentVersion int
	// DefaultStrategy answers questions when the caller does not pick one.
	DefaultStrategy qa.Strategy
	// CommunityType is the partition used for reports and community retrieval.
	CommunityType types.CommunityType
	// SchemaTTL bounds staleness of cached counts, labels and relationship
	// types. Non-positive values use the package default.
	SchemaTTL time.Duration
}

// Client wires the store, the ingestion pipeline, the analytics engine, the
// community reporter and the question answering orchestrator over one graph
// database connection. It is the main implementation of the GraphRAG
// interface.
type Client struct {
	driver    driver.GraphDriver
	store     *graph.Store
	schema    *graph.SchemaCache
	llm       llm.Client
	embedder  embedder.Client
	pipeline  *ingestion.Pipeline
	engine    *analytics.Engine
	reporter  *reporter.Reporter
	responder *qa.Responder
	config    *Config
	logger    *slog.Logger
}

// NewClient creates a Graphista client. rephraseClient may be nil; the
// rephrase pass before Cypher generation is then skipped and the question
// is used as asked.
func NewClient(graphDriver driver.GraphDriver, llmClient llm.Client, rephraseClient llm.Client, embedderClient embedder.Client, cfg *Config, logger *slog.Logger) (*Client, error) {
	if graphDriver == nil {
		return nil, fmt.Errorf("graph driver is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DocumentVersion <= 0 {
		cfg.DocumentVersion = 1
	}
	if cfg.CommunityType == "" {
		cfg.CommunityType = types.CommunityLeiden
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := graph.NewStore(graphDriver, logger)

	chunker, err := ingestion.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var miner *ingestion.Miner
	if cfg.MineGraph && llmClient != nil {
		miner = ingestion.NewMiner(llmClient, cfg.Ontology, logger)
	}

	var chunkEmbedder *ingestion.ChunkEmbedder
	if embedderClient != nil {
		chunkEmbedder = ingestion.NewChunkEmbedder(embedderClient, cfg.EmbeddingsModel, logger)
	}

	return &Client{
		driver:    graphDriver,
		store:     store,
		schema:    graph.NewSchemaCache(store, cfg.SchemaTTL),
		llm:       llmClient,
		embedder:  embedderClient,
		pipeline:  ingestion.NewPipeline(store, ingestion.NewCleaner(), chunker, chunkEmbedder, miner, logger),
		engine:    analytics.NewEngine(store, logger),
		reporter:  reporter.NewReporter(store, llmClient, embedderClient, logger),
		responder: qa.NewResponder(store, llmClient, rephraseClient, embedderClient, logger),
		config:    cfg,
		logger:    logger,
	}, nil
}

// Ingest loads every text file under folder and runs it through the
// ingestion pipeline.
func (c *Client) Ingest(ctx context.Context, folder string) (*ingestion.Result, error) {
	ingestor := ingestion.NewLocalIngestor(folder)
	files, err := ingestor.ListFiles()
	if err != nil {
		return nil, err
	}

	docs := make([]*types.Document, 0, len(files))
	for _, file := range files {
		doc, err := ingestor.LoadDocument(file, c.config.DocumentVersion)
		if err != nil {
			c.logger.Warn("skipping unreadable file", "path", file, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return c.IngestDocuments(ctx, docs)
}

// IngestDocuments runs already loaded documents through the pipeline.
func (c *Client) IngestDocuments(ctx context.Context, docs []*types.Document) (*ingestion.Result, error) {
	result, err := c.pipeline.Run(ctx, docs)
	if err != nil {
		return nil, err
	}
	c.schema.Invalidate()
	return result, nil
}

// Answer answers a question. A nil opts uses the configured defaults.
func (c *Client) Answer(ctx context.Context, question string, opts *qa.Options) (*qa.Answer, error) {
	if opts == nil {
		opts = &qa.Options{
			Strategy:      c.config.DefaultStrategy,
			CommunityType: c.config.CommunityType,
		}
	}
	return c.responder.Answer(ctx, question, *opts)
}

// RunAnalytics recomputes communities and centralities over the whole graph
// and persists the results onto the nodes.
func (c *Client) RunAnalytics(ctx context.Context) (*analytics.Result, error) {
	result, err := c.engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	c.schema.Invalidate()
	return result, nil
}

// BuildReports summarizes every community of the given type into the report
// index. An empty community type uses the configured default.
func (c *Client) BuildReports(ctx context.Context, communityType types.CommunityType) (*reporter.Result, error) {
	if communityType == "" {
		communityType = c.config.CommunityType
	}
	return c.reporter.BuildReports(ctx, communityType)
}

// Stats returns the structural counts of the graph, cached with bounded
// staleness.
func (c *Client) Stats(ctx context.Context) (*types.Counts, error) {
	return c.schema.Counts(ctx)
}

// Labels returns the distinct node labels present in the graph.
func (c *Client) Labels(ctx context.Context) ([]string, error) {
	return c.schema.Labels(ctx)
}

// RelationshipTypes returns the distinct relationship types present in the
// graph.
func (c *Client) RelationshipTypes(ctx context.Context) ([]string, error) {
	return c.schema.RelationshipTypes(ctx)
}

// HealthCheck verifies that the graph database is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// GetDriver returns the underlying graph driver
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// GetStore returns the underlying graph store
func (c *Client) GetStore() *graph.Store {
	return c.store
}

// GetLLM returns the LLM client
func (c *Client) GetLLM() llm.Client {
	return c.llm
}

// GetEmbedder returns the embedder client
func (c *Client) GetEmbedder() embedder.Client {
	return c.embedder
}

// Close closes all connections and cleans up resources.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			firstErr = err
		}
	}
	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.driver.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
