package graphista

import (
	"context"

	"github.com/soundprediction/graphista/pkg/analytics"
	"github.com/soundprediction/graphista/pkg/ingestion"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/reporter"
	"github.com/soundprediction/graphista/pkg/types"
)

// This file defines focused interfaces that follow the Interface Segregation
// Principle. The GraphRAG interface is composed from these smaller interfaces;
// consumers should depend on the smallest interface that meets their needs.

// DocumentIngester provides operations for loading documents into the graph.
type DocumentIngester interface {
	// Ingest loads every text file under folder and runs it through the
	// ingestion pipeline.
	Ingest(ctx context.Context, folder string) (*ingestion.Result, error)

	// IngestDocuments runs already loaded documents through the pipeline.
	IngestDocuments(ctx context.Context, docs []*types.Document) (*ingestion.Result, error)
}

// QuestionAnswerer provides retrieval-grounded question answering.
type QuestionAnswerer interface {
	// Answer answers a question. A nil opts uses the configured defaults.
	Answer(ctx context.Context, question string, opts *qa.Options) (*qa.Answer, error)
}

// GraphAnalyzer recomputes derived graph state.
type GraphAnalyzer interface {
	// RunAnalytics recomputes communities and centralities over the whole
	// graph and persists the results onto the nodes.
	RunAnalytics(ctx context.Context) (*analytics.Result, error)

	// BuildReports summarizes every community of the given type into the
	// report index.
	BuildReports(ctx context.Context, communityType types.CommunityType) (*reporter.Result, error)
}

// GraphInspector provides read-only structural views of the graph.
type GraphInspector interface {
	// Stats returns the structural counts of the graph.
	Stats(ctx context.Context) (*types.Counts, error)

	// Labels returns the distinct node labels present in the graph.
	Labels(ctx context.Context) ([]string, error)

	// RelationshipTypes returns the distinct relationship types present in
	// the graph.
	RelationshipTypes(ctx context.Context) ([]string, error)
}

// GraphAdmin provides lifecycle operations.
type GraphAdmin interface {
	// HealthCheck verifies that the graph database is reachable.
	HealthCheck(ctx context.Context) error

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error
}

// GraphRAG is the main interface for building and querying a document graph.
type GraphRAG interface {
	DocumentIngester
	QuestionAnswerer
	GraphAnalyzer
	GraphInspector
	GraphAdmin
}

// Ensure Client implements all focused interfaces.
var _ GraphRAG = (*Client)(nil)
