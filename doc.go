// Package graphista provides a graph-based retrieval augmented generation
// library for Go.
//
// Graphista ingests documents into a property graph: text is cleaned, split
// into overlapping chunks, embedded, and mined for entities and
// relationships. Batch analytics detect communities and compute centralities
// over the resulting graph, community summaries are generated and indexed,
// and questions are answered through retrieval strategies that combine
// vector similarity, generated graph queries and community context.
//
// # Basic Usage
//
// Create a new Graphista client with the required components:
//
//	// Create Neo4j driver
//	graphDriver, err := driver.NewNeo4jDriver("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer graphDriver.Close(ctx)
//
//	// Create LLM client
//	llmClient, err := llm.NewClient(&llm.Config{Model: "gpt-4o-mini", APIKey: "your-api-key"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Create embedder
//	embedderClient, err := embedder.NewClient(&embedder.Config{Model: "text-embedding-3-small", APIKey: "your-api-key"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Create Graphista client
//	config := &graphista.Config{MineGraph: true}
//	client, err := graphista.NewClient(graphDriver, llmClient, nil, embedderClient, config, nil)
//
// # Ingesting Documents
//
// Documents are loaded from a folder, chunked, embedded and written to the
// graph together with their mined entity subgraphs:
//
//	result, err := client.Ingest(ctx, "./documents")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("ingested %d documents\n", result.Ingested)
//
// # Analytics and Reports
//
// Community detection and centralities run as a batch over the whole graph,
// then community summaries are generated into the report index:
//
//	if _, err := client.RunAnalytics(ctx); err != nil {
//		log.Fatal(err)
//	}
//	if _, err := client.BuildReports(ctx, types.CommunityLeiden); err != nil {
//		log.Fatal(err)
//	}
//
// # Answering Questions
//
// Questions are answered with one of five retrieval strategies:
//
//	answer, err := client.Answer(ctx, "Who wrote the first program?", &qa.Options{
//		Strategy: qa.StrategySimilarity,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(answer.Text)
//
// # Node Kinds
//
// Graphista writes five kinds of nodes:
//
//   - Document: One ingested file-version
//   - Chunk: A bounded span of document text, the unit of embedding and retrieval
//   - Entity: A named concept mined from chunk text
//   - CommunityReport: The indexed summary of one community
//   - GraphMetric: A graph-wide scalar such as modularity
//
// # Error Handling
//
// Connectivity failures are fatal; individual write failures during
// ingestion are logged and skipped; retrieval failures degrade to an empty
// context so a question still receives an answer. Only generation failures
// surface to the caller, as qa.ErrGeneration.
//
// # Architecture
//
// The library follows a modular architecture:
//
//   - pkg/driver: Graph database abstraction layer
//   - pkg/graph: Property graph store, traversals and vector search
//   - pkg/ingestion: Cleaning, chunking, embedding and graph mining
//   - pkg/analytics: In-memory community detection and centralities
//   - pkg/reporter: Community summary generation
//   - pkg/qa: Question answering strategies
//   - pkg/llm, pkg/embedder: Model client interfaces
//   - pkg/types: Core type definitions
//
// This design allows easy extension with additional database backends,
// LLM providers, and embedding services.
package graphista
