package driver

import (
	"context"
)

// GraphProvider represents the type of graph database backing the store.
type GraphProvider string

const (
	GraphProviderNeo4j    GraphProvider = "neo4j"
	GraphProviderMemgraph GraphProvider = "memgraph"
)

// GraphSession executes queries against the graph database. It is the only
// capability the store composes over; rows come back as plain Go values
// (maps, slices, strings, numbers) regardless of the backing driver.
type GraphSession interface {
	// Run executes a single query and collects all result rows.
	Run(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error)

	// Close releases the session.
	Close(ctx context.Context) error
}

// GraphDriver opens sessions against a graph database. The store must support
// concurrent read sessions; each call to Session returns an independent one.
type GraphDriver interface {
	// Session opens a new session.
	Session(ctx context.Context) GraphSession

	// VerifyConnectivity checks that the database is reachable and the
	// credentials are valid. Called once before any pipeline runs.
	VerifyConnectivity(ctx context.Context) error

	// Provider reports the backing database product.
	Provider() GraphProvider

	// Close closes the driver and all pooled connections.
	Close(ctx context.Context) error
}
