package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jDriver implements GraphDriver over the official Neo4j Go driver.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{
		client:   client,
		database: database,
	}, nil
}

// Session opens a new session against the configured database.
func (d *Neo4jDriver) Session(ctx context.Context) GraphSession {
	return &neo4jSession{
		session: d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database}),
	}
}

// VerifyConnectivity checks reachability and credentials.
func (d *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	if err := d.client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity check failed: %w", err)
	}
	return nil
}

// Provider reports the backing database product.
func (d *Neo4jDriver) Provider() GraphProvider {
	return GraphProviderNeo4j
}

// Close closes the driver and all pooled connections.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.client.Close(ctx)
}

type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) Run(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		row := make(map[string]interface{}, len(record.Keys))
		for _, key := range record.Keys {
			value, _ := record.Get(key)
			row[key] = normalizeValue(value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// normalizeValue converts driver-specific record values into plain Go values
// so callers never depend on neo4j dbtypes.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case dbtype.Node:
		props := make(map[string]interface{}, len(v.Props)+2)
		for k, p := range v.Props {
			props[k] = normalizeValue(p)
		}
		props["__element_id"] = v.ElementId
		props["__labels"] = append([]string(nil), v.Labels...)
		return props
	case dbtype.Relationship:
		props := make(map[string]interface{}, len(v.Props)+1)
		for k, p := range v.Props {
			props[k] = normalizeValue(p)
		}
		props["__type"] = v.Type
		return props
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return value
	}
}
