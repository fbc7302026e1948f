// Package graph implements the persistent knowledge graph: documents, chunks,
// mined entities and relationships, community and centrality properties, and
// the two vector indexes (chunk-level and community-report-level).
//
// Store composes a driver.GraphDriver and talks to the database exclusively
// through sessions running parameterized queries. Write failures inside a
// batch are logged and skipped so one bad item never aborts an ingestion run.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/soundprediction/graphista/pkg/driver"
	"github.com/soundprediction/graphista/pkg/types"
)

var (
	// ErrUnsupportedHops is returned when entity traversal is asked for more
	// than one hop. Multi-hop expansion is declared but not supported.
	ErrUnsupportedHops = errors.New("entity traversal beyond one hop is not supported")
	// ErrInvalidCommunityType is returned for community namespaces other than
	// leiden and louvain.
	ErrInvalidCommunityType = errors.New("community type must be leiden or louvain")
)

var labelSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Store is the graph persistence layer.
type Store struct {
	driver driver.GraphDriver
	logger *slog.Logger
}

// NewStore creates a Store over the given driver.
func NewStore(d driver.GraphDriver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{driver: d, logger: logger}
}

// VerifyConnectivity checks that the database is reachable with the
// configured credentials. Pipelines call this once before doing any work.
func (s *Store) VerifyConnectivity(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// CreateDocument creates the Document node and merges PART_OF edges from all
// chunks sharing its (filename, document_version). Write failures are logged,
// never returned.
func (s *Store) CreateDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, createDocumentQuery, map[string]interface{}{
		"filename":         doc.Filename,
		"document_version": doc.Version,
		"source":           doc.Source,
	}); err != nil {
		s.logger.Warn("failed to create document node", "filename", doc.Filename, "error", err)
		return nil
	}

	if _, err := session.Run(ctx, mergePartOfQuery, map[string]interface{}{
		"filename":         doc.Filename,
		"document_version": doc.Version,
	}); err != nil {
		s.logger.Warn("failed to merge PART_OF relationships", "filename", doc.Filename, "error", err)
		return nil
	}

	s.logger.Info("document node created", "filename", doc.Filename, "version", doc.Version)
	return nil
}

// LinkChunkSequence merges NEXT edges between consecutive chunk ids of one
// document version. Idempotent.
func (s *Store) LinkChunkSequence(ctx context.Context, filename string, version int) error {
	if filename == "" {
		return types.ErrEmptyFilename
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, mergeNextQuery, map[string]interface{}{
		"filename":         filename,
		"document_version": version,
	}); err != nil {
		s.logger.Warn("failed to merge NEXT relationships", "filename", filename, "error", err)
	}
	return nil
}

// MergeEntitiesAndRelationships persists a chunk's mined subgraph: entities
// merged by id under the base __Entity__ label plus their type label,
// relationships merged by (source, target, type), and MENTIONS edges from the
// chunk to every entity. Each item is written independently so one failure
// never aborts the batch.
func (s *Store) MergeEntitiesAndRelationships(ctx context.Context, chunk *types.Chunk) error {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	for _, entity := range chunk.Entities {
		if err := entity.Validate(); err != nil {
			s.logger.Warn("skipping invalid entity", "error", err)
			continue
		}

		query := mergeEntityQuery
		if label := sanitizeLabel(entity.Type); label != "" {
			query = fmt.Sprintf(mergeEntityWithLabelQuery, label)
		}
		if _, err := session.Run(ctx, query, map[string]interface{}{
			"id":    entity.ID,
			"props": entityProps(entity),
		}); err != nil {
			s.logger.Warn("failed to merge entity", "id", entity.ID, "error", err)
			continue
		}

		if _, err := session.Run(ctx, mergeMentionsQuery, map[string]interface{}{
			"node_id":          entity.ID,
			"chunk_id":         chunk.ChunkID,
			"filename":         chunk.Filename,
			"document_version": chunk.Version,
		}); err != nil {
			s.logger.Warn("failed to merge MENTIONS relationship", "id", entity.ID, "error", err)
		}
	}

	for _, rel := range chunk.Relationships {
		relType := sanitizeLabel(rel.Type)
		if relType == "" || rel.SourceID == "" || rel.TargetID == "" {
			s.logger.Warn("skipping invalid relationship", "type", rel.Type)
			continue
		}
		if _, err := session.Run(ctx, fmt.Sprintf(mergeRelationshipQuery, relType), map[string]interface{}{
			"source": rel.SourceID,
			"target": rel.TargetID,
			"props":  rel.Properties,
		}); err != nil {
			s.logger.Warn("failed to merge relationship",
				"source", rel.SourceID, "target", rel.TargetID, "type", relType, "error", err)
		}
	}

	return nil
}

// UpsertChunkEmbedding writes a chunk's text, embedding and metadata into the
// chunk vector index, merging on the (chunk_id, filename, document_version)
// identity.
func (s *Store) UpsertChunkEmbedding(ctx context.Context, chunk *types.Chunk, metadata map[string]interface{}) error {
	if chunk.Text == "" {
		return types.ErrEmptyText
	}

	extra := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		extra[k] = v
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, upsertChunkQuery, map[string]interface{}{
		"chunk_id":         chunk.ChunkID,
		"filename":         chunk.Filename,
		"document_version": chunk.Version,
		"text":             chunk.Text,
		"embedding":        chunk.Embedding,
		"chunk_size":       chunk.ChunkSize,
		"chunk_overlap":    chunk.ChunkOverlap,
		"embeddings_model": chunk.EmbeddingsModel,
		"metadata":         extra,
	}); err != nil {
		s.logger.Warn("failed to upsert chunk", "chunk_id", chunk.ChunkID, "filename", chunk.Filename, "error", err)
	}
	return nil
}

// ExecuteQuery runs a caller-supplied query and returns its rows. Callers
// are responsible for ensuring the query is read-only before handing it in.
func (s *Store) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	return rows, nil
}

// Counts returns structural counts of the graph. Every call recomputes from
// the database; callers wanting caching wrap the Store in a SchemaCache.
func (s *Store) Counts(ctx context.Context) (*types.Counts, error) {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	counts := &types.Counts{}
	for _, q := range []struct {
		query string
		key   string
		dest  *int64
	}{
		{countNodesQuery, "nodes", &counts.Nodes},
		{countLabelsQuery, "num_labels", &counts.Labels},
		{countRelationshipsQuery, "num_relationships", &counts.Relationships},
		{countDocumentsQuery, "num_docs", &counts.Documents},
	} {
		rows, err := session.Run(ctx, q.query, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count graph objects: %w", err)
		}
		if len(rows) > 0 {
			*q.dest = asInt64(rows[0][q.key])
		}
	}
	return counts, nil
}

// Labels returns the node labels present in the graph.
func (s *Store) Labels(ctx context.Context) ([]string, error) {
	return s.collectStrings(ctx, listLabelsQuery, "labels")
}

// RelationshipTypes returns the relationship types present in the graph.
func (s *Store) RelationshipTypes(ctx context.Context) ([]string, error) {
	return s.collectStrings(ctx, listRelationshipTypesQuery, "relationship_types")
}

func (s *Store) collectStrings(ctx context.Context, query, key string) ([]string, error) {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph schema: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	raw, _ := rows[0][key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

// sanitizeLabel reduces arbitrary extracted type names to a safe identifier
// usable as a label or relationship type. Empty when nothing survives.
func sanitizeLabel(raw string) string {
	cleaned := labelSanitizer.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"), "")
	return strings.Trim(cleaned, "_")
}

func entityProps(entity *types.Entity) map[string]interface{} {
	props := make(map[string]interface{}, len(entity.Properties)+1)
	for k, v := range entity.Properties {
		props[k] = v
	}
	if _, ok := props["name"]; !ok {
		props["name"] = entity.ID
	}
	return props
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
