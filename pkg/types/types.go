package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyFilename = errors.New("filename cannot be empty")
	ErrEmptyText     = errors.New("text cannot be empty")
	ErrEmptyEntityID = errors.New("entity id cannot be empty")
	ErrInvalidLimit  = errors.New("limit must be positive")
)

// Document represents one ingested file-version. Documents are created once
// and never mutated or deleted by the core.
type Document struct {
	Filename string                 `json:"filename" mapstructure:"filename"`
	Version  int                    `json:"document_version" mapstructure:"document_version"`
	Source   string                 `json:"source" mapstructure:"source"`
	Text     string                 `json:"text,omitempty" mapstructure:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty" mapstructure:"metadata"`
	Chunks   []*Chunk               `json:"chunks,omitempty" mapstructure:"chunks"`
}

// Validate checks that the Document can identify itself in the graph.
func (d *Document) Validate() error {
	if d.Filename == "" {
		return ErrEmptyFilename
	}
	return nil
}

// Chunk is a bounded span of a document's text, the unit of embedding and
// retrieval. A chunk is identified by (ChunkID, Filename, Version); chunks of
// the same document form a strict total order by ChunkID.
type Chunk struct {
	ChunkID         int       `json:"chunk_id" mapstructure:"chunk_id"`
	Filename        string    `json:"filename" mapstructure:"filename"`
	Version         int       `json:"document_version" mapstructure:"document_version"`
	Text            string    `json:"text" mapstructure:"text"`
	ElementID       string    `json:"-" mapstructure:"-"`
	Embedding       []float32 `json:"embedding,omitempty" mapstructure:"embedding"`
	ChunkSize       int       `json:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap    int       `json:"chunk_overlap" mapstructure:"chunk_overlap"`
	EmbeddingsModel string    `json:"embeddings_model,omitempty" mapstructure:"embeddings_model"`

	// Mined subgraph, populated by the graph miner before persistence.
	Entities      []*Entity       `json:"entities,omitempty" mapstructure:"entities"`
	Relationships []*Relationship `json:"relationships,omitempty" mapstructure:"relationships"`

	// Analytics properties, written only by the analytics engine.
	CommunityLeiden  int     `json:"community_leiden,omitempty" mapstructure:"community_leiden"`
	CommunityLouvain int     `json:"community_louvain,omitempty" mapstructure:"community_louvain"`
	PageRank         float64 `json:"pagerank,omitempty" mapstructure:"pagerank"`
	Betweenness      float64 `json:"betweenness,omitempty" mapstructure:"betweenness"`
	Closeness        float64 `json:"closeness,omitempty" mapstructure:"closeness"`
}

// Entity is a named concept node extracted from chunk text. Entities with the
// same ID are unioned, never duplicated.
type Entity struct {
	ID         string                 `json:"id" mapstructure:"id"`
	Type       string                 `json:"type" mapstructure:"type"`
	Properties map[string]interface{} `json:"properties,omitempty" mapstructure:"properties"`
}

// Validate checks that the Entity carries its merge key.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return ErrEmptyEntityID
	}
	return nil
}

// Relationship is a typed, directed edge between two entities. Relationships
// with matching (SourceID, TargetID, Type) are merged, never duplicated.
type Relationship struct {
	SourceID   string                 `json:"source_id" mapstructure:"source_id"`
	TargetID   string                 `json:"target_id" mapstructure:"target_id"`
	Type       string                 `json:"type" mapstructure:"type"`
	Properties map[string]interface{} `json:"properties,omitempty" mapstructure:"properties"`
}

// CommunityType selects one of the two community detection namespaces.
type CommunityType string

const (
	// CommunityLeiden is the namespace written by the Leiden algorithm.
	CommunityLeiden CommunityType = "leiden"
	// CommunityLouvain is the namespace written by the Louvain algorithm.
	CommunityLouvain CommunityType = "louvain"
)

// Valid reports whether the community type is one of the two known namespaces.
func (c CommunityType) Valid() bool {
	return c == CommunityLeiden || c == CommunityLouvain
}

// Property returns the node property name holding this community label.
func (c CommunityType) Property() string {
	return "community_" + string(c)
}

// MetricName returns the GraphMetric name for this community type's modularity.
func (c CommunityType) MetricName() string {
	return string(c) + "_modularity"
}

// Community is a partition-induced group of graph nodes under one detection
// algorithm. It is derived state, recomputed from labels on member nodes.
type Community struct {
	Type              CommunityType `json:"community_type"`
	ID                int           `json:"community_id"`
	Size              int           `json:"community_size"`
	EntityIDs         []string      `json:"entity_ids,omitempty"`
	EntityNames       []string      `json:"entity_names,omitempty"`
	RelationshipTypes []string      `json:"relationship_types,omitempty"`
	Chunks            []*Chunk      `json:"chunks,omitempty"`
}

// CommunityReport is the textual+vector summary of one community, stored in
// the report vector index. Regeneration means re-insertion, never in-place
// update.
type CommunityReport struct {
	Type             CommunityType `json:"community_type"`
	CommunityID      int           `json:"community_id"`
	Summary          string        `json:"summary"`
	SummaryEmbedding []float32     `json:"summary_embedding,omitempty"`
	Size             int           `json:"community_size"`
	CreatedAt        time.Time     `json:"created_at"`
}

// GraphMetric is a graph-wide scalar, one singleton per metric name.
type GraphMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Counts holds the structural counts of the graph, recomputed on each call.
type Counts struct {
	Nodes         int64 `json:"nodes"`
	Labels        int64 `json:"labels"`
	Relationships int64 `json:"relationships"`
	Documents     int64 `json:"documents"`
}

// SearchHit is one result from a vector index query.
type SearchHit struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float64                `json:"score"`
}

// ChunkRef resolves a SearchHit from the chunk index back to a Chunk.
func (h *SearchHit) ChunkRef() *Chunk {
	c := &Chunk{Text: h.Content}
	if v, ok := toInt(h.Metadata["chunk_id"]); ok {
		c.ChunkID = v
	}
	if v, ok := h.Metadata["filename"].(string); ok {
		c.Filename = v
	}
	if v, ok := toInt(h.Metadata["document_version"]); ok {
		c.Version = v
	}
	return c
}

// SubgraphEdge is one edge of a community subgraph, with bookkeeping
// properties already stripped from both endpoint payloads.
type SubgraphEdge struct {
	Node1        map[string]interface{} `json:"node_1"`
	Relationship map[string]interface{} `json:"relationship"`
	Node2        map[string]interface{} `json:"node_2"`
}

// Ontology restricts graph mining to a pre-established set of allowed node
// labels and relationship types. A nil or empty ontology allows everything.
type Ontology struct {
	AllowedLabels      []string          `json:"allowed_labels,omitempty" yaml:"allowed_labels"`
	LabelsDescriptions map[string]string `json:"labels_descriptions,omitempty" yaml:"labels_descriptions"`
	AllowedRelations   []string          `json:"allowed_relations,omitempty" yaml:"allowed_relations"`
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
