package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	"github.com/soundprediction/graphista/pkg/llm"
	"github.com/soundprediction/graphista/pkg/prompts"
	"github.com/soundprediction/graphista/pkg/types"
)

// minedGraph is the JSON shape the extraction prompt asks for.
type minedGraph struct {
	Nodes []struct {
		ID         string                 `json:"id"`
		Type       string                 `json:"type"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"nodes"`
	Relationships []struct {
		SourceID   string                 `json:"source_id"`
		TargetID   string                 `json:"target_id"`
		Type       string                 `json:"type"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"relationships"`
}

// Miner extracts entities and relationships from chunk text with an LLM. An
// optional ontology restricts what the extraction may produce; anything
// outside it is dropped after parsing as well, since models do not always
// comply.
type Miner struct {
	llm      llm.Client
	ontology *types.Ontology
	logger   *slog.Logger
}

// NewMiner creates a Miner. ontology may be nil.
func NewMiner(llmClient llm.Client, ontology *types.Ontology, logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{llm: llmClient, ontology: ontology, logger: logger}
}

// LoadOntology reads an ontology restriction from a YAML file.
func LoadOntology(path string) (*types.Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology file: %w", err)
	}
	var ontology types.Ontology
	if err := yaml.Unmarshal(data, &ontology); err != nil {
		return nil, fmt.Errorf("failed to parse ontology file: %w", err)
	}
	return &ontology, nil
}

// MineDocument extracts a subgraph from every chunk of the document. A
// failing chunk is logged and left without a subgraph.
func (m *Miner) MineDocument(ctx context.Context, doc *types.Document) *types.Document {
	mined := 0
	for _, chunk := range doc.Chunks {
		entities, relationships, err := m.MineChunk(ctx, chunk.Text)
		if err != nil {
			m.logger.Warn("error while mining graph", "filename", doc.Filename, "chunk_id", chunk.ChunkID, "error", err)
			continue
		}
		chunk.Entities = entities
		chunk.Relationships = relationships
		mined += len(entities)
	}
	m.logger.Info("mined graph representation", "filename", doc.Filename, "entities", mined)
	return doc
}

// MineChunk extracts entities and relationships from one text.
func (m *Miner) MineChunk(ctx context.Context, text string) ([]*types.Entity, []*types.Relationship, error) {
	response, err := m.llm.Chat(ctx, prompts.GraphExtraction(text, m.ontology))
	if err != nil {
		return nil, nil, fmt.Errorf("extraction request failed: %w", err)
	}

	graph, err := parseMinedGraph(response.Content)
	if err != nil {
		return nil, nil, err
	}

	var entities []*types.Entity
	allowed := make(map[string]struct{}, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if node.ID == "" {
			continue
		}
		if !m.labelAllowed(node.Type) {
			m.logger.Debug("dropping entity outside ontology", "id", node.ID, "type", node.Type)
			continue
		}
		entities = append(entities, &types.Entity{
			ID:         node.ID,
			Type:       node.Type,
			Properties: node.Properties,
		})
		allowed[node.ID] = struct{}{}
	}

	var relationships []*types.Relationship
	for _, rel := range graph.Relationships {
		if rel.SourceID == "" || rel.TargetID == "" || rel.Type == "" {
			continue
		}
		if _, ok := allowed[rel.SourceID]; !ok {
			continue
		}
		if _, ok := allowed[rel.TargetID]; !ok {
			continue
		}
		if !m.relationAllowed(rel.Type) {
			m.logger.Debug("dropping relationship outside ontology", "type", rel.Type)
			continue
		}
		relationships = append(relationships, &types.Relationship{
			SourceID:   rel.SourceID,
			TargetID:   rel.TargetID,
			Type:       rel.Type,
			Properties: rel.Properties,
		})
	}

	return entities, relationships, nil
}

func (m *Miner) labelAllowed(label string) bool {
	if m.ontology == nil || len(m.ontology.AllowedLabels) == 0 {
		return true
	}
	for _, allowed := range m.ontology.AllowedLabels {
		if strings.EqualFold(allowed, label) {
			return true
		}
	}
	return false
}

func (m *Miner) relationAllowed(relation string) bool {
	if m.ontology == nil || len(m.ontology.AllowedRelations) == 0 {
		return true
	}
	for _, allowed := range m.ontology.AllowedRelations {
		if strings.EqualFold(allowed, relation) {
			return true
		}
	}
	return false
}

// parseMinedGraph decodes model output, repairing malformed JSON and
// trimming any prose around the object.
func parseMinedGraph(content string) (*minedGraph, error) {
	repaired, _ := jsonrepair.JSONRepair(content)
	if repaired == "" {
		repaired = content
	}

	var graph minedGraph
	if err := json.Unmarshal([]byte(repaired), &graph); err == nil {
		return &graph, nil
	}

	start := strings.Index(repaired, "{")
	end := strings.LastIndex(repaired, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in extraction output")
	}
	if err := json.Unmarshal([]byte(repaired[start:end+1]), &graph); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}
	return &graph, nil
}
