package dto

import (
	"errors"
	"strings"
)

// MaxQuestionLength bounds the accepted question size.
const MaxQuestionLength = 8192

// ErrQuestionTooLong is returned when a question exceeds MaxQuestionLength.
var ErrQuestionTooLong = errors.New("question exceeds maximum length")

// IngestRequest asks the server to ingest every text file under a folder.
type IngestRequest struct {
	Folder  string `json:"folder" binding:"required"`
	Version int    `json:"version,omitempty"`
}

// IngestResponse acknowledges a queued ingestion run.
type IngestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ProcessID string `json:"process_id,omitempty"`
}

// AnswerRequest asks a question against the graph.
type AnswerRequest struct {
	Question          string                 `json:"question" binding:"required"`
	Strategy          string                 `json:"strategy,omitempty"`
	CommunityType     string                 `json:"community_type,omitempty"`
	TopK              int                    `json:"top_k,omitempty"`
	UseAdjacentChunks bool                   `json:"use_adjacent_chunks,omitempty"`
	Filter            map[string]interface{} `json:"filter,omitempty"`
}

// Validate performs validation on AnswerRequest
func (r *AnswerRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question cannot be empty")
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}

// AnswerResponse carries the generated answer and the retrieval trace.
type AnswerResponse struct {
	Answer     string                   `json:"answer"`
	Strategy   string                   `json:"strategy"`
	Context    string                   `json:"context,omitempty"`
	GraphQuery string                   `json:"graph_query,omitempty"`
	GraphRows  []map[string]interface{} `json:"graph_rows,omitempty"`
}

// AnalyticsResponse summarizes one analytics run.
type AnalyticsResponse struct {
	Nodes             int      `json:"nodes"`
	Edges             int      `json:"edges"`
	NodesUpdated      int      `json:"nodes_updated"`
	LouvainModularity *float64 `json:"louvain_modularity,omitempty"`
	LeidenModularity  *float64 `json:"leiden_modularity,omitempty"`
	AlgorithmErrors   []string `json:"algorithm_errors,omitempty"`
}

// ReportsRequest selects the community partition to summarize.
type ReportsRequest struct {
	CommunityType string `json:"community_type,omitempty"`
}

// ReportsResponse summarizes one report generation run.
type ReportsResponse struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}

// StatsResponse carries structural counts and the observed schema.
type StatsResponse struct {
	Nodes             int64    `json:"nodes"`
	Labels            int64    `json:"labels"`
	Relationships     int64    `json:"relationships"`
	Documents         int64    `json:"documents"`
	LabelNames        []string `json:"label_names,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
}
