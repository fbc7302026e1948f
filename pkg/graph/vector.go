package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

// DefaultTopK bounds vector search results when the caller passes k <= 0.
const DefaultTopK = 4

// chunkFilterKeys are the metadata keys accepted by SimilarChunks filters.
var chunkFilterKeys = map[string]struct{}{
	"chunk_id":          {},
	"filename":          {},
	"document_version":  {},
	"community_leiden":  {},
	"community_louvain": {},
}

// reportFilterKeys are the metadata keys accepted by SimilarReports filters.
var reportFilterKeys = map[string]struct{}{
	"community_type": {},
	"community_id":   {},
}

type scoredHit struct {
	hit   types.SearchHit
	score float64
}

// SimilarChunks runs a vector search over the chunk index: candidates are
// fetched by metadata filter through the session, then cosine-scored against
// queryEmbedding in process. Results come back best-first, at most k.
func (s *Store) SimilarChunks(ctx context.Context, queryEmbedding []float32, k int, filter map[string]interface{}) ([]types.SearchHit, error) {
	if len(queryEmbedding) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query, params, err := buildCandidateQuery(chunkCandidatesQuery, "c", filter, chunkFilterKeys)
	if err != nil {
		return nil, err
	}
	query += "\n\t\tRETURN c {.*} AS payload"

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("chunk vector search failed: %w", err)
	}

	candidates := make([]scoredHit, 0, len(rows))
	for _, row := range rows {
		payload, ok := row["payload"].(map[string]interface{})
		if !ok {
			continue
		}
		embedding := floatSlice(payload["embedding"])
		if len(embedding) == 0 {
			continue
		}
		text, _ := payload["text"].(string)
		score := cosineSimilarity(queryEmbedding, embedding)
		candidates = append(candidates, scoredHit{
			hit: types.SearchHit{
				Content:  text,
				Metadata: chunkMetadata(payload),
				Score:    score,
			},
			score: score,
		})
	}

	return topK(candidates, k, 0), nil
}

// SimilarReports runs a vector search over the community report index. Hits
// scoring below threshold are dropped; pass 0 to disable the cutoff.
func (s *Store) SimilarReports(ctx context.Context, queryEmbedding []float32, k int, filter map[string]interface{}, threshold float64) ([]types.SearchHit, error) {
	if len(queryEmbedding) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query, params, err := buildCandidateQuery(reportCandidatesQuery, "r", filter, reportFilterKeys)
	if err != nil {
		return nil, err
	}
	query += "\n\t\tRETURN r {.*} AS payload"

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("report vector search failed: %w", err)
	}

	candidates := make([]scoredHit, 0, len(rows))
	for _, row := range rows {
		payload, ok := row["payload"].(map[string]interface{})
		if !ok {
			continue
		}
		embedding := floatSlice(payload["summary_embedding"])
		if len(embedding) == 0 {
			continue
		}
		summary, _ := payload["summary"].(string)
		score := cosineSimilarity(queryEmbedding, embedding)
		candidates = append(candidates, scoredHit{
			hit: types.SearchHit{
				Content:  summary,
				Metadata: reportMetadata(payload),
				Score:    score,
			},
			score: score,
		})
	}

	return topK(candidates, k, threshold), nil
}

// UpsertCommunityReport writes a report into the report index, merging on
// (community_type, community_id). Regenerating a report replaces the
// previous one.
func (s *Store) UpsertCommunityReport(ctx context.Context, report *types.CommunityReport) error {
	if !report.Type.Valid() {
		return ErrInvalidCommunityType
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, upsertReportQuery, map[string]interface{}{
		"community_type":    string(report.Type),
		"community_id":      report.CommunityID,
		"summary":           report.Summary,
		"summary_embedding": report.SummaryEmbedding,
		"community_size":    report.Size,
		"created_at":        report.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return fmt.Errorf("failed to upsert community report: %w", err)
	}
	return nil
}

func buildCandidateQuery(base, alias string, filter map[string]interface{}, allowed map[string]struct{}) (string, map[string]interface{}, error) {
	params := make(map[string]interface{}, len(filter))

	keys := make([]string, 0, len(filter))
	for key := range filter {
		if _, ok := allowed[key]; !ok {
			return "", nil, fmt.Errorf("unsupported filter key: %s", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(base)
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf("\n\t\t\tAND %s.%s = $%s", alias, key, key))
		params[key] = filter[key]
	}
	return builder.String(), params, nil
}

func topK(candidates []scoredHit, k int, threshold float64) []types.SearchHit {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	hits := make([]types.SearchHit, 0, k)
	for _, candidate := range candidates {
		if threshold > 0 && candidate.score < threshold {
			continue
		}
		hits = append(hits, candidate.hit)
		if len(hits) == k {
			break
		}
	}
	return hits
}

func chunkMetadata(payload map[string]interface{}) map[string]interface{} {
	metadata := make(map[string]interface{})
	for key, value := range payload {
		if key == "text" || key == "embedding" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}

func reportMetadata(payload map[string]interface{}) map[string]interface{} {
	metadata := make(map[string]interface{})
	for key, value := range payload {
		if key == "summary" || key == "summary_embedding" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}

func floatSlice(value interface{}) []float32 {
	switch v := value.(type) {
	case []float32:
		return v
	case []interface{}:
		out := make([]float32, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				out = append(out, float32(n))
			case float32:
				out = append(out, n)
			case int64:
				out = append(out, float32(n))
			}
		}
		return out
	}
	return nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
