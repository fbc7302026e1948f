// Package reporter generates per-community textual summaries and persists
// them into the community report vector index.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/llm"
	"github.com/soundprediction/graphista/pkg/prompts"
	"github.com/soundprediction/graphista/pkg/types"
)

// Store is the persistence surface the reporter needs.
type Store interface {
	Communities(ctx context.Context, communityType types.CommunityType) ([]*types.Community, error)
	UpsertCommunityReport(ctx context.Context, report *types.CommunityReport) error
}

// Result reports what one reporting run produced.
type Result struct {
	Generated int
	Skipped   int
}

// Reporter summarizes communities with an LLM, embeds the summaries and
// writes them to the report index.
type Reporter struct {
	store    Store
	llm      llm.Client
	embedder embedder.Client
	logger   *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(store Store, llmClient llm.Client, embedderClient embedder.Client, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		store:    store,
		llm:      llmClient,
		embedder: embedderClient,
		logger:   logger,
	}
}

// BuildReports generates a report for every community under the given
// namespace. Zero-chunk communities are skipped with a log line, as are
// communities whose summarization fails. An embedding failure is logged but
// the report is still persisted without its vector.
func (r *Reporter) BuildReports(ctx context.Context, communityType types.CommunityType) (*Result, error) {
	communities, err := r.store.Communities(ctx, communityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}

	result := &Result{}
	for _, community := range communities {
		report := r.buildReport(ctx, community)
		if report == nil {
			result.Skipped++
			continue
		}
		if err := r.store.UpsertCommunityReport(ctx, report); err != nil {
			r.logger.Warn("failed to persist community report",
				"community_type", community.Type, "community_id", community.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Generated++
	}

	r.logger.Info("community reports built",
		"community_type", communityType, "generated", result.Generated, "skipped", result.Skipped)
	return result, nil
}

// buildReport summarizes a single community. Nil means the community was
// skipped.
func (r *Reporter) buildReport(ctx context.Context, community *types.Community) *types.CommunityReport {
	if len(community.Chunks) == 0 {
		r.logger.Warn("no chunks to summarize for community",
			"community_type", community.Type, "community_id", community.ID)
		return nil
	}

	var content strings.Builder
	for _, chunk := range community.Chunks {
		content.WriteString(strings.ReplaceAll(chunk.Text, "\n\n", "\n"))
		content.WriteString("\n\n")
	}

	response, err := r.llm.Chat(ctx, prompts.SummarizeCommunity(content.String()))
	if err != nil {
		r.logger.Warn("failed to summarize community chunks",
			"community_type", community.Type, "community_id", community.ID, "error", err)
		return nil
	}
	summary := response.Content

	report := &types.CommunityReport{
		Type:        community.Type,
		CommunityID: community.ID,
		Summary:     summary,
		Size:        community.Size,
		CreatedAt:   time.Now().UTC(),
	}

	embedding, err := r.embedder.EmbedSingle(ctx, summary)
	if err != nil {
		r.logger.Warn("failed to embed community summary",
			"community_type", community.Type, "community_id", community.ID, "error", err)
	} else {
		report.SummaryEmbedding = embedding
	}

	return report
}
