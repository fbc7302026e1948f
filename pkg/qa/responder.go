package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/llm"
	"github.com/soundprediction/graphista/pkg/prompts"
	"github.com/soundprediction/graphista/pkg/types"
)

const (
	// reportTopK is how many community reports ground a community answer.
	reportTopK = 3
	// reportScoreThreshold is the minimum relevance for a grounding report.
	reportScoreThreshold = 0.8
)

var (
	// ErrGeneration marks a failure of the final generation step, the only
	// error a strategy surfaces to its caller.
	ErrGeneration = errors.New("answer generation failed")
	// ErrMutatingQuery is returned when a generated graph query contains a
	// write clause.
	ErrMutatingQuery = errors.New("generated query is not read-only")
)

var mutatingClause = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP)\b`)

// Store is the retrieval surface a Responder needs.
type Store interface {
	SimilarChunks(ctx context.Context, queryEmbedding []float32, k int, filter map[string]interface{}) ([]types.SearchHit, error)
	SimilarReports(ctx context.Context, queryEmbedding []float32, k int, filter map[string]interface{}, threshold float64) ([]types.SearchHit, error)
	AdjacentChunks(ctx context.Context, chunk *types.Chunk, useElementID bool) (*types.Chunk, *types.Chunk, *types.Chunk)
	MentionedEntities(ctx context.Context, chunk *types.Chunk, hops int) ([]map[string]interface{}, error)
	SubgraphByCommunity(ctx context.Context, ids []int, communityType types.CommunityType) ([]types.SubgraphEdge, error)
	Labels(ctx context.Context) ([]string, error)
	RelationshipTypes(ctx context.Context) ([]string, error)
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error)
}

// Options tunes one Answer call.
type Options struct {
	Strategy          Strategy
	CommunityType     types.CommunityType
	UseAdjacentChunks bool
	Filter            map[string]interface{}
	TopK              int
}

// Answer is the outcome of one question.
type Answer struct {
	Text       string
	Strategy   Strategy
	Context    string
	GraphQuery string
	GraphRows  []map[string]interface{}
}

// Responder answers questions over the graph. The rephrase client is
// optional; when nil the structured strategy skips the rephrase pass.
type Responder struct {
	store       Store
	llm         llm.Client
	rephraseLLM llm.Client
	embedder    embedder.Client
	logger      *slog.Logger
}

// NewResponder creates a Responder. rephraseLLM may be nil.
func NewResponder(store Store, llmClient llm.Client, rephraseLLM llm.Client, embedderClient embedder.Client, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		store:       store,
		llm:         llmClient,
		rephraseLLM: rephraseLLM,
		embedder:    embedderClient,
		logger:      logger,
	}
}

// Answer dispatches the question through the selected strategy.
func (r *Responder) Answer(ctx context.Context, query string, opts Options) (*Answer, error) {
	if opts.CommunityType == "" {
		opts.CommunityType = types.CommunityLeiden
	}
	if !opts.CommunityType.Valid() {
		return nil, fmt.Errorf("invalid community type: %s", opts.CommunityType)
	}

	switch opts.Strategy {
	case StrategySimilarity:
		return r.answerWithSimilarity(ctx, query, opts)
	case StrategyStructured:
		return r.answerWithGraphQuery(ctx, query)
	case StrategyCommunityGrounded:
		return r.answerWithCommunityReports(ctx, query, opts)
	case StrategySubgraph:
		return r.answerWithCommunitySubgraph(ctx, query, opts)
	case StrategyCombined:
		return r.answerCombined(ctx, query, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, opts.Strategy)
	}
}

func (r *Responder) answerWithSimilarity(ctx context.Context, query string, opts Options) (*Answer, error) {
	context := r.similarityContext(ctx, query, opts.TopK, opts.Filter, opts.UseAdjacentChunks)

	text, err := r.generate(ctx, prompts.QuestionAnswering(context, query))
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Strategy: StrategySimilarity, Context: context}, nil
}

func (r *Responder) answerWithGraphQuery(ctx context.Context, query string) (*Answer, error) {
	graphQuery, rows := r.runGraphQuery(ctx, query)

	text, err := r.generate(ctx, prompts.QuestionAnswering(formatRows(rows), query))
	if err != nil {
		return nil, err
	}
	return &Answer{
		Text:       text,
		Strategy:   StrategyStructured,
		Context:    formatRows(rows),
		GraphQuery: graphQuery,
		GraphRows:  rows,
	}, nil
}

func (r *Responder) answerWithCommunityReports(ctx context.Context, query string, opts Options) (*Answer, error) {
	var contextBuilder strings.Builder

	queryEmbedding := r.embedQuery(ctx, query)
	reports, err := r.store.SimilarReports(ctx, queryEmbedding, reportTopK, map[string]interface{}{
		"community_type": string(opts.CommunityType),
	}, reportScoreThreshold)
	if err != nil {
		r.logger.Warn("failed to retrieve community reports", "error", err)
	}
	r.logger.Info("retrieved community reports", "count", len(reports))

	for _, report := range reports {
		contextBuilder.WriteString(fmt.Sprintf("SUMMARY OF CHUNKS: \n %s \n", report.Content))

		communityID, _ := asInt(report.Metadata["community_id"])
		chunks, err := r.store.SimilarChunks(ctx, queryEmbedding, opts.TopK, map[string]interface{}{
			opts.CommunityType.Property(): communityID,
		})
		if err != nil {
			r.logger.Warn("failed to enrich context with community chunks", "community_id", communityID)
		}

		contextBuilder.WriteString("CHUNKS: \n")
		for _, hit := range chunks {
			if opts.UseAdjacentChunks {
				prev, current, next := r.store.AdjacentChunks(ctx, hit.ChunkRef(), false)
				if prev != nil {
					contextBuilder.WriteString(fmt.Sprintf("%s \n", prev.Text))
				}
				contextBuilder.WriteString(fmt.Sprintf("%s \n", current.Text))
				if next != nil {
					contextBuilder.WriteString(fmt.Sprintf("%s \n", next.Text))
				}
				continue
			}
			contextBuilder.WriteString(fmt.Sprintf("%s \n", hit.Content))
		}
	}

	context := contextBuilder.String()
	text, err := r.generate(ctx, prompts.QuestionAnswering(context, query))
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Strategy: StrategyCommunityGrounded, Context: context}, nil
}

func (r *Responder) answerWithCommunitySubgraph(ctx context.Context, query string, opts Options) (*Answer, error) {
	var contextBuilder strings.Builder

	queryEmbedding := r.embedQuery(ctx, query)
	reports, err := r.store.SimilarReports(ctx, queryEmbedding, 1, map[string]interface{}{
		"community_type": string(opts.CommunityType),
	}, 0)
	if err != nil {
		r.logger.Warn("failed to retrieve community reports", "error", err)
	}

	for _, report := range reports {
		communityID, _ := asInt(report.Metadata["community_id"])
		r.logger.Info("retrieved community report",
			"community_type", opts.CommunityType, "community_id", communityID)

		contextBuilder.WriteString(fmt.Sprintf("SUMMARY OF COMMUNITY CHUNKS: \n %s \n", report.Content))

		subgraph, err := r.store.SubgraphByCommunity(ctx, []int{communityID}, opts.CommunityType)
		if err != nil {
			r.logger.Warn("failed to fetch community subgraph", "community_id", communityID, "error", err)
		}
		contextBuilder.WriteString(fmt.Sprintf("COMMUNITY GRAPH: %v \n --------------------------------------- \n ", subgraph))
		contextBuilder.WriteString("COMMUNITY CHUNKS: ")

		chunks, err := r.store.SimilarChunks(ctx, queryEmbedding, opts.TopK, map[string]interface{}{
			opts.CommunityType.Property(): communityID,
		})
		if err != nil {
			r.logger.Warn("failed to enrich context with community chunks", "community_id", communityID)
		}

		for _, hit := range chunks {
			contextBuilder.WriteString(fmt.Sprintf(" \n --------------------------------------- \n CHUNK CONTENT: \n %s \n ", hit.Content))
			contextBuilder.WriteString("MENTIONED ENTITIES: \n")

			entities, err := r.store.MentionedEntities(ctx, hit.ChunkRef(), 1)
			if err != nil {
				r.logger.Warn("failed to fetch mentioned entities", "error", err)
			}
			for _, entity := range entities {
				if name, ok := entity["name"].(string); ok {
					contextBuilder.WriteString(fmt.Sprintf("%s \n", name))
				}
			}
		}
	}

	context := contextBuilder.String()
	text, err := r.generate(ctx, prompts.SubgraphQuestionAnswering(context, query))
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Strategy: StrategySubgraph, Context: context}, nil
}

func (r *Responder) answerCombined(ctx context.Context, query string, opts Options) (*Answer, error) {
	context := r.similarityContext(ctx, query, opts.TopK, opts.Filter, opts.UseAdjacentChunks)
	graphQuery, rows := r.runGraphQuery(ctx, query)

	text, err := r.generate(ctx, prompts.Synthesis(query, context, formatRows(rows)))
	if err != nil {
		return nil, err
	}
	return &Answer{
		Text:       text,
		Strategy:   StrategyCombined,
		Context:    context,
		GraphQuery: graphQuery,
		GraphRows:  rows,
	}, nil
}

// similarityContext assembles the plain vector search context. Every failure
// degrades to an empty contribution.
func (r *Responder) similarityContext(ctx context.Context, query string, k int, filter map[string]interface{}, useAdjacent bool) string {
	queryEmbedding := r.embedQuery(ctx, query)
	hits, err := r.store.SimilarChunks(ctx, queryEmbedding, k, filter)
	if err != nil {
		r.logger.Warn("failed to retrieve context", "error", err)
	}

	var builder strings.Builder
	for _, hit := range hits {
		if useAdjacent {
			prev, current, next := r.store.AdjacentChunks(ctx, hit.ChunkRef(), false)
			if prev != nil {
				builder.WriteString(fmt.Sprintf("\n %s", prev.Text))
			}
			builder.WriteString(fmt.Sprintf("\n %s", current.Text))
			if next != nil {
				builder.WriteString(fmt.Sprintf("\n %s", next.Text))
			}
			continue
		}
		builder.WriteString(fmt.Sprintf("\n %s", hit.Content))
	}
	return builder.String()
}

// runGraphQuery generates, validates and executes a read-only graph query.
// All failures degrade to an empty result.
func (r *Responder) runGraphQuery(ctx context.Context, query string) (string, []map[string]interface{}) {
	labels, err := r.store.Labels(ctx)
	if err != nil {
		r.logger.Warn("failed to read graph labels", "error", err)
	}
	relationships, err := r.store.RelationshipTypes(ctx)
	if err != nil {
		r.logger.Warn("failed to read relationship types", "error", err)
	}

	question := query
	if r.rephraseLLM != nil {
		response, err := r.rephraseLLM.Chat(ctx, prompts.Rephrase(labels, relationships, query))
		if err != nil {
			r.logger.Warn("failed to rephrase user question", "error", err)
		} else {
			question = strings.TrimSpace(response.Content)
			r.logger.Info("rephrased question", "question", question)
		}
	}

	response, err := r.llm.Chat(ctx, prompts.GraphQuery(labels, relationships, question))
	if err != nil {
		r.logger.Warn("failed to generate graph query", "error", err)
		return "", nil
	}
	graphQuery := cleanGraphQuery(response.Content)

	if err := validateReadOnly(graphQuery); err != nil {
		r.logger.Warn("rejected generated graph query", "error", err)
		return graphQuery, nil
	}

	rows, err := r.store.ExecuteQuery(ctx, graphQuery, nil)
	if err != nil {
		r.logger.Warn("generated graph query failed", "query", graphQuery, "error", err)
		return graphQuery, nil
	}
	return graphQuery, rows
}

// embedQuery embeds the question, degrading to nil on failure so retrieval
// simply contributes nothing.
func (r *Responder) embedQuery(ctx context.Context, query string) []float32 {
	embedding, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		r.logger.Warn("failed to embed query", "error", err)
		return nil
	}
	return embedding
}

func (r *Responder) generate(ctx context.Context, messages []types.Message) (string, error) {
	response, err := r.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return response.Content, nil
}

// validateReadOnly rejects queries containing write clauses.
func validateReadOnly(query string) error {
	if query == "" {
		return fmt.Errorf("%w: empty query", ErrMutatingQuery)
	}
	if match := mutatingClause.FindString(query); match != "" {
		return fmt.Errorf("%w: contains %s", ErrMutatingQuery, strings.ToUpper(match))
	}
	return nil
}

// cleanGraphQuery strips code fences and language tags from model output.
func cleanGraphQuery(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```cypher")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func formatRows(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", rows)
}

func asInt(v interface{}) (int, bool) {
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
