package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/graphista/pkg/config"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the graph",
	Long: `Ask answers a question with one of the retrieval strategies:

  similarity  chunk vector search alone
  structured  a generated, read-only graph query
  community   community reports plus community-filtered chunks
  subgraph    the top community's report, subgraph and mentioned entities
  combined    similarity context synthesized with structured results`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("strategy", "", "Retrieval strategy (defaults to config)")
	askCmd.Flags().String("community-type", "", "Community partition for community strategies (leiden, louvain)")
	askCmd.Flags().Int("top-k", 0, "Number of chunks to retrieve")
	askCmd.Flags().Bool("adjacent", false, "Expand retrieved chunks with their neighbors")
	askCmd.Flags().Bool("show-context", false, "Print the retrieved context before the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	question := strings.Join(args, " ")

	log := buildLogger(cfg)
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize graphista: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	var opts *qa.Options
	if flagStrategy, _ := cmd.Flags().GetString("strategy"); flagStrategy != "" {
		strategy, err := qa.ParseStrategy(flagStrategy)
		if err != nil {
			return err
		}
		communityType, _ := cmd.Flags().GetString("community-type")
		topK, _ := cmd.Flags().GetInt("top-k")
		adjacent, _ := cmd.Flags().GetBool("adjacent")
		opts = &qa.Options{
			Strategy:          strategy,
			CommunityType:     types.CommunityType(communityType),
			TopK:              topK,
			UseAdjacentChunks: adjacent,
		}
	}

	answer, err := client.Answer(ctx, question, opts)
	if err != nil {
		return err
	}

	if show, _ := cmd.Flags().GetBool("show-context"); show && answer.Context != "" {
		fmt.Println("--- context ---")
		fmt.Println(answer.Context)
		fmt.Println("--- answer ---")
	}
	fmt.Println(answer.Text)
	return nil
}
