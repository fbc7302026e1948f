package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/graphista/pkg/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Ingest a folder of text documents into the graph",
	Long: `Ingest reads every text file under the folder, cleans and chunks the
text, embeds the chunks, mines entities and relationships, and writes the
result into the graph. Individual document failures are logged and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().Int("version", 0, "Document version to assign (defaults to config)")
	ingestCmd.Flags().Int("chunk-size", 0, "Chunk size in characters (defaults to config)")
	ingestCmd.Flags().Int("chunk-overlap", 0, "Chunk overlap in characters (defaults to config)")
	ingestCmd.Flags().String("ontology", "", "Path to a YAML ontology restricting graph mining")
	ingestCmd.Flags().Bool("no-mining", false, "Skip entity and relationship mining")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	folder := cfg.Ingestion.SourceFolder
	if len(args) > 0 {
		folder = args[0]
	}
	if folder == "" {
		return fmt.Errorf("no folder given and ingestion.source_folder not configured")
	}

	if v, _ := cmd.Flags().GetInt("version"); v > 0 {
		cfg.Ingestion.DocumentVersion = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-size"); v > 0 {
		cfg.Ingestion.ChunkSize = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-overlap"); v > 0 {
		cfg.Ingestion.ChunkOverlap = v
	}
	if path, _ := cmd.Flags().GetString("ontology"); path != "" {
		cfg.Ingestion.OntologyPath = path
	}
	if skip, _ := cmd.Flags().GetBool("no-mining"); skip {
		cfg.Ingestion.MineGraph = false
	}

	log := buildLogger(cfg)
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize graphista: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	result, err := client.Ingest(ctx, folder)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d documents, skipped %d\n", result.Ingested, result.Skipped)
	return nil
}
