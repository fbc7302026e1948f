package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/graphista/pkg/config"
	"github.com/soundprediction/graphista/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate community summary reports",
	Long: `Report lists every community of the chosen partition, summarizes each
community's chunks with the configured language model, embeds the summaries
and stores them in the report index. Communities without chunks are skipped.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("community-type", "", "Community partition to summarize (leiden, louvain)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	communityType := types.CommunityType(cfg.QA.CommunityType)
	if flagType, _ := cmd.Flags().GetString("community-type"); flagType != "" {
		communityType = types.CommunityType(flagType)
	}

	log := buildLogger(cfg)
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize graphista: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	result, err := client.BuildReports(ctx, communityType)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d reports, skipped %d communities\n", result.Generated, result.Skipped)
	return nil
}
