package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/graphista/pkg/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run community detection and centralities over the graph",
	Long: `Analyze snapshots the whole graph into memory, runs Louvain and Leiden
community detection plus PageRank, betweenness and closeness centralities,
and writes the results back onto the nodes. Every run is a full recompute.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := buildLogger(cfg)
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize graphista: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	result, err := client.RunAnalytics(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Analyzed %d nodes and %d edges, updated %d nodes\n", result.Nodes, result.Edges, result.NodesUpdated)
	if result.LouvainModularity != nil {
		fmt.Printf("Louvain modularity: %.4f\n", *result.LouvainModularity)
	}
	if result.LeidenModularity != nil {
		fmt.Printf("Leiden modularity: %.4f\n", *result.LeidenModularity)
	}
	for _, algErr := range result.AlgorithmErrors {
		fmt.Printf("Algorithm error: %v\n", algErr)
	}
	return nil
}
