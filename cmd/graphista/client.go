package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soundprediction/graphista"
	"github.com/soundprediction/graphista/pkg/config"
	"github.com/soundprediction/graphista/pkg/driver"
	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/ingestion"
	"github.com/soundprediction/graphista/pkg/llm"
	"github.com/soundprediction/graphista/pkg/logger"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/telemetry"
	"github.com/soundprediction/graphista/pkg/types"
)

// buildLogger creates the application logger, wrapping it with Parquet error
// tracking when a telemetry path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(log.Handler(), cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize error tracking: %v\n", err)
		} else {
			log = slog.New(parquetHandler)
		}
	}
	return log
}

// initializeClient builds a graphista client from loaded configuration.
func initializeClient(cfg *config.Config, log *slog.Logger) (*graphista.Client, error) {
	if cfg.Database.URI == "" {
		return nil, fmt.Errorf("database URI is required")
	}

	graphDriver, err := driver.NewNeo4jDriver(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	var usageSink llm.UsageSink
	if cfg.Telemetry.ParquetPath != "" {
		recorder, err := telemetry.NewUsageRecorder(cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize usage tracking: %v\n", err)
		} else {
			usageSink = recorder
		}
	}

	var llmClient llm.Client
	if modelCfg := cfg.LLM.Model("default"); modelCfg != nil && modelCfg.APIKey != "" {
		llmClient, err = llm.NewClient(modelCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		llmClient = llm.WithCircuitBreaker(llmClient, cfg.CircuitBreaker, "llm-default")
		llmClient = llm.WithUsageTracking(llmClient, usageSink, "default")
	}

	var rephraseClient llm.Client
	if modelCfg := cfg.LLM.Model("rephrase"); modelCfg != nil && modelCfg.APIKey != "" {
		rephraseClient, err = llm.NewClient(modelCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create rephrase llm client: %w", err)
		}
		rephraseClient = llm.WithCircuitBreaker(rephraseClient, cfg.CircuitBreaker, "llm-rephrase")
		rephraseClient = llm.WithUsageTracking(rephraseClient, usageSink, "rephrase")
	}

	var embedderClient embedder.Client
	if cfg.Embedding.APIKey != "" || cfg.Embedding.Provider == "local" {
		embedderClient, err = embedder.NewClient(&cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder client: %w", err)
		}
	}

	var ontology *types.Ontology
	if cfg.Ingestion.OntologyPath != "" {
		ontology, err = ingestion.LoadOntology(cfg.Ingestion.OntologyPath)
		if err != nil {
			return nil, err
		}
	}

	defaultStrategy := qa.StrategySimilarity
	if cfg.QA.Strategy != "" {
		defaultStrategy, err = qa.ParseStrategy(cfg.QA.Strategy)
		if err != nil {
			return nil, err
		}
	}

	clientCfg := &graphista.Config{
		ChunkSize:       cfg.Ingestion.ChunkSize,
		ChunkOverlap:    cfg.Ingestion.ChunkOverlap,
		EmbeddingsModel: cfg.Embedding.Model,
		Ontology:        ontology,
		MineGraph:       cfg.Ingestion.MineGraph,
		DocumentVersion: cfg.Ingestion.DocumentVersion,
		DefaultStrategy: defaultStrategy,
		CommunityType:   types.CommunityType(cfg.QA.CommunityType),
	}

	client, err := graphista.NewClient(graphDriver, llmClient, rephraseClient, embedderClient, clientCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphista client: %w", err)
	}
	return client, nil
}
