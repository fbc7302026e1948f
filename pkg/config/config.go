package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/soundprediction/graphista/pkg/embedder"
	"github.com/soundprediction/graphista/pkg/llm"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Embedding configuration
	Embedding embedder.Config `mapstructure:"embedding"`

	// Ingestion configuration
	Ingestion IngestionConfig `mapstructure:"ingestion"`

	// QA configuration
	QA QAConfig `mapstructure:"qa"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker llm.BreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds Neo4j connection configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// LLMConfig holds the model configurations by role. The "default" model
// serves extraction, summarization and question answering; an optional
// "rephrase" model rewrites questions before Cypher generation.
type LLMConfig struct {
	Models map[string]llm.Config `mapstructure:"models"`
}

// Model returns the configuration for a role, or nil if absent.
func (c LLMConfig) Model(role string) *llm.Config {
	if model, ok := c.Models[role]; ok {
		return &model
	}
	return nil
}

// IngestionConfig holds document ingestion configuration
type IngestionConfig struct {
	SourceFolder    string `mapstructure:"source_folder"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	ChunkOverlap    int    `mapstructure:"chunk_overlap"`
	OntologyPath    string `mapstructure:"ontology_path"`
	DocumentVersion int    `mapstructure:"document_version"`
	MineGraph       bool   `mapstructure:"mine_graph"`
}

// QAConfig holds question answering defaults
type QAConfig struct {
	Strategy          string `mapstructure:"strategy"`
	CommunityType     string `mapstructure:"community_type"`
	TopK              int    `mapstructure:"top_k"`
	UseAdjacentChunks bool   `mapstructure:"use_adjacent_chunks"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	viper.SetDefault("llm.models.default.provider", "openai")
	viper.SetDefault("llm.models.default.model", "gpt-4o-mini")
	viper.SetDefault("llm.models.default.temperature", 0.0)
	viper.SetDefault("llm.models.default.max_tokens", 2048)

	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", embedder.DefaultModel)
	viper.SetDefault("embedding.dimensions", embedder.DefaultDimensions)

	// Ingestion defaults
	viper.SetDefault("ingestion.chunk_size", 1000)
	viper.SetDefault("ingestion.chunk_overlap", 100)
	viper.SetDefault("ingestion.document_version", 1)
	viper.SetDefault("ingestion.mine_graph", true)

	// QA defaults
	viper.SetDefault("qa.strategy", "similarity")
	viper.SetDefault("qa.community_type", "leiden")
	viper.SetDefault("qa.top_k", 4)
	viper.SetDefault("qa.use_adjacent_chunks", false)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.graphista/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Initialize Models map if nil
	if config.LLM.Models == nil {
		config.LLM.Models = make(map[string]llm.Config)
	}

	// Helper to get or create model config
	getModel := func(name string) llm.Config {
		if c, ok := config.LLM.Models[name]; ok {
			return c
		}
		return llm.Config{}
	}

	// Update default model from env
	defaultModel := getModel("default")
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		defaultModel.APIKey = apiKey
	}
	config.LLM.Models["default"] = defaultModel

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}

	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Ingestion settings
	if folder := os.Getenv("GRAPHISTA_SOURCE_FOLDER"); folder != "" {
		config.Ingestion.SourceFolder = folder
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
