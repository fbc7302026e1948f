package llm

import "fmt"

// Provider identifies a text generation backend.
type Provider string

const (
	// ProviderOpenAI is the OpenAI API or any OpenAI-compatible endpoint
	// (Azure deployments and local Ollama servers included, via BaseURL).
	ProviderOpenAI Provider = "openai"
	// ProviderAzureOpenAI is an Azure-hosted OpenAI deployment.
	ProviderAzureOpenAI Provider = "azure-openai"
	// ProviderOllama is a local Ollama server speaking the OpenAI protocol.
	ProviderOllama Provider = "ollama"
)

// Config enumerates everything needed to reach a generation provider. No
// behavior beyond the Client operations is assumed of the provider.
type Config struct {
	Provider    Provider `json:"provider" mapstructure:"provider"`
	Model       string   `json:"model" mapstructure:"model"`
	APIKey      string   `json:"api_key" mapstructure:"api_key"`
	BaseURL     string   `json:"base_url" mapstructure:"base_url"`
	Deployment  string   `json:"deployment" mapstructure:"deployment"`
	APIVersion  string   `json:"api_version" mapstructure:"api_version"`
	Temperature float32  `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int      `json:"max_tokens" mapstructure:"max_tokens"`
}

// NewClient builds a Client for the configured provider.
func NewClient(config *Config) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("llm config is nil")
	}

	switch config.Provider {
	case ProviderOpenAI, ProviderOllama, "":
		return NewOpenAIClient(config)
	case ProviderAzureOpenAI:
		return NewAzureOpenAIClient(config)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.Provider)
	}
}
