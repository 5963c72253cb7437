package ollama

import (
	"time"

	"github.com/yildizm/wordbias/internal/ai"
)

// Config holds Ollama-specific configuration
type Config struct {
	// BaseURL is the Ollama API endpoint
	BaseURL string `json:"base_url"`

	// DefaultModel is the completion model used by the generative probe
	DefaultModel string `json:"default_model"`

	// EmbeddingModel is used for contextual embeddings
	EmbeddingModel string `json:"embedding_model"`

	// Timeout for HTTP requests
	Timeout time.Duration `json:"timeout"`

	// MaxTokens is the maximum context window size
	MaxTokens int `json:"max_tokens"`

	// DefaultTemperature for requests
	DefaultTemperature float64 `json:"default_temperature"`

	// RetryAttempts for failed requests
	RetryAttempts int `json:"retry_attempts"`

	// RetryDelay between retry attempts
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultConfig returns a default Ollama configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "http://localhost:11434",
		DefaultModel:       "llama3.2",
		EmbeddingModel:     "nomic-embed-text",
		Timeout:            60 * time.Second,
		MaxTokens:          4096,
		DefaultTemperature: 0.7,
		RetryAttempts:      3,
		RetryDelay:         1 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ai.NewConfigurationError("ollama", "base_url", "base URL is required")
	}

	if c.DefaultModel == "" && c.EmbeddingModel == "" {
		return ai.NewConfigurationError("ollama", "default_model", "a completion or embedding model is required")
	}

	if c.Timeout <= 0 {
		return ai.NewConfigurationError("ollama", "timeout", "timeout must be positive")
	}

	if c.MaxTokens <= 0 {
		return ai.NewConfigurationError("ollama", "max_tokens", "max tokens must be positive")
	}

	if c.DefaultTemperature < 0 || c.DefaultTemperature > 2 {
		return ai.NewConfigurationError("ollama", "default_temperature", "temperature must be between 0 and 2")
	}

	if c.RetryAttempts < 0 {
		return ai.NewConfigurationError("ollama", "retry_attempts", "retry attempts must be non-negative")
	}

	return nil
}

// ToProviderConfig converts Ollama config to generic provider config
func (c *Config) ToProviderConfig() *ai.ProviderConfig {
	return &ai.ProviderConfig{
		Name:               "ollama",
		Type:               "ollama",
		BaseURL:            c.BaseURL,
		DefaultModel:       c.DefaultModel,
		EmbeddingModel:     c.EmbeddingModel,
		MaxTokens:          c.MaxTokens,
		DefaultTemperature: c.DefaultTemperature,
		Timeout:            c.Timeout,
		RetryConfig: &ai.RetryConfig{
			MaxRetries:   c.RetryAttempts,
			InitialDelay: c.RetryDelay,
			MaxDelay:     30 * time.Second,
		},
	}
}

// FromProviderConfig creates Ollama config from generic provider config
func FromProviderConfig(pc *ai.ProviderConfig) *Config {
	config := DefaultConfig()

	if pc.BaseURL != "" {
		config.BaseURL = pc.BaseURL
	}

	if pc.DefaultModel != "" {
		config.DefaultModel = pc.DefaultModel
	}

	if pc.EmbeddingModel != "" {
		config.EmbeddingModel = pc.EmbeddingModel
	}

	if pc.MaxTokens > 0 {
		config.MaxTokens = pc.MaxTokens
	}

	if pc.DefaultTemperature > 0 {
		config.DefaultTemperature = pc.DefaultTemperature
	}

	if pc.Timeout > 0 {
		config.Timeout = pc.Timeout
	}

	if pc.RetryConfig != nil {
		config.RetryAttempts = pc.RetryConfig.MaxRetries
		if pc.RetryConfig.InitialDelay > 0 {
			config.RetryDelay = pc.RetryConfig.InitialDelay
		}
	}

	return config
}
