package ai

import (
	"fmt"
	"time"
)

// CompletionRequest represents a request for text completion
type CompletionRequest struct {
	// Prompt is the input text for completion
	Prompt string `json:"prompt"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// SystemPrompt provides system-level instructions
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Model specifies which model to use (provider-specific)
	Model string `json:"model,omitempty"`

	// Seed makes sampling reproducible where the provider supports it
	Seed int `json:"seed,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Validate checks the request before it is sent
func (r *CompletionRequest) Validate() error {
	if r == nil {
		return NewValidationError("request", "nil", "completion request is required")
	}
	if r.Prompt == "" {
		return NewValidationError("prompt", "", "prompt is required")
	}
	if r.MaxTokens < 0 {
		return NewValidationError("max_tokens", fmt.Sprint(r.MaxTokens), "max tokens must be non-negative")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return NewValidationError("temperature", fmt.Sprint(r.Temperature), "temperature must be between 0 and 2")
	}
	return nil
}

// CompletionResponse represents the response from a completion request
type CompletionResponse struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage"`
	Model        string      `json:"model"`
	RequestID    string      `json:"request_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EmbeddingRequest asks for vectors for a batch of texts
type EmbeddingRequest struct {
	// Model overrides the provider's embedding model
	Model string `json:"model,omitempty"`

	// Input is embedded element-wise
	Input []string `json:"input"`
}

// Validate checks the request before it is sent
func (r *EmbeddingRequest) Validate() error {
	if r == nil {
		return NewValidationError("request", "nil", "embedding request is required")
	}
	if len(r.Input) == 0 {
		return NewValidationError("input", "", "at least one input is required")
	}
	for i, in := range r.Input {
		if in == "" {
			return NewValidationError("input", fmt.Sprintf("[%d]", i), "inputs must be non-empty")
		}
	}
	return nil
}

// EmbeddingResponse holds one vector per input
type EmbeddingResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
	Usage      *TokenUsage `json:"usage,omitempty"`
}

// Dimension returns the vector length, or 0 for an empty response
func (r *EmbeddingResponse) Dimension() int {
	if r == nil || len(r.Embeddings) == 0 {
		return 0
	}
	return len(r.Embeddings[0])
}

// ProviderConfig contains configuration for a provider
type ProviderConfig struct {
	// Name is the provider identifier
	Name string `json:"name"`

	// Type is the provider type (openai, ollama)
	Type string `json:"type"`

	// APIKey for authentication
	APIKey string `json:"api_key,omitempty"`

	// BaseURL for the API endpoint
	BaseURL string `json:"base_url,omitempty"`

	// DefaultModel is the completion model
	DefaultModel string `json:"default_model,omitempty"`

	// EmbeddingModel is the embedding model
	EmbeddingModel string `json:"embedding_model,omitempty"`

	// MaxTokens is the maximum context window
	MaxTokens int `json:"max_tokens,omitempty"`

	// DefaultTemperature for requests
	DefaultTemperature float64 `json:"default_temperature,omitempty"`

	// Timeout for requests
	Timeout time.Duration `json:"timeout,omitempty"`

	// RetryConfig for handling failures
	RetryConfig *RetryConfig `json:"retry_config,omitempty"`

	// Provider-specific options
	Options map[string]interface{} `json:"options,omitempty"`
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int `json:"max_retries"`

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration `json:"initial_delay"`

	// MaxDelay caps the backoff
	MaxDelay time.Duration `json:"max_delay"`
}
