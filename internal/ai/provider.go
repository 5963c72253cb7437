package ai

import (
	"context"
)

// LLMProvider generates text. The generative probe uses it.
type LLMProvider interface {
	// Name returns the provider name (e.g., "openai", "ollama")
	Name() string

	// Complete performs a single non-streaming completion
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// MaxTokens returns the maximum context window size
	MaxTokens() int

	// ValidateConfig validates the provider configuration
	ValidateConfig() error

	// Close cleans up provider resources
	Close() error
}

// EmbeddingProvider turns texts into dense vectors
type EmbeddingProvider interface {
	Name() string

	// Embed returns one vector per input, in input order
	Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)

	// EmbeddingModel returns the model used when a request names none
	EmbeddingModel() string

	Close() error
}

// HealthChecker provides health checking capabilities
type HealthChecker interface {
	// HealthCheck verifies provider connectivity and status
	HealthCheck(ctx context.Context) error

	// IsHealthy returns the result of the last health check
	IsHealthy() bool
}

// Provider combines all provider capabilities
type Provider interface {
	LLMProvider
	EmbeddingProvider
	HealthChecker
}
