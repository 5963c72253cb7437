package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yildizm/wordbias/internal/ai"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryAttempts = 0
	config.RetryDelay = time.Millisecond

	provider, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestProvider_New(t *testing.T) {
	config := DefaultConfig()

	provider, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if provider.Name() != "ollama" {
		t.Errorf("Expected provider name 'ollama', got '%s'", provider.Name())
	}
	if provider.EmbeddingModel() != "nomic-embed-text" {
		t.Errorf("Expected embedding model 'nomic-embed-text', got '%s'", provider.EmbeddingModel())
	}
	if provider.MaxTokens() != config.MaxTokens {
		t.Errorf("Expected max tokens %d, got %d", config.MaxTokens, provider.MaxTokens())
	}

	var _ ai.Provider = provider
}

func TestProvider_Complete(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path '/api/generate', got '%s'", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("Expected POST method, got '%s'", r.Method)
		}

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if req.Options == nil || req.Options.Seed != 42 || req.Options.NumPredict != 20 {
			t.Errorf("Unexpected options: %+v", req.Options)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GenerateResponse{
			Model:           req.Model,
			Response:        " she was tired.",
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       5,
		})
	})

	resp, err := provider.Complete(context.Background(), &ai.CompletionRequest{
		Prompt:    "The nurse said that",
		MaxTokens: 20,
		Seed:      42,
	})
	if err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}

	if resp.Content != " she was tired." {
		t.Errorf("Unexpected content %q", resp.Content)
	}
	if resp.Model != "llama3.2" {
		t.Errorf("Expected default model, got %q", resp.Model)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("Expected total tokens 15, got %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got %q", resp.FinishReason)
	}
}

func TestProvider_Embed(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("Expected path '/api/embed', got '%s'", r.URL.Path)
		}

		var req EmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("Expected embedding model, got %q", req.Model)
		}

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i), 1, 0}
		}
		_ = json.NewEncoder(w).Encode(EmbedResponse{Model: req.Model, Embeddings: embeddings, PromptEvalCount: 4})
	})

	resp, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"he", "she"}})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(resp.Embeddings) != 2 || resp.Embeddings[1][0] != 1 {
		t.Errorf("Unexpected embeddings %v", resp.Embeddings)
	}
	if resp.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", resp.Dimension())
	}

	if _, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{}); !ai.IsValidationError(err) {
		t.Errorf("Expected validation error for empty input, got %v", err)
	}
}

func TestProvider_EmbedCountMismatch(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbedResponse{Embeddings: [][]float32{{1}}})
	})

	if _, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"a", "b"}}); err == nil {
		t.Error("Expected error when server returns fewer embeddings than inputs")
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Expected path '/api/tags', got '%s'", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(TagsResponse{Models: []Model{{Name: "nomic-embed-text:latest"}}})
	})

	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	if !provider.IsHealthy() {
		t.Error("Expected provider to be healthy")
	}

	ok, err := provider.IsModelAvailable(context.Background(), "nomic-embed-text")
	if err != nil || !ok {
		t.Errorf("IsModelAvailable() = %v, %v; want true", ok, err)
	}
	ok, _ = provider.IsModelAvailable(context.Background(), "llama3.2")
	if ok {
		t.Error("Expected llama3.2 to be unavailable")
	}
}

func TestProvider_ErrorHandling(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		message   string
		wantType  ai.ErrorType
		retryable bool
	}{
		{name: "server error", status: http.StatusInternalServerError, message: "boom", wantType: ai.ErrTypeProvider, retryable: true},
		{name: "missing model", status: http.StatusNotFound, message: `model "x" not found, try pulling it first`, wantType: ai.ErrTypeModelUnavailable},
		{name: "bad request", status: http.StatusBadRequest, message: "invalid input", wantType: ai.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(ErrorResponse{Error: tt.message})
			})

			_, err := provider.Complete(context.Background(), &ai.CompletionRequest{Prompt: "Test prompt"})
			var providerErr *ai.ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("Expected ProviderError, got %T", err)
			}
			if providerErr.Provider != "ollama" || providerErr.Type != tt.wantType {
				t.Errorf("Got provider=%s type=%s, want ollama/%s", providerErr.Provider, providerErr.Type, tt.wantType)
			}
			if providerErr.StatusCode != tt.status || providerErr.Retryable != tt.retryable {
				t.Errorf("Got status=%d retryable=%v", providerErr.StatusCode, providerErr.Retryable)
			}
		})
	}
}

func TestProvider_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(EmbedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryAttempts = 2
	config.RetryDelay = time.Millisecond

	provider, err := New(config)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"nurse"}}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "empty base URL", mutate: func(c *Config) { c.BaseURL = "" }, expectError: true},
		{name: "no models", mutate: func(c *Config) { c.DefaultModel, c.EmbeddingModel = "", "" }, expectError: true},
		{name: "embedding model only", mutate: func(c *Config) { c.DefaultModel = "" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, expectError: true},
		{name: "invalid temperature", mutate: func(c *Config) { c.DefaultTemperature = 2.5 }, expectError: true},
		{name: "negative retries", mutate: func(c *Config) { c.RetryAttempts = -1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no validation error, got: %v", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	registry := ai.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	pc := NewFactory().DefaultConfig()
	pc.EmbeddingModel = "mxbai-embed-large"
	provider, err := registry.GetWithConfig("ollama", pc)
	if err != nil {
		t.Fatalf("GetWithConfig() error = %v", err)
	}
	if provider.EmbeddingModel() != "mxbai-embed-large" {
		t.Errorf("EmbeddingModel() = %q", provider.EmbeddingModel())
	}

	if err := NewFactory().ValidateConfig(&ai.ProviderConfig{Type: "openai"}); err == nil {
		t.Error("Expected type mismatch error")
	}
}
