package openai

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

const testAPIKey = "test-api-key"

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.APIKey = testAPIKey
	config.BaseURL = server.URL
	config.MaxRetries = 0
	config.RetryDelay = time.Millisecond

	provider, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return provider
}

func TestProvider_New(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "nil config uses defaults",
			config:  nil,
			wantErr: true, // no API key
		},
		{
			name: "valid config",
			config: func() *Config {
				c := DefaultConfig()
				c.APIKey = testAPIKey
				return c
			}(),
		},
		{
			name: "invalid base URL",
			config: &Config{
				APIKey:       testAPIKey,
				BaseURL:      "http://[::1]:namedport",
				DefaultModel: DefaultModel,
				MaxTokens:    DefaultMaxTokens,
				Timeout:      DefaultTimeout,
			},
			wantErr: true,
		},
		{
			name:    "missing API key",
			config:  &Config{BaseURL: DefaultBaseURL},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && provider == nil {
				t.Error("New() returned nil provider without error")
			}
			if provider != nil {
				_ = provider.Close()
			}
		})
	}
}

func TestProvider_Complete(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+testAPIKey {
			t.Errorf("Unexpected Authorization header %q", auth)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Unexpected messages %+v", req.Messages)
		}
		if req.Seed == nil || *req.Seed != 7 {
			t.Errorf("Expected seed 7, got %v", req.Seed)
		}

		_ = json.NewEncoder(w).Encode(ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Model:   req.Model,
			Created: 1700000000,
			Choices: []ChatCompletionChoice{{
				Message:      ChatMessage{Role: "assistant", Content: " he fixed the sink."},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 12, CompletionTokens: 6, TotalTokens: 18},
		})
	})

	resp, err := provider.Complete(context.Background(), &ai.CompletionRequest{
		Prompt:       "The plumber said that",
		SystemPrompt: "Continue the sentence.",
		Seed:         7,
		RequestID:    "r1",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Content != " he fixed the sink." || resp.FinishReason != "stop" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.Model != DefaultModel || resp.RequestID != "r1" {
		t.Errorf("Unexpected model/request id %s/%s", resp.Model, resp.RequestID)
	}
	if resp.Usage.TotalTokens != 18 {
		t.Errorf("TotalTokens = %d, want 18", resp.Usage.TotalTokens)
	}
}

func TestProvider_Embed(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("Expected path /v1/embeddings, got %s", r.URL.Path)
		}

		var req EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != DefaultEmbeddingModel {
			t.Errorf("Expected model %s, got %s", DefaultEmbeddingModel, req.Model)
		}

		// out of order on purpose
		_ = json.NewEncoder(w).Encode(EmbeddingResponse{
			Model: req.Model,
			Data: []EmbeddingData{
				{Index: 1, Embedding: []float32{0, 1}},
				{Index: 0, Embedding: []float32{1, 0}},
			},
			Usage: Usage{PromptTokens: 2, TotalTokens: 2},
		})
	})

	resp, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"king", "queen"}})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if resp.Embeddings[0][0] != 1 || resp.Embeddings[1][1] != 1 {
		t.Errorf("embeddings not ordered by index: %v", resp.Embeddings)
	}
}

func TestEmbeddingResponse_InvalidIndices(t *testing.T) {
	tests := []struct {
		name string
		data []EmbeddingData
	}{
		{name: "too few", data: []EmbeddingData{{Index: 0}}},
		{name: "duplicate", data: []EmbeddingData{{Index: 0, Embedding: []float32{1}}, {Index: 0, Embedding: []float32{2}}}},
		{name: "out of range", data: []EmbeddingData{{Index: 0}, {Index: 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &EmbeddingResponse{Data: tt.data}
			if _, err := r.ToAIResponse(2); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProvider_ErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType ai.ErrorType
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantType: ai.ErrTypeAuthentication},
		{name: "rate limited", status: http.StatusTooManyRequests, wantType: ai.ErrTypeRateLimit},
		{name: "bad request", status: http.StatusBadRequest, wantType: ai.ErrTypeValidation},
		{name: "unknown model", status: http.StatusNotFound, wantType: ai.ErrTypeModelUnavailable},
		{name: "server error", status: http.StatusBadGateway, wantType: ai.ErrTypeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Message: "nope"}})
			})

			_, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"x"}})
			var providerErr *ai.ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T: %v", err, err)
			}
			if providerErr.Type != tt.wantType || providerErr.StatusCode != tt.status {
				t.Errorf("got type=%s status=%d, want %s/%d", providerErr.Type, providerErr.StatusCode, tt.wantType, tt.status)
			}
			if providerErr.Message != "nope" {
				t.Errorf("message = %q, want nope", providerErr.Message)
			}
			if tt.status == http.StatusTooManyRequests && providerErr.RetryAfter != 3 {
				t.Errorf("RetryAfter = %d, want 3", providerErr.RetryAfter)
			}
		})
	}
}

func TestProvider_RetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(EmbeddingResponse{Data: []EmbeddingData{{Index: 0, Embedding: []float32{1}}}})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIKey = testAPIKey
	config.BaseURL = server.URL
	config.MaxRetries = 3
	config.RetryDelay = time.Millisecond

	provider, err := New(config)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := provider.Embed(context.Background(), &ai.EmbeddingRequest{Input: []string{"doctor"}}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("Expected path /v1/models, got %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(ModelListResponse{Data: []Model{{ID: DefaultEmbeddingModel}}})
	})

	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if !provider.IsHealthy() {
		t.Error("expected healthy provider")
	}
}

func TestProvider_ContextCancelled(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Embed(ctx, &ai.EmbeddingRequest{Input: []string{"x"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	if f.Type() != "openai" {
		t.Errorf("Type() = %s", f.Type())
	}
	if err := f.ValidateConfig(f.DefaultConfig()); !ai.IsConfigurationError(err) {
		t.Errorf("default config without key should fail, got %v", err)
	}

	pc := f.DefaultConfig()
	pc.APIKey = testAPIKey
	pc.Options["organization_id"] = "org-1"
	c := FromProviderConfig(pc)
	if c.OrganizationID != "org-1" || c.EmbeddingModel != DefaultEmbeddingModel {
		t.Errorf("FromProviderConfig() = %+v", c)
	}

	registry := ai.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.GetWithConfig("openai", pc); err != nil {
		t.Errorf("GetWithConfig() error = %v", err)
	}
}
