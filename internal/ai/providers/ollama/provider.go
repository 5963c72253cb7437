package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yildizm/wordbias/internal/ai"
)

// Provider talks to a local Ollama server for completions and embeddings
type Provider struct {
	config     *Config
	client     *http.Client
	baseURL    *url.URL
	healthy    bool
	healthMu   sync.RWMutex
	lastHealth time.Time
}

// New creates a new Ollama provider instance
func New(config *Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, ai.NewConfigurationError("ollama", "base_url", "invalid base URL: "+err.Error())
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "ollama"
}

// EmbeddingModel returns the configured embedding model
func (p *Provider) EmbeddingModel() string {
	return p.config.EmbeddingModel
}

// MaxTokens returns the maximum context window size
func (p *Provider) MaxTokens() int {
	return p.config.MaxTokens
}

// ValidateConfig validates the provider configuration
func (p *Provider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up provider resources
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Complete performs a non-streaming generation
func (p *Provider) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.DefaultTemperature
	}

	ollamaReq := &GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
		Options: &Options{
			Temperature: temperature,
			NumPredict:  req.MaxTokens,
			Seed:        req.Seed,
		},
	}

	var resp GenerateResponse
	if err := p.postWithRetry(ctx, "/api/generate", ollamaReq, &resp); err != nil {
		return nil, err
	}

	finish := resp.DoneReason
	if finish == "" {
		finish = "stop"
	}

	return &ai.CompletionResponse{
		Content:      resp.Response,
		FinishReason: finish,
		Usage: &ai.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
		Model:     resp.Model,
		RequestID: req.RequestID,
		CreatedAt: startTime,
	}, nil
}

// Embed embeds every input with a single /api/embed call
func (p *Provider) Embed(ctx context.Context, req *ai.EmbeddingRequest) (*ai.EmbeddingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.config.EmbeddingModel
	}
	if model == "" {
		return nil, ai.NewConfigurationError("ollama", "embedding_model", "no embedding model configured")
	}

	var resp EmbedResponse
	if err := p.postWithRetry(ctx, "/api/embed", &EmbedRequest{Model: model, Input: req.Input, Truncate: true}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(req.Input) {
		return nil, ai.NewProviderError(ai.ErrTypeProvider,
			fmt.Sprintf("expected %d embeddings, got %d", len(req.Input), len(resp.Embeddings)), "ollama")
	}

	return &ai.EmbeddingResponse{
		Model:      model,
		Embeddings: resp.Embeddings,
		Usage:      &ai.TokenUsage{PromptTokens: resp.PromptEvalCount, TotalTokens: resp.PromptEvalCount},
	}, nil
}

// HealthCheck verifies provider connectivity and status
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.ListModels(ctx)
	p.setHealthy(err == nil)
	return err
}

// IsHealthy returns current health status
func (p *Provider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.healthy
}

func (p *Provider) setHealthy(healthy bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()
	p.healthy = healthy
	p.lastHealth = time.Now()
}

// ListModels returns the locally installed models
func (p *Provider) ListModels(ctx context.Context) ([]Model, error) {
	endpoint := p.baseURL.JoinPath("/api/tags")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), http.NoBody)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "ollama", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var tagsResp TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode response", "ollama", err)
	}

	return tagsResp.Models, nil
}

// IsModelAvailable checks if a model is installed, with or without a tag
func (p *Provider) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return false, err
	}

	for _, model := range models {
		if model.Name == modelName || strings.HasPrefix(model.Name, modelName+":") {
			return true, nil
		}
	}

	return false, nil
}

func (p *Provider) postWithRetry(ctx context.Context, path string, body, out interface{}) error {
	retry := &ai.RetryConfig{
		MaxRetries:   p.config.RetryAttempts,
		InitialDelay: p.config.RetryDelay,
		MaxDelay:     30 * time.Second,
	}
	return ai.WithRetry(ctx, retry, func(ctx context.Context) error {
		return p.post(ctx, path, body, out)
	})
}

func (p *Provider) post(ctx context.Context, path string, body, out interface{}) error {
	endpoint := p.baseURL.JoinPath(path)

	jsonData, err := json.Marshal(body)
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "ollama", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(jsonData))
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "ollama", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return p.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode response", "ollama", err)
	}
	return nil
}

func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	var errorResp ErrorResponse
	if json.Unmarshal(body, &errorResp) == nil && errorResp.Error != "" {
		message = errorResp.Error
	}

	var providerErr *ai.ProviderError
	switch {
	case resp.StatusCode == http.StatusNotFound && strings.Contains(message, "not found"):
		providerErr = ai.NewProviderError(ai.ErrTypeModelUnavailable, message, "ollama")
	case resp.StatusCode == http.StatusBadRequest:
		providerErr = ai.NewProviderError(ai.ErrTypeValidation, message, "ollama")
	case resp.StatusCode >= 500:
		providerErr = ai.NewProviderError(ai.ErrTypeProvider, message, "ollama")
		providerErr.Retryable = true
	default:
		providerErr = ai.NewProviderError(ai.ErrTypeProvider, message, "ollama")
	}
	providerErr.StatusCode = resp.StatusCode
	return providerErr
}
