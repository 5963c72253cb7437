package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/yildizm/wordbias/internal/ai"
)

type Provider struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	healthy bool
	mu      sync.RWMutex
}

func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, ai.NewConfigurationError("openai", "base_url", fmt.Sprintf("invalid base URL: %v", err))
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
		healthy: true,
	}, nil
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) EmbeddingModel() string {
	return p.config.EmbeddingModel
}

func (p *Provider) MaxTokens() int {
	return p.config.MaxTokens
}

func (p *Provider) ValidateConfig() error {
	return p.config.Validate()
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	chatReq := p.buildChatRequest(req)

	var response ChatCompletionResponse
	if err := p.postJSON(ctx, "/v1/chat/completions", chatReq, &response); err != nil {
		return nil, err
	}

	return response.ToAIResponse(req.RequestID), nil
}

func (p *Provider) Embed(ctx context.Context, req *ai.EmbeddingRequest) (*ai.EmbeddingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.config.EmbeddingModel
	}

	embReq := &EmbeddingRequest{
		Model:          model,
		Input:          req.Input,
		EncodingFormat: "float",
	}

	var response EmbeddingResponse
	if err := p.postJSON(ctx, "/v1/embeddings", embReq, &response); err != nil {
		return nil, err
	}

	return response.ToAIResponse(len(req.Input))
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.GetModels(ctx)
	p.setHealthy(err == nil)
	return err
}

func (p *Provider) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy
}

func (p *Provider) setHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// GetModels lists the model IDs visible to the API key
func (p *Provider) GetModels(ctx context.Context) ([]Model, error) {
	endpoint := p.baseURL.JoinPath("/v1/models")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), http.NoBody)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create models request", "openai", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "models request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var modelResp ModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode models response", "openai", err)
	}

	return modelResp.Data, nil
}

func (p *Provider) buildChatRequest(req *ai.CompletionRequest) *ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.DefaultTemperature
	}

	chatReq := &ChatCompletionRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	}
	if req.Seed != 0 {
		seed := req.Seed
		chatReq.Seed = &seed
	}
	chatReq.ToMessages(req.SystemPrompt, req.Prompt)

	return chatReq
}

func (p *Provider) postJSON(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "openai", err)
	}

	endpoint := p.baseURL.JoinPath(path)
	resp, err := p.doRequestWithRetry(ctx, endpoint.String(), jsonData)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return p.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode response", "openai", err)
	}
	return nil
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	if p.config.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", p.config.OrganizationID)
	}
}

// doRequestWithRetry retries network failures, 429 and 5xx responses.
// The final response is returned to the caller unread whatever its status.
func (p *Provider) doRequestWithRetry(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	delay := p.config.RetryDelay

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "openai", err)
		}
		p.setHeaders(req)

		last := attempt >= p.config.MaxRetries
		resp, err := p.client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if last {
				return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed after retries", "openai", err)
			}
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if last {
				return resp, nil
			}
			if wait := retryAfter(resp); wait > 0 {
				delay = wait
			}
			_ = resp.Body.Close()
		default:
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func (p *Provider) handleErrorResponse(resp *http.Response) error {
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var errorResp ErrorResponse
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Error.Message != "" {
			message = errorResp.Error.Message
		}
	}

	var providerErr *ai.ProviderError
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		providerErr = ai.NewProviderError(ai.ErrTypeAuthentication, message, "openai")
	case resp.StatusCode == http.StatusTooManyRequests:
		providerErr = ai.NewProviderError(ai.ErrTypeRateLimit, message, "openai")
		providerErr.RetryAfter = int(retryAfter(resp) / time.Second)
	case resp.StatusCode == http.StatusBadRequest:
		providerErr = ai.NewProviderError(ai.ErrTypeValidation, message, "openai")
	case resp.StatusCode == http.StatusNotFound:
		providerErr = ai.NewProviderError(ai.ErrTypeModelUnavailable, message, "openai")
	default:
		providerErr = ai.NewProviderError(ai.ErrTypeProvider, message, "openai")
	}
	providerErr.StatusCode = resp.StatusCode
	return providerErr
}
