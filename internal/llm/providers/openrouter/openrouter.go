// Package openrouter is the default Provider adapter: it talks to the
// OpenRouter gateway, which fronts most of the models a council roster
// would name (anthropic/*, openai/*, google/*, meta-llama/*, ...) behind a
// single OpenAI-compatible /chat/completions endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/superagent/llmcouncil/internal/llm"
	"github.com/superagent/llmcouncil/internal/models"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Provider implements llm.Provider against the OpenRouter gateway. Retry
// behavior is delegated to llm.RetryableHTTPClient, so the adapter carries
// no backoff-with-jitter loop of its own.
type Provider struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	httpClient *llm.RetryableHTTPClient
}

// New creates a new OpenRouter provider with default retry behavior.
func New(apiKey string) *Provider {
	return NewWithRetry(apiKey, defaultBaseURL, llm.DefaultRetryConfig())
}

// NewWithBaseURL creates a new OpenRouter provider with a custom base URL
// (useful for pointing at a compatible self-hosted gateway in tests).
func NewWithBaseURL(apiKey, baseURL string) *Provider {
	return NewWithRetry(apiKey, baseURL, llm.DefaultRetryConfig())
}

// NewWithRetry creates a new OpenRouter provider with a custom retry config.
func NewWithRetry(apiKey, baseURL string, retryConfig llm.RetryConfig) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &http.Client{Timeout: 120 * time.Second}
	return &Provider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		client:     client,
		httpClient: llm.NewRetryableHTTPClient(client, retryConfig),
	}
}

// Complete sends one chat-style request to OpenRouter, retrying transient
// failures with exponential backoff and jitter.
func (p *Provider) Complete(ctx context.Context, req *models.LLMRequest) (*models.LLMResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	type openRouterRequest struct {
		Model       string           `json:"model"`
		Messages    []models.Message `json:"messages"`
		MaxTokens   int              `json:"max_tokens,omitempty"`
		Temperature float64          `json:"temperature,omitempty"`
	}

	// Cap max_tokens to a safe ceiling for most OpenRouter-hosted models.
	maxTokens := req.ModelParams.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	} else if maxTokens > 16384 {
		maxTokens = 16384
	}

	messages := req.Messages
	if req.Prompt != "" {
		systemMsg := models.Message{Role: "system", Content: req.Prompt}
		messages = append([]models.Message{systemMsg}, messages...)
	}

	orReq := openRouterRequest{
		Model:       req.ModelParams.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.ModelParams.Temperature,
	}

	jsonData, err := json.Marshal(orReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenRouter request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("HTTP-Referer", "llmcouncil")

	start := time.Now()
	resp, err := p.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenRouter API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var orResp struct {
		ID      interface{} `json:"id"`
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason,omitempty"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage,omitempty"`
		Error *struct {
			Message string      `json:"message"`
			Type    string      `json:"type"`
			Code    interface{} `json:"code,omitempty"`
		} `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&orResp); err != nil {
		return nil, fmt.Errorf("failed to decode OpenRouter response: %w", err)
	}

	if orResp.Error != nil {
		return nil, fmt.Errorf("OpenRouter API error: %s", orResp.Error.Message)
	}
	if len(orResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	responseID := ""
	if orResp.ID != nil {
		responseID = fmt.Sprintf("%v", orResp.ID)
	}

	choice := orResp.Choices[0]
	finishReason := choice.FinishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	response := &models.LLMResponse{
		ID:           responseID,
		RequestID:    req.ID,
		ProviderID:   "openrouter",
		ProviderName: "OpenRouter",
		Content:      choice.Message.Content,
		Confidence:   0.85, // OpenRouter doesn't report a confidence score
		ResponseTime: time.Since(start).Milliseconds(),
		FinishReason: finishReason,
		Metadata: map[string]interface{}{
			"model":    orResp.Model,
			"provider": "openrouter",
		},
		CreatedAt: time.Now(),
	}
	if orResp.Usage != nil {
		response.TokensUsed = orResp.Usage.TotalTokens
	}

	return response, nil
}

// HealthCheck verifies connectivity and API key validity against the
// lightweight /models endpoint.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenRouter API key is required for health check")
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("HTTP-Referer", "llmcouncil")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("OpenRouter health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("OpenRouter API key is invalid or expired")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenRouter health check returned status %d", resp.StatusCode)
	}
	return nil
}

// GetCapabilities returns a static capability descriptor. OpenRouter's
// model catalog is not browsed here — the council roster names models
// explicitly, so capability discovery stays out of scope.
func (p *Provider) GetCapabilities() *models.ProviderCapabilities {
	return &models.ProviderCapabilities{
		SupportedFeatures: []string{"text_completion", "chat", "multi_model_routing"},
		SupportsStreaming: false,
		Limits: models.ModelLimits{
			MaxTokens:             200000,
			MaxInputLength:        200000,
			MaxOutputLength:       16384,
			MaxConcurrentRequests: 10,
		},
		Metadata: map[string]string{
			"provider":    "OpenRouter",
			"api_version": "v1",
		},
	}
}

// Close releases the underlying HTTP client's idle connections.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
