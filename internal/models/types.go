// Package models holds the wire-level request/response types shared
// between the deliberation engine and the LLM provider adapters.
package models

import "time"

// LLMRequest is the payload a provider adapter turns into a wire request.
type LLMRequest struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Prompt      string          `json:"prompt"`
	Messages    []Message       `json:"messages"`
	ModelParams ModelParameters `json:"model_params"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LLMResponse is what a provider adapter returns for a completed request.
type LLMResponse struct {
	ID           string                 `json:"id"`
	RequestID    string                 `json:"request_id"`
	ProviderID   string                 `json:"provider_id"`
	ProviderName string                 `json:"provider_name"`
	Content      string                 `json:"content"`
	Confidence   float64                `json:"confidence"`
	TokensUsed   int                    `json:"tokens_used"`
	ResponseTime int64                  `json:"response_time_ms"`
	FinishReason string                 `json:"finish_reason"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Message is a single chat turn in an LLMRequest.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelParameters carries per-request sampling configuration.
type ModelParameters struct {
	Model            string   `json:"model"`
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty"`
}

// ProviderCapabilities describes what a provider adapter supports.
type ProviderCapabilities struct {
	SupportedModels   []string          `json:"supported_models"`
	SupportedFeatures []string          `json:"supported_features"`
	SupportsStreaming bool              `json:"supports_streaming"`
	Limits            ModelLimits       `json:"limits"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ModelLimits bounds what a provider will accept.
type ModelLimits struct {
	MaxTokens             int `json:"max_tokens"`
	MaxInputLength        int `json:"max_input_length"`
	MaxOutputLength       int `json:"max_output_length"`
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
}
