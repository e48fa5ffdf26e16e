// Package llm defines the provider adapter contract the deliberation
// engine talks to, and the resilience helpers (retry, circuit breaker)
// that wrap a concrete adapter.
package llm

import (
	"context"

	"github.com/superagent/llmcouncil/internal/models"
)

// Provider is the minimal capability the engine needs from a remote LLM
// gateway: complete one chat-style request and release pooled resources
// on shutdown. Concrete adapters (see providers/) own authorization, the
// base URL, and the gateway's wire format; the engine never assumes a
// specific vendor beyond this surface.
type Provider interface {
	Complete(ctx context.Context, req *models.LLMRequest) (*models.LLMResponse, error)
	HealthCheck(ctx context.Context) error
	GetCapabilities() *models.ProviderCapabilities
	Close() error
}
