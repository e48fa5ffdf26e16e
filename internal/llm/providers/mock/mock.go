// Package mock is a scriptable fake llm.Provider for exercising the
// council's generation, peer-review, and synthesis stages without a
// network call.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/superagent/llmcouncil/internal/models"
)

// Provider is a hand-rolled fake satisfying llm.Provider. Each call can be
// scripted with a fixed response, an error, an injected delay, or a
// CompleteFunc for scenarios a canned response can't express (e.g. a
// provider whose Nth call fails, or one that must see the other roles'
// anonymized answers to reply sensibly in a peer-review test).
type Provider struct {
	Name         string
	Response     *models.LLMResponse
	Err          error
	Delay        time.Duration
	Capabilities *models.ProviderCapabilities
	CompleteFunc func(ctx context.Context, req *models.LLMRequest) (*models.LLMResponse, error)

	mu        sync.Mutex
	callCount int
	closed    bool
}

// New returns a mock provider that answers every request with content.
func New(name, content string) *Provider {
	return &Provider{
		Name: name,
		Response: &models.LLMResponse{
			Content:      content,
			Confidence:   0.9,
			FinishReason: "stop",
		},
		Capabilities: &models.ProviderCapabilities{
			SupportedModels: []string{"mock-model"},
		},
	}
}

// CallCount returns how many times Complete has been invoked.
func (m *Provider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Complete implements llm.Provider.
func (m *Provider) Complete(ctx context.Context, req *models.LLMRequest) (*models.LLMResponse, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	if m.Err != nil {
		return nil, m.Err
	}

	resp := *m.Response
	resp.RequestID = req.ID
	resp.ProviderID = m.Name
	resp.ProviderName = m.Name
	resp.CreatedAt = time.Now()
	return &resp, nil
}

// HealthCheck implements llm.Provider.
func (m *Provider) HealthCheck(ctx context.Context) error {
	return m.Err
}

// GetCapabilities implements llm.Provider.
func (m *Provider) GetCapabilities() *models.ProviderCapabilities {
	if m.Capabilities != nil {
		return m.Capabilities
	}
	return &models.ProviderCapabilities{}
}

// Close implements llm.Provider.
func (m *Provider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *Provider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
