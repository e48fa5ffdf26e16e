package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superagent/llmcouncil/internal/llm/providers/mock"
	"github.com/superagent/llmcouncil/internal/models"
)

func TestRegistry_GetReturnsExactMatchBeforeDefault(t *testing.T) {
	registry := NewDefaultRegistry()
	specific := mock.New("specific", "hi")
	fallback := mock.New("fallback", "hi")
	registry.Register("model-x", specific)
	registry.Register("default", fallback)

	p, err := registry.Get("model-x")
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), &models.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "specific", resp.ProviderName)
}

func TestRegistry_GetFallsBackToDefault(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.Register("default", mock.New("fallback", "hi"))

	p, err := registry.Get("unregistered-model")
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), &models.LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.ProviderName)
}

func TestRegistry_GetErrorsWithoutDefault(t *testing.T) {
	registry := NewDefaultRegistry()
	_, err := registry.Get("nope")
	assert.Error(t, err)
}

func TestRegistry_CloseDedupesSharedProvider(t *testing.T) {
	registry := NewDefaultRegistry()
	shared := mock.New("shared", "hi")
	registry.Register("model-a", shared)
	registry.Register("model-b", shared)

	err := registry.Close()
	require.NoError(t, err)
	assert.True(t, shared.Closed())
}
