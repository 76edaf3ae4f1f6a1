package cache

import (
	"context"
	"testing"
	"time"

	"github.com/solara-ai/inference-router/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyIsDeterministic(t *testing.T) {
	params := KeyParams{
		Prompt:      "summarize this",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.2,
		MaxTokens:   256,
		UserID:      "user-1",
	}

	assert.Equal(t, GenerateKey(params), GenerateKey(params))
	assert.Contains(t, GenerateKey(params), keyPrefix)

	// any facet change yields a different key
	other := params
	other.Temperature = 0.3
	assert.NotEqual(t, GenerateKey(params), GenerateKey(other))

	other = params
	other.Prompt = "summarize that"
	assert.NotEqual(t, GenerateKey(params), GenerateKey(other))
}

func TestEligibility(t *testing.T) {
	svc, err := NewService(models.CacheConfig{
		Enabled:                 true,
		Backend:                 models.CacheBackendMemory,
		MaxCacheableTemperature: 0.3,
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		callerAllows bool
		temperature  float64
		prompt       string
		expected     bool
	}{
		{"near-deterministic request is eligible", true, 0.2, "hello", true},
		{"boundary temperature is eligible", true, 0.3, "hello", true},
		{"high temperature is not", true, 0.7, "hello", false},
		{"caller opt-out wins", false, 0.0, "hello", false},
		{"empty prompt is not", true, 0.0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.Eligible(tt.callerAllows, tt.temperature, tt.prompt))
		})
	}
}

func TestDisabledServiceIsNeverEligible(t *testing.T) {
	svc, err := NewService(models.CacheConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, svc.Enabled())
	assert.False(t, svc.Eligible(true, 0.0, "hello"))
}

func TestServiceRoundTrip(t *testing.T) {
	svc, err := NewService(models.CacheConfig{
		Enabled:                 true,
		Backend:                 models.CacheBackendMemory,
		TTLSec:                  60,
		MaxCacheableTemperature: 0.3,
	})
	require.NoError(t, err)

	ctx := context.Background()
	key := GenerateKey(KeyParams{Prompt: "hello", Model: "llama-3.1-8b-instant"})

	_, _, found := svc.Get(ctx, key, "hello", "req-1")
	assert.False(t, found)

	stored := &models.InferenceResult{
		ID:       "resp-1",
		Model:    "llama-3.1-8b-instant",
		Provider: models.ProviderGroq,
		Choices: []models.InferenceChoice{
			{Message: models.ChatMessage{Role: "assistant", Content: "hi there"}},
		},
		Usage: models.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}
	svc.Set(ctx, key, "hello", stored, "req-1")

	got, tier, found := svc.Get(ctx, key, "hello", "req-2")
	require.True(t, found)
	assert.Equal(t, models.CacheTierExact, tier)
	assert.Equal(t, stored, got)
}

func TestMemoryBackendTTL(t *testing.T) {
	backend := NewMemoryBackend(10)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryBackendEvictsOldest(t *testing.T) {
	backend := NewMemoryBackend(2)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, backend.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, backend.Set(ctx, "c", []byte("3"), 0))

	_, found, _ := backend.Get(ctx, "a")
	assert.False(t, found, "oldest entry should be evicted")

	_, found, _ = backend.Get(ctx, "b")
	assert.True(t, found)
	_, found, _ = backend.Get(ctx, "c")
	assert.True(t, found)
	assert.Equal(t, 2, backend.Len())
}
