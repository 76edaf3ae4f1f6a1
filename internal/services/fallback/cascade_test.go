package fallback

import (
	"context"
	"iter"
	"testing"

	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"
	"github.com/solara-ai/inference-router/internal/services/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAdapter returns canned results or errors per model and records the
// order models were attempted in.
type scriptedAdapter struct {
	provider models.Provider
	results  map[string]*models.InferenceResult
	errs     map[string]error
	calls    []string
}

func (a *scriptedAdapter) Provider() models.Provider { return a.provider }

func (a *scriptedAdapter) Infer(_ context.Context, req *models.InferenceRequest) (*models.InferenceResult, error) {
	a.calls = append(a.calls, req.Model)
	if err, ok := a.errs[req.Model]; ok {
		return nil, err
	}
	if result, ok := a.results[req.Model]; ok {
		return result, nil
	}
	return nil, models.NewProviderError(a.provider, "model "+req.Model+" not scripted", nil)
}

func (a *scriptedAdapter) InferStream(_ context.Context, _ *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error) {
	return nil, models.NewProviderError(a.provider, "streaming not scripted", nil)
}

func okResult(model string) *models.InferenceResult {
	return &models.InferenceResult{
		ID:    "resp-" + model,
		Model: model,
		Choices: []models.InferenceChoice{
			{Message: models.ChatMessage{Role: "assistant", Content: "ok"}},
		},
	}
}

func cascadeFixture(fallbacks models.FallbackTable, adapters ...providers.Adapter) *Cascade {
	cfg := config.Default()
	cfg.Fallbacks = fallbacks
	engine := alerts.NewEngine(models.MonitoringConfig{}, nil, nil)
	return NewCascade(cfg, providers.NewRegistry(adapters...), engine)
}

func TestCascadeSkipsFailedModelAndSucceeds(t *testing.T) {
	groq := &scriptedAdapter{
		provider: models.ProviderGroq,
		errs:     map[string]error{"model-b": models.NewProviderError(models.ProviderGroq, "down", nil)},
		results:  map[string]*models.InferenceResult{"model-c": okResult("model-c")},
	}
	cascade := cascadeFixture(models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {"model-a", "model-b", "model-c", "model-d"},
		},
	}, groq)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	originalErr := models.NewProviderError(models.ProviderGroq, "primary failed", nil)

	result, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{},
		models.TierFast, originalErr, "req-1")

	require.NoError(t, err)
	assert.Equal(t, "model-c", result.Model)
	// model-a is skipped, model-b fails, model-c succeeds, model-d never runs
	assert.Equal(t, []string{"model-b", "model-c"}, groq.calls)
}

func TestCascadeExhaustionReturnsServiceUnavailable(t *testing.T) {
	groq := &scriptedAdapter{
		provider: models.ProviderGroq,
		errs: map[string]error{
			"model-b": models.NewProviderError(models.ProviderGroq, "down", nil),
			"model-c": models.NewProviderError(models.ProviderGroq, "also down", nil),
		},
	}
	cascade := cascadeFixture(models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {"model-b", "model-c"},
		},
	}, groq)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	originalErr := models.NewProviderError(models.ProviderGroq, "primary failed", nil)

	_, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{RequestType: models.RequestTypeChat},
		models.TierFast, originalErr, "req-1")

	require.Error(t, err)
	assert.True(t, models.IsServiceUnavailable(err))
	assert.Contains(t, err.Error(), "all models failed for chat request")
	assert.Contains(t, err.Error(), "also down")
}

func TestCascadeNoFallbacksRethrowsOriginalError(t *testing.T) {
	groq := &scriptedAdapter{provider: models.ProviderGroq}
	cascade := cascadeFixture(models.FallbackTable{}, groq)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	originalErr := models.NewProviderError(models.ProviderGroq, "primary failed", nil)

	_, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{},
		models.TierFast, originalErr, "req-1")

	assert.Same(t, originalErr, err)
	assert.Empty(t, groq.calls)
}

func TestCascadeOnlyFailedModelInListRethrowsOriginal(t *testing.T) {
	groq := &scriptedAdapter{provider: models.ProviderGroq}
	cascade := cascadeFixture(models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {"model-a"},
		},
	}, groq)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	originalErr := models.NewProviderError(models.ProviderGroq, "primary failed", nil)

	_, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{},
		models.TierFast, originalErr, "req-1")

	assert.Same(t, originalErr, err)
	assert.Empty(t, groq.calls)
}

func TestCascadeCrossesProviders(t *testing.T) {
	groq := &scriptedAdapter{
		provider: models.ProviderGroq,
		errs:     map[string]error{"model-b": models.NewProviderError(models.ProviderGroq, "down", nil)},
	}
	anthropic := &scriptedAdapter{
		provider: models.ProviderAnthropic,
		results:  map[string]*models.InferenceResult{"claude-3-5-haiku-latest": okResult("claude-3-5-haiku-latest")},
	}
	cascade := cascadeFixture(models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {"model-b", "claude-3-5-haiku-latest"},
		},
	}, groq, anthropic)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	originalErr := models.NewProviderError(models.ProviderGroq, "primary failed", nil)

	result, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{},
		models.TierFast, originalErr, "req-1")

	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", result.Model)
	assert.Equal(t, []string{"claude-3-5-haiku-latest"}, anthropic.calls)
}

func TestCascadeDoesNotMutateRequest(t *testing.T) {
	groq := &scriptedAdapter{
		provider: models.ProviderGroq,
		results:  map[string]*models.InferenceResult{"model-b": okResult("model-b")},
	}
	cascade := cascadeFixture(models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {"model-b"},
		},
	}, groq)

	req := &models.InferenceRequest{Prompt: "hello", Model: "model-a"}
	_, err := cascade.Run(context.Background(), "model-a", req, &models.RouterOptions{},
		models.TierFast, models.NewProviderError(models.ProviderGroq, "boom", nil), "req-1")

	require.NoError(t, err)
	assert.Equal(t, "model-a", req.Model)
}
