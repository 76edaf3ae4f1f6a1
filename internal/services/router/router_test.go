package router

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"
	"github.com/solara-ai/inference-router/internal/services/cache"
	"github.com/solara-ai/inference-router/internal/services/fallback"
	"github.com/solara-ai/inference-router/internal/services/providers"

	"github.com/openai/openai-go/v2/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter echoes the request it receives so tests can assert on the
// merged parameters, and fails for models listed in failing.
type fakeAdapter struct {
	provider models.Provider
	failing  map[string]bool
	requests []*models.InferenceRequest
}

func (a *fakeAdapter) Provider() models.Provider { return a.provider }

func (a *fakeAdapter) Infer(_ context.Context, req *models.InferenceRequest) (*models.InferenceResult, error) {
	a.requests = append(a.requests, req)
	if a.failing[req.Model] {
		return nil, models.NewProviderError(a.provider, "model "+req.Model+" unavailable", nil)
	}
	return &models.InferenceResult{
		ID:       "resp-1",
		Model:    req.Model,
		Provider: a.provider,
		Choices: []models.InferenceChoice{
			{Message: models.ChatMessage{Role: "assistant", Content: "echo: " + req.Prompt}},
		},
		Usage: models.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (a *fakeAdapter) InferStream(_ context.Context, req *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error) {
	if a.failing[req.Model] {
		return nil, models.NewProviderError(a.provider, "model "+req.Model+" unavailable", nil)
	}
	return func(yield func(*models.StreamChunk, error) bool) {
		if !yield(&models.StreamChunk{
			Model:   req.Model,
			Choices: []models.StreamChoice{{Delta: models.StreamDelta{Content: "chunk"}}},
		}, nil) {
			return
		}
		yield(&models.StreamChunk{
			Model:   req.Model,
			Choices: []models.StreamChoice{{FinishReason: "stop"}},
		}, nil)
	}, nil
}

type routerFixture struct {
	router *Router
	groq   *fakeAdapter
	gemini *fakeAdapter
}

func newFixture(t *testing.T, mutate func(cfg *config.Config)) *routerFixture {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	groq := &fakeAdapter{provider: models.ProviderGroq, failing: map[string]bool{}}
	gemini := &fakeAdapter{provider: models.ProviderGemini, failing: map[string]bool{}}
	registry := providers.NewRegistry(groq, gemini)

	engine := alerts.NewEngine(cfg.Monitoring, nil, nil)
	cascade := fallback.NewCascade(cfg, registry, engine)

	cacheSvc, err := cache.NewService(cfg.Cache)
	require.NoError(t, err)

	return &routerFixture{
		router: New(cfg, registry, cascade, cacheSvc, engine, nil),
		groq:   groq,
		gemini: gemini,
	}
}

func TestRouteRequestRejectsInvalidRequest(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.router.RouteRequest(context.Background(), &models.InferenceRequest{}, nil)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)
	assert.Empty(t, fx.groq.requests, "invalid requests must not reach a provider")
}

func TestRouteRequestFillsTierDefaults(t *testing.T) {
	fx := newFixture(t, nil)

	// no model, no tier: default request type resolves to the standard tier
	result, err := fx.router.RouteRequest(context.Background(),
		&models.InferenceRequest{Prompt: "hello"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "llama-3.3-70b-versatile", result.Model)
	require.Len(t, fx.groq.requests, 1)

	sent := fx.groq.requests[0]
	assert.Equal(t, "llama-3.3-70b-versatile", sent.Model)
	require.True(t, sent.Temperature.Valid())
	assert.InDelta(t, 0.7, sent.Temperature.Value, 1e-9)
	require.True(t, sent.MaxTokens.Valid())
	assert.Equal(t, int64(2048), sent.MaxTokens.Value)
}

func TestRouteRequestExplicitParamsWin(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.router.RouteRequest(context.Background(), &models.InferenceRequest{
		Prompt:      "hello",
		Temperature: param.NewOpt(0.1),
		MaxTokens:   param.NewOpt(int64(64)),
	}, nil)
	require.NoError(t, err)

	sent := fx.groq.requests[0]
	assert.InDelta(t, 0.1, sent.Temperature.Value, 1e-9)
	assert.Equal(t, int64(64), sent.MaxTokens.Value)
}

func TestRouteRequestTierResolutionOrder(t *testing.T) {
	t.Run("explicit tier wins over latency bound", func(t *testing.T) {
		fx := newFixture(t, nil)
		_, err := fx.router.RouteRequest(context.Background(),
			&models.InferenceRequest{Prompt: "hello"},
			&models.RouterOptions{ModelTier: models.TierPremium, MaxLatencyMs: 50})
		require.NoError(t, err)
		assert.Equal(t, "deepseek-r1-distill-llama-70b", fx.groq.requests[0].Model)
	})

	t.Run("latency bound wins over request type", func(t *testing.T) {
		fx := newFixture(t, nil)
		_, err := fx.router.RouteRequest(context.Background(),
			&models.InferenceRequest{Prompt: "hello"},
			&models.RouterOptions{MaxLatencyMs: 50, RequestType: models.RequestTypeContentGeneration})
		require.NoError(t, err)
		assert.Equal(t, "llama-3.1-8b-instant", fx.groq.requests[0].Model)
	})

	t.Run("request type decides when nothing else is set", func(t *testing.T) {
		fx := newFixture(t, nil)
		_, err := fx.router.RouteRequest(context.Background(),
			&models.InferenceRequest{Prompt: "hello"},
			&models.RouterOptions{RequestType: models.RequestTypeEmbedding})
		require.NoError(t, err)
		assert.Equal(t, "llama-3.1-8b-instant", fx.groq.requests[0].Model)
	})

	t.Run("known model name pins its tier", func(t *testing.T) {
		fx := newFixture(t, nil)
		_, err := fx.router.RouteRequest(context.Background(),
			&models.InferenceRequest{Prompt: "hello", Model: "deepseek-r1-distill-llama-70b"},
			&models.RouterOptions{MaxLatencyMs: 50})
		require.NoError(t, err)
		assert.Equal(t, "deepseek-r1-distill-llama-70b", fx.groq.requests[0].Model)
	})
}

func TestRouteRequestResolvesProviderFromModelPrefix(t *testing.T) {
	fx := newFixture(t, nil)

	result, err := fx.router.RouteRequest(context.Background(),
		&models.InferenceRequest{Prompt: "hello", Model: "gemini-2.0-flash"}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ProviderGemini, result.Provider)
	assert.Empty(t, fx.groq.requests)
	require.Len(t, fx.gemini.requests, 1)
}

func TestRouteRequestFallbackOnPrimaryFailure(t *testing.T) {
	fx := newFixture(t, nil)
	fx.groq.failing["llama-3.3-70b-versatile"] = true

	result, err := fx.router.RouteRequest(context.Background(),
		&models.InferenceRequest{Prompt: "hello"}, nil)
	require.NoError(t, err)

	// default standard fallback list tries llama-3.1-8b-instant next
	assert.Equal(t, "llama-3.1-8b-instant", result.Model)
	assert.Equal(t, "llama-3.3-70b-versatile", fx.groq.requests[0].Model)
	assert.Equal(t, "llama-3.1-8b-instant", fx.groq.requests[1].Model)
}

func TestRouteRequestFallbacksDisabledPropagatesError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.groq.failing["llama-3.3-70b-versatile"] = true

	_, err := fx.router.RouteRequest(context.Background(),
		&models.InferenceRequest{Prompt: "hello"},
		&models.RouterOptions{UseFallbacks: param.NewOpt(false)})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeProvider, appErr.Type)
	assert.Len(t, fx.groq.requests, 1, "no fallback may be attempted")
}

func TestRouteRequestExhaustionIsServiceUnavailable(t *testing.T) {
	fx := newFixture(t, nil)
	fx.groq.failing["llama-3.3-70b-versatile"] = true
	fx.groq.failing["llama-3.1-8b-instant"] = true
	fx.gemini.failing["gemini-2.0-flash"] = true

	_, err := fx.router.RouteRequest(context.Background(),
		&models.InferenceRequest{Prompt: "hello"},
		&models.RouterOptions{RequestType: models.RequestTypeChat})
	require.Error(t, err)
	assert.True(t, models.IsServiceUnavailable(err))
}

func TestRouteRequestCacheShortCircuit(t *testing.T) {
	fx := newFixture(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.Backend = models.CacheBackendMemory
	})

	req := &models.InferenceRequest{Prompt: "hello", Temperature: param.NewOpt(0.0)}

	first, err := fx.router.RouteRequest(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Empty(t, first.CacheTier)
	assert.Len(t, fx.groq.requests, 1)

	second, err := fx.router.RouteRequest(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CacheTierExact, second.CacheTier)
	assert.Len(t, fx.groq.requests, 1, "cache hit must not reach the provider")
	assert.Equal(t, first.Content(), second.Content())
}

func TestRouteRequestHighTemperatureSkipsCache(t *testing.T) {
	fx := newFixture(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.Backend = models.CacheBackendMemory
	})

	req := &models.InferenceRequest{Prompt: "hello", Temperature: param.NewOpt(0.9)}

	_, err := fx.router.RouteRequest(context.Background(), req, nil)
	require.NoError(t, err)
	_, err = fx.router.RouteRequest(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Len(t, fx.groq.requests, 2, "non-deterministic requests must bypass the cache")
}

func TestRouteRequestCacheOptOut(t *testing.T) {
	fx := newFixture(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.Backend = models.CacheBackendMemory
	})

	req := &models.InferenceRequest{Prompt: "hello", Temperature: param.NewOpt(0.0)}
	opts := &models.RouterOptions{UseCache: param.NewOpt(false)}

	_, err := fx.router.RouteRequest(context.Background(), req, opts)
	require.NoError(t, err)
	_, err = fx.router.RouteRequest(context.Background(), req, opts)
	require.NoError(t, err)

	assert.Len(t, fx.groq.requests, 2)
}

func TestRouteStream(t *testing.T) {
	fx := newFixture(t, nil)

	stream, err := fx.router.RouteStream(context.Background(),
		&models.InferenceRequest{Prompt: "hello", Stream: true}, nil)
	require.NoError(t, err)

	var chunks []*models.StreamChunk
	for chunk, chunkErr := range stream {
		require.NoError(t, chunkErr)
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk", chunks[0].Choices[0].Delta.Content)
	assert.True(t, chunks[1].Done())
}

func TestRouteStreamConnectFallback(t *testing.T) {
	fx := newFixture(t, nil)
	fx.groq.failing["llama-3.3-70b-versatile"] = true

	stream, err := fx.router.RouteStream(context.Background(),
		&models.InferenceRequest{Prompt: "hello", Stream: true}, nil)
	require.NoError(t, err)

	var last *models.StreamChunk
	for chunk, chunkErr := range stream {
		require.NoError(t, chunkErr)
		last = chunk
	}
	require.NotNil(t, last)
	assert.Equal(t, "llama-3.1-8b-instant", last.Model)
}

func TestThroughputMeter(t *testing.T) {
	m := newThroughputMeter()

	rpm, tpm := m.record(100)
	assert.InDelta(t, 1, rpm, 1e-9)
	assert.InDelta(t, 100, tpm, 1e-9)

	rpm, tpm = m.record(50)
	assert.InDelta(t, 2, rpm, 1e-9)
	assert.InDelta(t, 150, tpm, 1e-9)
}

func TestBudgetMeterIsPerUser(t *testing.T) {
	m := newBudgetMeter()

	assert.Equal(t, int64(100), m.record("user-1", 100))
	assert.Equal(t, int64(250), m.record("user-1", 150))
	assert.Equal(t, int64(40), m.record("user-2", 40))
}

func TestBudgetMeterSweepsDepartedUsers(t *testing.T) {
	m := newBudgetMeter()
	m.byUser["departed"] = []meterEvent{
		{at: time.Now().Add(-25 * time.Hour), tokens: 500},
	}

	m.record("active", 100)

	_, ok := m.byUser["departed"]
	assert.False(t, ok, "users with only aged-out events should be dropped")
	_, ok = m.byUser["active"]
	assert.True(t, ok)
}
