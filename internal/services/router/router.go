// Package router is the top-level entry point for inference requests: it
// resolves the provider and model tier, merges tier defaults into the
// request, short-circuits through the response cache when eligible, invokes
// the provider adapter, and hands failures to the fallback cascade.
package router

import (
	"context"
	"iter"
	"time"

	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"
	"github.com/solara-ai/inference-router/internal/services/cache"
	"github.com/solara-ai/inference-router/internal/services/fallback"
	"github.com/solara-ai/inference-router/internal/services/providers"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v2/packages/param"
)

// Router routes inference requests across providers and tiers
type Router struct {
	cfg        *config.Config
	registry   *providers.Registry
	cascade    *fallback.Cascade
	cache      *cache.Service
	engine     *alerts.Engine
	provenance providers.ProvenanceStore

	throughput *throughputMeter
	budget     *budgetMeter
}

// New creates a request router. The cache service and provenance store are
// injected at construction; both collaborators may be disabled but not nil
// (pass a disabled cache service and a nil-checked store via options).
func New(
	cfg *config.Config,
	registry *providers.Registry,
	cascade *fallback.Cascade,
	cacheSvc *cache.Service,
	engine *alerts.Engine,
	provenance providers.ProvenanceStore,
) *Router {
	return &Router{
		cfg:        cfg,
		registry:   registry,
		cascade:    cascade,
		cache:      cacheSvc,
		engine:     engine,
		provenance: provenance,
		throughput: newThroughputMeter(),
		budget:     newBudgetMeter(),
	}
}

// RouteRequest performs one inference call end to end. It fails with a
// terminal ServiceUnavailable when the primary and every fallback candidate
// fail, or propagates the provider error untouched when fallbacks are
// disabled.
func (r *Router) RouteRequest(
	ctx context.Context,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
) (result *models.InferenceResult, err error) {
	if opts == nil {
		opts = &models.RouterOptions{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	provider := r.resolveProvider(opts, req.Model)
	tier := r.resolveTier(opts, req, provider)
	merged := r.mergeParams(req, provider, tier)

	fiberlog.Infof("[%s] routing %s request: provider=%s tier=%s model=%s",
		requestID, opts.EffectiveRequestType(), provider, tier, merged.Model)

	// The latency report must run exactly once per call, on the success path
	// and the failure path alike.
	start := time.Now()
	defer func() {
		r.reportOutcome(requestID, merged, opts, start, result, err)
	}()

	// Cache short-circuit: only near-deterministic requests with a prompt
	// are eligible, and the caller can opt out per request.
	cacheEligible := r.cache.Eligible(opts.CacheAllowed(), mergedTemperature(merged), merged.Prompt)
	var cacheKey string
	if cacheEligible {
		cacheKey = cache.GenerateKey(r.cacheKeyParams(merged, opts))
		if hit, tier, ok := r.cache.Get(ctx, cacheKey, merged.Prompt, requestID); ok {
			hit.CacheTier = tier
			result = hit
			return result, nil
		}
	}

	result, err = r.invoke(ctx, merged, opts, provider, tier, requestID)
	if err != nil {
		r.engine.TrackError(merged.Model, err.Error(), map[string]any{
			"request_id": requestID,
			"provider":   string(provider),
		})

		if !opts.FallbacksEnabled() {
			fiberlog.Warnf("[%s] provider failed and fallbacks disabled: %v", requestID, err)
			return nil, err
		}
		result, err = r.cascade.Run(ctx, merged.Model, merged, opts, tier, err, requestID)
		if err != nil {
			return nil, err
		}
	}

	if cacheEligible {
		r.cache.Set(ctx, cacheKey, merged.Prompt, result, requestID)
	}
	return result, nil
}

// resolveProvider picks the backend: an explicit option wins, otherwise the
// model name prefix decides, defaulting to groq.
func (r *Router) resolveProvider(opts *models.RouterOptions, model string) models.Provider {
	if opts.Provider != "" {
		return opts.Provider
	}
	return models.ProviderForModel(model)
}

// resolveTier picks the model tier, in priority order: explicit option, exact
// model-name match against the provider's tier table, latency bound, then
// the request-type decision table.
func (r *Router) resolveTier(opts *models.RouterOptions, req *models.InferenceRequest, provider models.Provider) models.ModelTier {
	if opts.ModelTier != "" {
		return opts.ModelTier
	}
	if req.Model != "" {
		if tier, ok := r.cfg.TierForModel(provider, req.Model); ok {
			return tier
		}
	}
	if opts.MaxLatencyMs > 0 {
		return models.TierForMaxLatency(opts.MaxLatencyMs)
	}
	return models.TierForRequestType(opts.EffectiveRequestType())
}

// mergeParams fills unset request fields from the tier defaults. Request
// fields always win over tier configuration.
func (r *Router) mergeParams(req *models.InferenceRequest, provider models.Provider, tier models.ModelTier) *models.InferenceRequest {
	merged := *req
	tierCfg, ok := r.cfg.TierConfig(provider, tier)
	if !ok {
		return &merged
	}

	if merged.Model == "" {
		merged.Model = tierCfg.Name
	}
	if !merged.Temperature.Valid() {
		merged.Temperature = param.NewOpt(tierCfg.Temperature)
	}
	if !merged.MaxTokens.Valid() && tierCfg.MaxTokens > 0 {
		merged.MaxTokens = param.NewOpt(tierCfg.MaxTokens)
	}
	if !merged.TopP.Valid() && tierCfg.TopP != nil {
		merged.TopP = param.NewOpt(*tierCfg.TopP)
	}
	return &merged
}

func (r *Router) cacheKeyParams(req *models.InferenceRequest, opts *models.RouterOptions) cache.KeyParams {
	var maxTokens int64
	if req.MaxTokens.Valid() {
		maxTokens = req.MaxTokens.Value
	}
	systemPrompt := ""
	if req.SystemPrompt.Valid() {
		systemPrompt = req.SystemPrompt.Value
	}
	return cache.KeyParams{
		Prompt:       req.Prompt,
		Model:        req.Model,
		Temperature:  mergedTemperature(req),
		MaxTokens:    maxTokens,
		UserID:       opts.UserID,
		Module:       opts.Module,
		RequestType:  opts.EffectiveRequestType(),
		SystemPrompt: systemPrompt,
	}
}

// invoke calls the provider adapter under the tier timeout, through the
// tracked variant when the request carries a user identity and tracking is on.
func (r *Router) invoke(
	ctx context.Context,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
	provider models.Provider,
	tier models.ModelTier,
	requestID string,
) (*models.InferenceResult, error) {
	adapter, ok := r.registry.Get(provider)
	if !ok {
		return nil, models.NewProviderError(provider, "provider is not configured", nil)
	}

	if tierCfg, ok := r.cfg.TierConfig(provider, tier); ok && tierCfg.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(tierCfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	if opts.UserID != "" && r.cfg.Tracking && r.provenance != nil {
		return providers.NewTracked(adapter, r.provenance).Infer(ctx, req, opts, requestID)
	}
	return adapter.Infer(ctx, req)
}

// reportOutcome is the always-run finalizer: it reports wall-clock latency
// and feeds the throughput and token-budget alert paths.
func (r *Router) reportOutcome(
	requestID string,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
	start time.Time,
	result *models.InferenceResult,
	err error,
) {
	latencyMs := time.Since(start).Milliseconds()
	bucket := models.LatencyCategory(latencyMs)

	metadata := map[string]any{
		"request_id": requestID,
		"module":     opts.Module,
		"latency":    bucket,
		"success":    err == nil,
	}
	if result != nil && result.CacheTier != "" {
		metadata["cache_tier"] = result.CacheTier
	}

	r.engine.TrackLatency(req.Model, latencyMs, string(opts.EffectiveRequestType()), metadata)
	fiberlog.Debugf("[%s] request finished in %dms (%s)", requestID, latencyMs, bucket)

	var tokens int64
	if result != nil {
		tokens = result.Usage.TotalTokens
	}
	rpm, tpm := r.throughput.record(tokens)
	r.engine.TrackThroughput(rpm, tpm, map[string]any{"request_id": requestID})

	if opts.UserID != "" && tokens > 0 {
		total := r.budget.record(opts.UserID, tokens)
		percent := 100 * float64(total) / float64(r.cfg.Monitoring.TokenBudgetDaily)
		r.engine.TrackTokenBudget(opts.UserID, total, percent, map[string]any{
			"request_id":   requestID,
			"request_type": string(opts.EffectiveRequestType()),
		})
	}
}

// RouteStream performs one streaming inference call. Streaming responses are
// never cached; fallbacks apply to connection establishment only, after which
// the chosen provider streams to completion.
func (r *Router) RouteStream(
	ctx context.Context,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
) (iter.Seq2[*models.StreamChunk, error], error) {
	if opts == nil {
		opts = &models.RouterOptions{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	provider := r.resolveProvider(opts, req.Model)
	tier := r.resolveTier(opts, req, provider)
	merged := r.mergeParams(req, provider, tier)

	fiberlog.Infof("[%s] routing streaming %s request: provider=%s tier=%s model=%s",
		requestID, opts.EffectiveRequestType(), provider, tier, merged.Model)

	start := time.Now()
	adapter, ok := r.registry.Get(provider)
	if !ok {
		return nil, models.NewProviderError(provider, "provider is not configured", nil)
	}

	stream, err := adapter.InferStream(ctx, merged)
	if err == nil {
		r.engine.TrackLatency(merged.Model, time.Since(start).Milliseconds(),
			string(opts.EffectiveRequestType()), map[string]any{"request_id": requestID, "stream": true})
		return stream, nil
	}

	r.engine.TrackError(merged.Model, err.Error(), map[string]any{
		"request_id": requestID,
		"provider":   string(provider),
		"stream":     true,
	})
	if !opts.FallbacksEnabled() {
		return nil, err
	}

	// Walk the fallback list for a candidate that connects
	lastErr := err
	attempted := 0
	for _, candidate := range r.cfg.Fallbacks.Candidates(provider, tier) {
		if candidate == merged.Model {
			continue
		}
		candidateAdapter, ok := r.registry.ForModel(candidate)
		if !ok {
			continue
		}
		attempted++
		stream, streamErr := candidateAdapter.InferStream(ctx, merged.WithModel(candidate))
		if streamErr == nil {
			fiberlog.Infof("[%s] ✅ streaming fallback connected: %s", requestID, candidate)
			r.engine.TrackLatency(candidate, time.Since(start).Milliseconds(),
				string(opts.EffectiveRequestType()), map[string]any{"request_id": requestID, "stream": true})
			return stream, nil
		}
		fiberlog.Warnf("[%s] ❌ streaming fallback %s failed: %v", requestID, candidate, streamErr)
		lastErr = streamErr
	}

	if attempted == 0 {
		return nil, lastErr
	}
	return nil, models.NewServiceUnavailableError(opts.EffectiveRequestType(), lastErr)
}

func mergedTemperature(req *models.InferenceRequest) float64 {
	if req.Temperature.Valid() {
		return req.Temperature.Value
	}
	return 0
}
