// Package fallback walks the ordered fallback list after a primary model
// fails, trying alternate models sequentially until one succeeds.
package fallback

import (
	"context"
	"time"

	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"
	"github.com/solara-ai/inference-router/internal/services/providers"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Cascade provides reusable fallback logic for the request router
type Cascade struct {
	cfg      *config.Config
	registry *providers.Registry
	engine   *alerts.Engine
}

// NewCascade creates a new fallback cascade
func NewCascade(cfg *config.Config, registry *providers.Registry, engine *alerts.Engine) *Cascade {
	return &Cascade{
		cfg:      cfg,
		registry: registry,
		engine:   engine,
	}
}

// Run walks the fallback list for (provider, tier) after failedModel failed
// with originalErr. Candidates run strictly sequentially and the first
// success wins; the failed model itself is never retried. With no fallback
// list configured the original error is rethrown untouched; when every
// candidate fails the aggregate is a terminal ServiceUnavailable carrying the
// request type and the last candidate's error.
func (fc *Cascade) Run(
	ctx context.Context,
	failedModel string,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
	tier models.ModelTier,
	originalErr error,
	requestID string,
) (*models.InferenceResult, error) {
	// Re-derive the provider rather than trusting a cached value; the failed
	// model may have switched provider mid-cascade on a previous hop.
	provider := opts.Provider
	if provider == "" {
		provider = models.ProviderForModel(failedModel)
	}

	candidates := fc.cfg.Fallbacks.Candidates(provider, tier)
	if len(candidates) == 0 {
		fiberlog.Warnf("[%s] no fallbacks configured for %s/%s, rethrowing original error", requestID, provider, tier)
		return nil, originalErr
	}

	fiberlog.Infof("[%s] ═══ Fallback Cascade Started (%d candidates, failed model: %s) ═══",
		requestID, len(candidates), failedModel)

	lastErr := originalErr
	attempted := 0
	for i, candidate := range candidates {
		if candidate == failedModel {
			fiberlog.Debugf("[%s] skipping candidate %d/%d: %s already failed", requestID, i+1, len(candidates), candidate)
			continue
		}

		// A fallback list may mix providers; resolve per candidate.
		candidateProvider := models.ProviderForModel(candidate)
		adapter, ok := fc.registry.Get(candidateProvider)
		if !ok {
			fiberlog.Warnf("[%s] no adapter for provider %s (candidate %s), skipping", requestID, candidateProvider, candidate)
			continue
		}

		attempted++
		fiberlog.Infof("[%s] 🔄 Trying fallback [%d/%d]: %s/%s", requestID, i+1, len(candidates), candidateProvider, candidate)

		result, err := fc.attempt(ctx, adapter, candidateProvider, req.WithModel(candidate), tier)
		if err == nil {
			fiberlog.Infof("[%s] ✅ Fallback succeeded with %s/%s", requestID, candidateProvider, candidate)
			fiberlog.Infof("[%s] ═══ Fallback Cascade Complete ═══", requestID)
			return result, nil
		}

		fiberlog.Warnf("[%s] ❌ Fallback %s/%s failed: %v", requestID, candidateProvider, candidate, err)
		fc.engine.TrackError(candidate, err.Error(), map[string]any{
			"request_id": requestID,
			"provider":   string(candidateProvider),
			"fallback":   true,
		})
		lastErr = err
	}

	if attempted == 0 {
		// Every candidate was the failed model itself (or unroutable):
		// nothing new was tried, so the original error stands.
		fiberlog.Warnf("[%s] no viable fallback candidates, rethrowing original error", requestID)
		return nil, originalErr
	}

	fiberlog.Errorf("[%s] 💥 All fallback candidates failed", requestID)
	fiberlog.Infof("[%s] ═══ Fallback Cascade Complete (All Failed) ═══", requestID)
	return nil, models.NewServiceUnavailableError(opts.EffectiveRequestType(), lastErr)
}

// attempt runs one candidate under the candidate tier's timeout
func (fc *Cascade) attempt(
	ctx context.Context,
	adapter providers.Adapter,
	provider models.Provider,
	req *models.InferenceRequest,
	tier models.ModelTier,
) (*models.InferenceResult, error) {
	if tierCfg, ok := fc.cfg.TierConfig(provider, tier); ok && tierCfg.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(tierCfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	return adapter.Infer(ctx, req)
}
