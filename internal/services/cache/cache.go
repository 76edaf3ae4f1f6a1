// Package cache implements the response cache the router short-circuits
// through for near-deterministic requests. An exact tier (Redis or in-memory)
// is keyed by a content hash; an optional semantic tier matches similar
// prompts via embeddings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solara-ai/inference-router/internal/models"

	"github.com/botirk38/semanticcache"
	"github.com/botirk38/semanticcache/options"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix                = "inference:response:"
	defaultSemanticThreshold = 0.95
	defaultEmbeddingModel    = "text-embedding-3-small"
)

// KeyParams are the request facets that determine cache identity. Two
// requests with equal KeyParams are interchangeable for caching purposes.
type KeyParams struct {
	Prompt       string             `json:"prompt"`
	Model        string             `json:"model"`
	Temperature  float64            `json:"temperature"`
	MaxTokens    int64              `json:"max_tokens"`
	UserID       string             `json:"user_id,omitzero"`
	Module       string             `json:"module,omitzero"`
	RequestType  models.RequestType `json:"request_type,omitzero"`
	SystemPrompt string             `json:"system_prompt,omitzero"`
}

// GenerateKey derives the deterministic cache key for a set of key params
func GenerateKey(p KeyParams) string {
	data, err := json.Marshal(p)
	if err != nil {
		// Marshal of a flat struct cannot realistically fail; fall back to
		// the prompt alone rather than poisoning the cache with a bad key.
		data = []byte(p.Prompt + ":" + p.Model)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Backend is the exact-tier storage a Service writes through to
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Service is the response cache consumed by the router
type Service struct {
	backend           Backend
	semantic          *semanticcache.SemanticCache[string, models.InferenceResult]
	semanticThreshold float32
	ttl               time.Duration
	maxTemperature    float64
	enabled           bool
}

// NewService builds the cache service from configuration. A disabled config
// yields a service whose Eligible always reports false.
func NewService(cfg models.CacheConfig) (*Service, error) {
	svc := &Service{
		enabled:        cfg.Enabled,
		ttl:            time.Duration(cfg.TTLSec) * time.Second,
		maxTemperature: cfg.MaxCacheableTemperature,
	}
	if !cfg.Enabled {
		fiberlog.Info("cache: disabled")
		return svc, nil
	}

	switch cfg.Backend {
	case models.CacheBackendMemory, "":
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = 1000
		}
		fiberlog.Infof("cache: using in-memory backend (capacity %d)", capacity)
		svc.backend = NewMemoryBackend(capacity)
	case models.CacheBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache: redis backend requires redis_url")
		}
		backend, err := NewRedisBackend(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		fiberlog.Info("cache: using redis backend")
		svc.backend = backend
	default:
		return nil, fmt.Errorf("cache: unsupported backend %q (supported: redis, memory)", cfg.Backend)
	}

	if cfg.SemanticEnabled && cfg.OpenAIAPIKey != "" {
		if err := svc.initSemantic(cfg); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func (s *Service) initSemantic(cfg models.CacheConfig) error {
	threshold := cfg.SemanticThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSemanticThreshold
		fiberlog.Warnf("cache: invalid semantic threshold %.2f, using default %.2f", cfg.SemanticThreshold, threshold)
	}
	s.semanticThreshold = float32(threshold)

	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = defaultEmbeddingModel
	}

	var (
		sem *semanticcache.SemanticCache[string, models.InferenceResult]
		err error
	)
	switch cfg.Backend {
	case models.CacheBackendRedis:
		sem, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.InferenceResult](cfg.OpenAIAPIKey, embedModel),
			options.WithRedisBackend[string, models.InferenceResult](cfg.RedisURL, 0),
		)
	default:
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = 1000
		}
		sem, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.InferenceResult](cfg.OpenAIAPIKey, embedModel),
			options.WithLRUBackend[string, models.InferenceResult](capacity),
		)
	}
	if err != nil {
		return fmt.Errorf("cache: failed to create semantic tier: %w", err)
	}
	s.semantic = sem
	fiberlog.Infof("cache: semantic tier enabled (threshold %.2f)", threshold)
	return nil
}

// RedisClient returns the underlying redis client when the exact tier runs
// on redis, or nil otherwise. Used for health reporting.
func (s *Service) RedisClient() *redis.Client {
	if rb, ok := s.backend.(*RedisBackend); ok {
		return rb.Client()
	}
	return nil
}

// Enabled reports whether the cache is globally on
func (s *Service) Enabled() bool {
	return s.enabled
}

// Eligible reports whether a request with the given merged parameters may use
// the cache: the cache must be on, the caller must not have opted out, the
// request must be near-deterministic, and there must be a prompt to key on.
func (s *Service) Eligible(callerAllows bool, temperature float64, prompt string) bool {
	return s.enabled && callerAllows && temperature <= s.maxTemperature && prompt != ""
}

// Get returns the cached result for a key. The returned tier names which
// cache tier answered (exact or semantic).
func (s *Service) Get(ctx context.Context, key, prompt, requestID string) (*models.InferenceResult, string, bool) {
	if s.backend == nil {
		return nil, "", false
	}

	data, found, err := s.backend.Get(ctx, key)
	if err != nil {
		fiberlog.Errorf("[%s] cache: exact lookup failed: %v", requestID, err)
	} else if found {
		var result models.InferenceResult
		if err := json.Unmarshal(data, &result); err != nil {
			fiberlog.Errorf("[%s] cache: corrupt entry for key, dropping: %v", requestID, err)
		} else {
			fiberlog.Infof("[%s] cache: exact hit", requestID)
			return &result, models.CacheTierExact, true
		}
	}

	if s.semantic != nil {
		if match, err := s.semantic.Lookup(ctx, prompt, s.semanticThreshold); err == nil && match != nil {
			fiberlog.Infof("[%s] cache: semantic hit", requestID)
			return &match.Value, models.CacheTierSemantic, true
		} else if err != nil {
			fiberlog.Errorf("[%s] cache: semantic lookup failed: %v", requestID, err)
		}
	}

	fiberlog.Debugf("[%s] cache: miss", requestID)
	return nil, "", false
}

// Set stores a result under key. Failures are logged, never returned: a
// missed cache write must not fail the request.
func (s *Service) Set(ctx context.Context, key, prompt string, result *models.InferenceResult, requestID string) {
	if s.backend == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		fiberlog.Errorf("[%s] cache: marshal failed: %v", requestID, err)
		return
	}
	if err := s.backend.Set(ctx, key, data, s.ttl); err != nil {
		fiberlog.Errorf("[%s] cache: store failed: %v", requestID, err)
		return
	}

	if s.semantic != nil {
		if err := s.semantic.Set(ctx, prompt, prompt, *result); err != nil {
			fiberlog.Errorf("[%s] cache: semantic store failed: %v", requestID, err)
		}
	}
	fiberlog.Debugf("[%s] cache: stored response", requestID)
}
