package models

// CacheBackendType represents the type of cache backend to use
type CacheBackendType string

const (
	CacheBackendRedis  CacheBackendType = "redis"
	CacheBackendMemory CacheBackendType = "memory"
)

// CacheConfig holds configuration for response caching (optional)
type CacheConfig struct {
	Enabled  bool             `json:"enabled,omitzero" yaml:"enabled"`
	Backend  CacheBackendType `json:"backend,omitzero" yaml:"backend"`     // "redis" or "memory"
	RedisURL string           `json:"redis_url,omitzero" yaml:"redis_url"` // Required if backend is "redis"
	Capacity int              `json:"capacity,omitzero" yaml:"capacity"`   // Required if backend is "memory"
	TTLSec   int              `json:"ttl_sec,omitzero" yaml:"ttl_sec"`

	// MaxCacheableTemperature bounds which requests may use the cache. Only
	// near-deterministic requests are worth caching.
	MaxCacheableTemperature float64 `json:"max_cacheable_temperature,omitzero" yaml:"max_cacheable_temperature"`

	// Semantic tier settings (optional, requires an embedding provider)
	SemanticEnabled   bool    `json:"semantic_enabled,omitzero" yaml:"semantic_enabled"`
	SemanticThreshold float64 `json:"semantic_threshold,omitzero" yaml:"semantic_threshold"`
	OpenAIAPIKey      string  `json:"openai_api_key,omitzero" yaml:"openai_api_key"`
	EmbeddingModel    string  `json:"embedding_model,omitzero" yaml:"embedding_model"`
}
