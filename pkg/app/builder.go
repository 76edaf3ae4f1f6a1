package app

import (
	"time"

	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
)

// Builder provides a fluent interface for building router configurations in
// code, for embedders who do not want a YAML file.
type Builder struct {
	cfg *config.Config
}

// NewBuilder creates a configuration builder with minimal defaults
func NewBuilder() *Builder {
	return &Builder{cfg: config.Default()}
}

// Port sets the server port
func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

// AllowedOrigins sets CORS allowed origins
func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

// Environment sets the environment (development/production)
func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

// LogLevel sets the logging level (trace, debug, info, warn, error, fatal)
func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// WithProvider sets the connection configuration for one provider. Tier
// defaults stay in place for tiers the given config does not name.
func (b *Builder) WithProvider(provider models.Provider, pc models.ProviderConfig) *Builder {
	existing := b.cfg.Providers[provider]
	existing.APIKey = pc.APIKey
	if pc.BaseURL != "" {
		existing.BaseURL = pc.BaseURL
	}
	if pc.TimeoutMs > 0 {
		existing.TimeoutMs = pc.TimeoutMs
	}
	if pc.Headers != nil {
		existing.Headers = pc.Headers
	}
	for tier, tierCfg := range pc.Tiers {
		existing.Tiers[tier] = tierCfg
	}
	b.cfg.Providers[provider] = existing
	return b
}

// WithFallbacks replaces the fallback table
func (b *Builder) WithFallbacks(table models.FallbackTable) *Builder {
	b.cfg.Fallbacks = table
	return b
}

// WithCache enables response caching
func (b *Builder) WithCache(cfg models.CacheConfig) *Builder {
	cfg.Enabled = true
	if cfg.MaxCacheableTemperature <= 0 {
		cfg.MaxCacheableTemperature = 0.3
	}
	if cfg.TTLSec <= 0 {
		cfg.TTLSec = 3600
	}
	b.cfg.Cache = cfg
	return b
}

// WithMonitoring sets alert thresholds and cooldowns. Unset fields keep
// their defaults.
func (b *Builder) WithMonitoring(cfg models.MonitoringConfig) *Builder {
	cfg.Enabled = true
	b.cfg.Monitoring = cfg.WithDefaults()
	return b
}

// WithDatabase enables alert and provenance persistence
func (b *Builder) WithDatabase(cfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &cfg
	return b
}

// WithWebhookNotifier routes ERROR and CRITICAL alerts to a webhook
func (b *Builder) WithWebhookNotifier(url string, timeout time.Duration) *Builder {
	b.cfg.Notifier = config.NotifierConfig{
		WebhookURL: url,
		TimeoutMs:  int(timeout.Milliseconds()),
	}
	return b
}

// WithTracking enables request provenance logging for requests carrying a
// user identity. Requires a database.
func (b *Builder) WithTracking() *Builder {
	b.cfg.Tracking = true
	return b
}

// Build returns the assembled configuration
func (b *Builder) Build() *config.Config {
	return b.cfg
}

// BuildApp returns a ready-to-run App for the assembled configuration
func (b *Builder) BuildApp() *App {
	return New(b.cfg)
}
