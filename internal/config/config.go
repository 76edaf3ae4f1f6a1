package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/solara-ai/inference-router/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server     models.ServerConfig                       `yaml:"server"`
	Providers  map[models.Provider]models.ProviderConfig `yaml:"providers"`
	Fallbacks  models.FallbackTable                      `yaml:"fallbacks"`
	Cache      models.CacheConfig                        `yaml:"cache"`
	Monitoring models.MonitoringConfig                   `yaml:"monitoring"`
	Database   *models.DatabaseConfig                    `yaml:"database,omitempty"`
	Notifier   NotifierConfig                            `yaml:"notifier"`
	// Tracking enables request provenance persistence for requests that
	// carry a user identity.
	Tracking bool `yaml:"tracking"`
}

// NotifierConfig holds settings for the admin alert notifier
type NotifierConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	// Substitute environment variables before parsing
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence.
// Loads files in the order provided (first has highest priority).
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// Default returns a Config carrying only the built-in defaults, suitable for
// tests and for embedding the router without a config file.
func Default() *Config {
	cfg := &Config{
		Server: models.ServerConfig{
			Port:           "8080",
			AllowedOrigins: "*",
			Environment:    "development",
			LogLevel:       "info",
		},
	}
	cfg.applyDefaults()
	return cfg
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// applyDefaults fills unset sections with built-in defaults so a minimal
// config file still yields a runnable router.
func (c *Config) applyDefaults() {
	if c.Providers == nil {
		c.Providers = map[models.Provider]models.ProviderConfig{}
	}
	for provider, tiers := range defaultTiers {
		pc := c.Providers[provider]
		if pc.Tiers == nil {
			pc.Tiers = map[models.ModelTier]models.ModelTierConfig{}
		}
		for tier, tierCfg := range tiers {
			if _, ok := pc.Tiers[tier]; !ok {
				pc.Tiers[tier] = tierCfg
			}
		}
		c.Providers[provider] = pc
	}
	if c.Fallbacks == nil {
		c.Fallbacks = DefaultFallbacks()
	}
	if c.Cache.MaxCacheableTemperature <= 0 {
		c.Cache.MaxCacheableTemperature = 0.3
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	c.Monitoring = c.Monitoring.WithDefaults()
}

// TierConfig returns the model defaults for a provider/tier pair
func (c *Config) TierConfig(provider models.Provider, tier models.ModelTier) (models.ModelTierConfig, bool) {
	pc, ok := c.Providers[provider]
	if !ok || pc.Tiers == nil {
		return models.ModelTierConfig{}, false
	}
	tierCfg, ok := pc.Tiers[tier]
	return tierCfg, ok
}

// TierForModel returns the tier whose configured model name exactly matches
// the given model for the provider, or false when none does. Tiers are
// checked in models.AllTiers order, so a model name shared by two tiers
// (gemini's standard and vision both run gemini-2.0-flash) resolves to the
// same tier on every call.
func (c *Config) TierForModel(provider models.Provider, model string) (models.ModelTier, bool) {
	pc, ok := c.Providers[provider]
	if !ok {
		return "", false
	}
	for _, tier := range models.AllTiers {
		if tierCfg, ok := pc.Tiers[tier]; ok && tierCfg.Name == model {
			return tier, true
		}
	}
	return "", false
}

// ProviderConfig returns the connection configuration for a provider
func (c *Config) ProviderConfig(provider models.Provider) (models.ProviderConfig, bool) {
	pc, ok := c.Providers[provider]
	return pc, ok
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Cache.Enabled && c.Cache.Backend == models.CacheBackendRedis && c.Cache.RedisURL == "" {
		missing = append(missing, "cache.redis_url")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
