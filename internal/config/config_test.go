package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solara-ai/inference-router/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-abc123")
	os.Unsetenv("TEST_UNSET_VAR")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"set variable", "key: ${TEST_API_KEY}", "key: sk-abc123"},
		{"unset variable without default", "key: ${TEST_UNSET_VAR}", "key: "},
		{"unset variable with default", "key: ${TEST_UNSET_VAR:-fallback}", "key: fallback"},
		{"set variable ignores default", "key: ${TEST_API_KEY:-fallback}", "key: sk-abc123"},
		{"no substitution", "key: plain", "key: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, substituteEnvVars(tt.input))
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "sk-groq")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
  allowed_origins: "*"
  environment: production
  log_level: warn
providers:
  groq:
    api_key: ${TEST_GROQ_KEY}
cache:
  enabled: true
  backend: memory
monitoring:
  latency_acceptable_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "warn", cfg.GetNormalizedLogLevel())

	pc, ok := cfg.ProviderConfig(models.ProviderGroq)
	require.True(t, ok)
	assert.Equal(t, "sk-groq", pc.APIKey)

	// explicit override plus filled defaults
	assert.Equal(t, int64(500), cfg.Monitoring.LatencyAcceptableMs)
	assert.Equal(t, models.DefaultLatencyPoorMs, cfg.Monitoring.LatencyPoorMs)
	assert.Equal(t, models.DefaultLatencyCooldown, cfg.Monitoring.LatencyCooldown)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFileRejectsBadPaths(t *testing.T) {
	_, err := LoadFromFile("../../../etc/passwd.yaml")
	assert.Error(t, err)

	_, err = LoadFromFile("config.json")
	assert.Error(t, err)
}

func TestDefaultsFillMissingTiers(t *testing.T) {
	cfg := Default()

	for _, provider := range []models.Provider{models.ProviderGroq, models.ProviderGemini, models.ProviderAnthropic} {
		for _, tier := range []models.ModelTier{models.TierFast, models.TierStandard, models.TierPremium} {
			tierCfg, ok := cfg.TierConfig(provider, tier)
			require.True(t, ok, "%s/%s missing", provider, tier)
			assert.NotEmpty(t, tierCfg.Name)
			assert.Positive(t, tierCfg.TimeoutMs)
		}
	}

	// vision is gemini-only
	_, ok := cfg.TierConfig(models.ProviderGemini, models.TierVision)
	assert.True(t, ok)
	_, ok = cfg.TierConfig(models.ProviderGroq, models.TierVision)
	assert.False(t, ok)

	assert.NotEmpty(t, cfg.Fallbacks.Candidates(models.ProviderGroq, models.TierStandard))
	assert.InDelta(t, 0.3, cfg.Cache.MaxCacheableTemperature, 1e-9)
}

func TestTierForModel(t *testing.T) {
	cfg := Default()

	tier, ok := cfg.TierForModel(models.ProviderGroq, "deepseek-r1-distill-llama-70b")
	require.True(t, ok)
	assert.Equal(t, models.TierPremium, tier)

	_, ok = cfg.TierForModel(models.ProviderGroq, "unknown-model")
	assert.False(t, ok)

	_, ok = cfg.TierForModel(models.Provider("nonexistent"), "deepseek-r1-distill-llama-70b")
	assert.False(t, ok)
}

func TestTierForModelSharedModelNameIsDeterministic(t *testing.T) {
	cfg := Default()

	// gemini-2.0-flash is the configured model for both the standard and
	// vision tiers; resolution must land on the same tier every time.
	for i := 0; i < 1000; i++ {
		tier, ok := cfg.TierForModel(models.ProviderGemini, "gemini-2.0-flash")
		require.True(t, ok)
		require.Equal(t, models.TierStandard, tier)
	}
}

func TestValidateRequiresRedisURLForRedisBackend(t *testing.T) {
	cfg := Default()
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = models.CacheBackendRedis

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis_url")

	cfg.Cache.RedisURL = "redis://localhost:6379"
	assert.NoError(t, cfg.Validate())
}
