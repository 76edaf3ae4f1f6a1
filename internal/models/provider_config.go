package models

// ProviderConfig holds connection configuration for one LLM provider
type ProviderConfig struct {
	APIKey    string            `yaml:"api_key" json:"api_key,omitzero"`
	BaseURL   string            `yaml:"base_url" json:"base_url,omitzero"`   // Optional custom base URL
	TimeoutMs int               `yaml:"timeout_ms" json:"timeout_ms,omitzero"` // Optional client timeout in milliseconds
	Headers   map[string]string `yaml:"headers" json:"headers,omitzero"`     // Optional custom headers
	// Tiers maps tier name to that tier's model defaults
	Tiers map[ModelTier]ModelTierConfig `yaml:"tiers" json:"tiers,omitzero"`
}

// ModelTierConfig holds per-tier model defaults. Request fields override
// these; unset request fields fall back to the tier values.
type ModelTierConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Temperature float64  `yaml:"temperature" json:"temperature"`
	MaxTokens   int64    `yaml:"max_tokens" json:"max_tokens"`
	TopP        *float64 `yaml:"top_p,omitempty" json:"top_p,omitzero"`
	TimeoutMs   int      `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitzero"`
	Priority    Priority `yaml:"priority,omitempty" json:"priority,omitzero"`
}

// FallbackTable maps provider then tier to the ordered list of model names
// tried after the primary model fails.
type FallbackTable map[Provider]map[ModelTier][]string

// Candidates returns the fallback model list for a provider/tier pair, or nil
// when no fallbacks are configured for it.
func (t FallbackTable) Candidates(provider Provider, tier ModelTier) []string {
	tiers, ok := t[provider]
	if !ok {
		return nil
	}
	return tiers[tier]
}
