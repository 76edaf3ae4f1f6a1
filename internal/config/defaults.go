package config

import "github.com/solara-ai/inference-router/internal/models"

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

func floatPtr(v float64) *float64 { return &v }

// defaultTiers is the built-in tier table. Config files override per entry.
var defaultTiers = map[models.Provider]map[models.ModelTier]models.ModelTierConfig{
	models.ProviderGroq: {
		models.TierFast: {
			Name:        "llama-3.1-8b-instant",
			Temperature: 0.7,
			MaxTokens:   1024,
			TopP:        floatPtr(0.9),
			TimeoutMs:   10000,
			Priority:    models.PriorityHigh,
		},
		models.TierStandard: {
			Name:        "llama-3.3-70b-versatile",
			Temperature: 0.7,
			MaxTokens:   2048,
			TopP:        floatPtr(0.9),
			TimeoutMs:   20000,
			Priority:    models.PriorityMedium,
		},
		models.TierPremium: {
			Name:        "deepseek-r1-distill-llama-70b",
			Temperature: 0.6,
			MaxTokens:   4096,
			TopP:        floatPtr(0.95),
			TimeoutMs:   45000,
			Priority:    models.PriorityLow,
		},
	},
	models.ProviderGemini: {
		models.TierFast: {
			Name:        "gemini-2.0-flash-lite",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutMs:   10000,
			Priority:    models.PriorityHigh,
		},
		models.TierStandard: {
			Name:        "gemini-2.0-flash",
			Temperature: 0.7,
			MaxTokens:   2048,
			TimeoutMs:   20000,
			Priority:    models.PriorityMedium,
		},
		models.TierPremium: {
			Name:        "gemini-2.5-pro",
			Temperature: 0.6,
			MaxTokens:   8192,
			TimeoutMs:   60000,
			Priority:    models.PriorityLow,
		},
		// Gemini carries an extra vision tier the other providers lack
		models.TierVision: {
			Name:        "gemini-2.0-flash",
			Temperature: 0.4,
			MaxTokens:   2048,
			TimeoutMs:   30000,
			Priority:    models.PriorityMedium,
		},
	},
	models.ProviderAnthropic: {
		models.TierFast: {
			Name:        "claude-3-5-haiku-latest",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutMs:   15000,
			Priority:    models.PriorityHigh,
		},
		models.TierStandard: {
			Name:        "claude-sonnet-4-20250514",
			Temperature: 0.7,
			MaxTokens:   2048,
			TimeoutMs:   30000,
			Priority:    models.PriorityMedium,
		},
		models.TierPremium: {
			Name:        "claude-opus-4-1",
			Temperature: 0.6,
			MaxTokens:   8192,
			TimeoutMs:   60000,
			Priority:    models.PriorityLow,
		},
	},
}

// DefaultFallbacks returns the built-in fallback table. Lists are ordered by
// caller-configured priority and may mix providers; the cascade re-resolves
// the provider per candidate from the model name.
func DefaultFallbacks() models.FallbackTable {
	return models.FallbackTable{
		models.ProviderGroq: {
			models.TierFast: {
				"llama-3.1-8b-instant",
				"gemini-2.0-flash-lite",
			},
			models.TierStandard: {
				"llama-3.3-70b-versatile",
				"llama-3.1-8b-instant",
				"gemini-2.0-flash",
			},
			models.TierPremium: {
				"deepseek-r1-distill-llama-70b",
				"llama-3.3-70b-versatile",
				"gemini-2.5-pro",
			},
		},
		models.ProviderGemini: {
			models.TierFast: {
				"gemini-2.0-flash-lite",
				"llama-3.1-8b-instant",
			},
			models.TierStandard: {
				"gemini-2.0-flash",
				"gemini-2.0-flash-lite",
				"llama-3.3-70b-versatile",
			},
			models.TierPremium: {
				"gemini-2.5-pro",
				"gemini-2.0-flash",
				"claude-sonnet-4-20250514",
			},
			models.TierVision: {
				"gemini-2.0-flash",
				"gemini-2.5-pro",
			},
		},
		models.ProviderAnthropic: {
			models.TierFast: {
				"claude-3-5-haiku-latest",
				"llama-3.1-8b-instant",
			},
			models.TierStandard: {
				"claude-sonnet-4-20250514",
				"claude-3-5-haiku-latest",
				"gemini-2.0-flash",
			},
			models.TierPremium: {
				"claude-opus-4-1",
				"claude-sonnet-4-20250514",
				"gemini-2.5-pro",
			},
		},
	}
}
