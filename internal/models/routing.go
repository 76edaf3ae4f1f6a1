package models

import "strings"

// Provider identifies an upstream inference backend
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// ModelTier is a named quality/latency class of model
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierStandard ModelTier = "standard"
	TierPremium  ModelTier = "premium"
	// TierVision is a provider-specific extra tier (gemini only)
	TierVision ModelTier = "vision"
)

// AllTiers lists every tier in precedence order. Lookups that search tier
// tables by model name must walk this slice so a model configured under two
// tiers always resolves to the same one.
var AllTiers = []ModelTier{TierFast, TierStandard, TierPremium, TierVision}

// RequestType classifies the workload a request belongs to
type RequestType string

const (
	RequestTypeChat              RequestType = "chat"
	RequestTypeSummarization     RequestType = "summarization"
	RequestTypeContentGeneration RequestType = "contentGeneration"
	RequestTypeEmbedding         RequestType = "embedding"
	RequestTypeDefault           RequestType = "default"
)

// Priority ranks a request for scheduling and observability purposes
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// providerPrefixes maps model-name prefixes to providers. New providers are
// added here rather than as another conditional branch.
var providerPrefixes = []struct {
	prefix   string
	provider Provider
}{
	{"gemini-", ProviderGemini},
	{"claude-", ProviderAnthropic},
}

// ProviderForModel resolves a provider from a model name. Model names with no
// known prefix (and the empty name) resolve to groq.
func ProviderForModel(model string) Provider {
	for _, entry := range providerPrefixes {
		if strings.HasPrefix(model, entry.prefix) {
			return entry.provider
		}
	}
	return ProviderGroq
}

// tierByRequestType is the default tier decision table used when neither an
// explicit tier nor a latency bound is given.
var tierByRequestType = map[RequestType]ModelTier{
	RequestTypeEmbedding:         TierFast,
	RequestTypeChat:              TierStandard,
	RequestTypeSummarization:     TierPremium,
	RequestTypeContentGeneration: TierPremium,
	RequestTypeDefault:           TierStandard,
}

// TierForRequestType maps a request type to its default model tier
func TierForRequestType(requestType RequestType) ModelTier {
	if tier, ok := tierByRequestType[requestType]; ok {
		return tier
	}
	return TierStandard
}

// TierForMaxLatency picks the cheapest tier that can satisfy a latency bound
func TierForMaxLatency(maxLatencyMs int) ModelTier {
	switch {
	case maxLatencyMs <= 100:
		return TierFast
	case maxLatencyMs <= 1000:
		return TierStandard
	default:
		return TierPremium
	}
}

// Valid reports whether the request type is a known value
func (rt RequestType) Valid() bool {
	switch rt {
	case RequestTypeChat, RequestTypeSummarization, RequestTypeContentGeneration,
		RequestTypeEmbedding, RequestTypeDefault:
		return true
	}
	return false
}

// Valid reports whether the tier is a known value
func (mt ModelTier) Valid() bool {
	switch mt {
	case TierFast, TierStandard, TierPremium, TierVision:
		return true
	}
	return false
}
