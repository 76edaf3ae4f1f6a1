package models

import (
	"github.com/openai/openai-go/v2/packages/param"
)

// InferenceRequest describes one inference call. Fields are immutable once the
// request enters the router; unset optional fields are filled from the
// resolved tier's defaults.
type InferenceRequest struct {
	Prompt       string             `json:"prompt"`
	SystemPrompt param.Opt[string]  `json:"system_prompt,omitzero"`
	Context      param.Opt[string]  `json:"context,omitzero"`
	Model        string             `json:"model,omitzero"`
	Temperature  param.Opt[float64] `json:"temperature,omitzero"`
	MaxTokens    param.Opt[int64]   `json:"max_tokens,omitzero"`
	TopP         param.Opt[float64] `json:"top_p,omitzero"`
	Stream       bool               `json:"stream,omitzero"`
}

// Validate checks the request for malformed fields. Validation failures are
// surfaced immediately and never retried or cascaded.
func (r *InferenceRequest) Validate() error {
	if r.Prompt == "" {
		return NewValidationError("prompt cannot be empty", nil)
	}
	if r.Temperature.Valid() && (r.Temperature.Value < 0 || r.Temperature.Value > 1) {
		return NewValidationError("temperature must be between 0 and 1", nil)
	}
	if r.MaxTokens.Valid() && r.MaxTokens.Value <= 0 {
		return NewValidationError("max_tokens must be greater than 0", nil)
	}
	if r.TopP.Valid() && (r.TopP.Value <= 0 || r.TopP.Value > 1) {
		return NewValidationError("top_p must be in (0, 1]", nil)
	}
	return nil
}

// WithModel returns a copy of the request with the model substituted. Used by
// the fallback cascade so the original request stays untouched.
func (r *InferenceRequest) WithModel(model string) *InferenceRequest {
	clone := *r
	clone.Model = model
	return &clone
}

// RouterOptions carries routing hints and correlation IDs for one request
type RouterOptions struct {
	Module       string          `json:"module,omitzero"`
	RequestType  RequestType     `json:"request_type,omitzero"`
	Priority     Priority        `json:"priority,omitzero"`
	ModelTier    ModelTier       `json:"model_tier,omitzero"`
	Provider     Provider        `json:"provider,omitzero"`
	UseFallbacks param.Opt[bool] `json:"use_fallbacks,omitzero"`
	UseCache     param.Opt[bool] `json:"use_cache,omitzero"`
	MaxLatencyMs int             `json:"max_latency_ms,omitzero"`
	UserID       string          `json:"user_id,omitzero"`
	SessionID    string          `json:"session_id,omitzero"`
	AgentID      string          `json:"agent_id,omitzero"`
}

// EffectiveRequestType returns the request type, defaulting when unset
func (o *RouterOptions) EffectiveRequestType() RequestType {
	if o.RequestType == "" {
		return RequestTypeDefault
	}
	return o.RequestType
}

// FallbacksEnabled reports whether fallback is active. Fallbacks default to
// on; only an explicit false disables them.
func (o *RouterOptions) FallbacksEnabled() bool {
	return !o.UseFallbacks.Valid() || o.UseFallbacks.Value
}

// CacheAllowed reports whether the caller permits cache use. Caching defaults
// to on; only an explicit false disables it.
func (o *RouterOptions) CacheAllowed() bool {
	return !o.UseCache.Valid() || o.UseCache.Value
}
