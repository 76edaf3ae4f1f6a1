// Package providers holds the provider adapters the router dispatches to.
// Each adapter maps the provider-agnostic inference request onto one upstream
// SDK and normalizes the response back into models.InferenceResult.
package providers

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/solara-ai/inference-router/internal/models"
)

// Adapter is the interface every provider backend implements
type Adapter interface {
	// Provider returns the backend this adapter serves
	Provider() models.Provider
	// Infer performs one non-streaming inference call
	Infer(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResult, error)
	// InferStream performs one streaming inference call, yielding delta
	// chunks until the finish signal
	InferStream(ctx context.Context, req *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error)
}

// Registry resolves adapters by provider tag
type Registry struct {
	adapters map[models.Provider]Adapter
}

// NewRegistry builds a registry from the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[models.Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a provider
func (r *Registry) Get(provider models.Provider) (Adapter, bool) {
	a, ok := r.adapters[provider]
	return a, ok
}

// ForModel resolves the adapter from a model name's provider prefix
func (r *Registry) ForModel(model string) (Adapter, bool) {
	return r.Get(models.ProviderForModel(model))
}

// configHash fingerprints a provider config so cached SDK clients are rebuilt
// when the config changes. The API key is hashed, never embedded.
func configHash(providerConfig models.ProviderConfig) (string, error) {
	type configForHash struct {
		BaseURL    string
		TimeoutMs  int
		Headers    map[string]string
		APIKeyHash string
	}

	apiKeyHash := sha256.Sum256([]byte(providerConfig.APIKey))
	hashConfig := configForHash{
		BaseURL:    providerConfig.BaseURL,
		TimeoutMs:  providerConfig.TimeoutMs,
		Headers:    providerConfig.Headers,
		APIKeyHash: fmt.Sprintf("%x", apiKeyHash[:8]),
	}

	configJSON, err := json.Marshal(hashConfig)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(configJSON)
	return fmt.Sprintf("%x", hash[:16]), nil
}
