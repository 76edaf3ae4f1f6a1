package providers

import (
	"context"
	"iter"
	"time"

	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// GeminiAdapter serves Google Gemini through the genai SDK
type GeminiAdapter struct {
	providerConfig models.ProviderConfig
	clientCache    *clientcache.Cache[*genai.Client]
}

// NewGeminiAdapter creates a Gemini adapter
func NewGeminiAdapter(providerConfig models.ProviderConfig) *GeminiAdapter {
	return &GeminiAdapter{
		providerConfig: providerConfig,
		clientCache:    clientcache.New[*genai.Client](),
	}
}

// Provider returns the backend this adapter serves
func (ga *GeminiAdapter) Provider() models.Provider {
	return models.ProviderGemini
}

func (ga *GeminiAdapter) client(ctx context.Context) (*genai.Client, error) {
	hash, err := configHash(ga.providerConfig)
	if err != nil {
		fiberlog.Warnf("gemini: config hash failed: %v, building uncached client", err)
		return ga.buildClient(ctx)
	}

	return ga.clientCache.GetOrCreate(hash, func() (*genai.Client, error) {
		fiberlog.Debugf("gemini: creating client (config hash: %s)", hash[:8])
		return ga.buildClient(ctx)
	})
}

func (ga *GeminiAdapter) buildClient(ctx context.Context) (*genai.Client, error) {
	if ga.providerConfig.APIKey == "" {
		return nil, models.NewProviderError(models.ProviderGemini, "API key not configured", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  ga.providerConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, models.NewProviderError(models.ProviderGemini, "failed to create client", err)
	}
	return client, nil
}

func (ga *GeminiAdapter) generationConfig(req *models.InferenceRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature.Valid() {
		cfg.Temperature = genai.Ptr(float32(req.Temperature.Value))
	}
	if req.TopP.Valid() {
		cfg.TopP = genai.Ptr(float32(req.TopP.Value))
	}
	if req.MaxTokens.Valid() {
		cfg.MaxOutputTokens = int32(req.MaxTokens.Value)
	}

	system := ""
	if req.SystemPrompt.Valid() {
		system = req.SystemPrompt.Value
	}
	if req.Context.Valid() && req.Context.Value != "" {
		if system != "" {
			system += "\n\n"
		}
		system += "Context:\n" + req.Context.Value
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return cfg
}

// Infer performs one non-streaming generate call against Gemini
func (ga *GeminiAdapter) Infer(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResult, error) {
	client, err := ga.client(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), ga.generationConfig(req))
	duration := time.Since(start)

	if err != nil {
		fiberlog.Errorf("gemini: generate failed after %v - model: %s: %v", duration, req.Model, err)
		return nil, models.NewProviderError(models.ProviderGemini, "generate request failed", err)
	}
	fiberlog.Debugf("gemini: generate finished in %v - model: %s", duration, req.Model)

	return convertGeminiResponse(resp, req.Model), nil
}

// InferStream performs one streaming generate call against Gemini
func (ga *GeminiAdapter) InferStream(ctx context.Context, req *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error) {
	client, err := ga.client(ctx)
	if err != nil {
		return nil, err
	}

	streamIter := client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), ga.generationConfig(req))

	return func(yield func(*models.StreamChunk, error) bool) {
		for resp, err := range streamIter {
			if err != nil {
				yield(nil, models.NewProviderError(models.ProviderGemini, "stream failed", err))
				return
			}

			chunk := &models.StreamChunk{ID: resp.ResponseID, Model: req.Model}
			finish := ""
			if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
				finish = string(resp.Candidates[0].FinishReason)
			}
			chunk.Choices = []models.StreamChoice{{
				Delta:        models.StreamDelta{Content: resp.Text()},
				FinishReason: finish,
			}}
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

func convertGeminiResponse(resp *genai.GenerateContentResponse, model string) *models.InferenceResult {
	result := &models.InferenceResult{
		ID:       resp.ResponseID,
		Object:   "chat.completion",
		Created:  time.Now().Unix(),
		Model:    model,
		Provider: models.ProviderGemini,
	}

	finish := "stop"
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		finish = string(resp.Candidates[0].FinishReason)
	}
	result.Choices = []models.InferenceChoice{{
		Message: models.ChatMessage{
			Role:    "assistant",
			Content: resp.Text(),
		},
		FinishReason: finish,
	}}

	if resp.UsageMetadata != nil {
		result.Usage = models.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result
}
