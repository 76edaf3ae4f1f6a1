package providers

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqAdapter serves Groq through its OpenAI-compatible endpoint
type GroqAdapter struct {
	providerConfig models.ProviderConfig
	clientCache    *clientcache.Cache[*openai.Client]
}

// NewGroqAdapter creates a Groq adapter
func NewGroqAdapter(providerConfig models.ProviderConfig) *GroqAdapter {
	if providerConfig.BaseURL == "" {
		providerConfig.BaseURL = defaultGroqBaseURL
	}
	return &GroqAdapter{
		providerConfig: providerConfig,
		clientCache:    clientcache.New[*openai.Client](),
	}
}

// Provider returns the backend this adapter serves
func (ga *GroqAdapter) Provider() models.Provider {
	return models.ProviderGroq
}

func (ga *GroqAdapter) client(isStream bool) (*openai.Client, error) {
	hash, err := configHash(ga.providerConfig)
	if err != nil {
		fiberlog.Warnf("groq: config hash failed: %v, building uncached client", err)
		return ga.buildClient(isStream)
	}

	key := hash
	if isStream {
		key += ":stream"
	}
	return ga.clientCache.GetOrCreate(key, func() (*openai.Client, error) {
		fiberlog.Debugf("groq: creating client (config hash: %s)", hash[:8])
		return ga.buildClient(isStream)
	})
}

func (ga *GroqAdapter) buildClient(isStream bool) (*openai.Client, error) {
	if ga.providerConfig.APIKey == "" {
		return nil, models.NewProviderError(models.ProviderGroq, "API key not configured", nil)
	}

	opts := []openaiOption.RequestOption{
		openaiOption.WithAPIKey(ga.providerConfig.APIKey),
		openaiOption.WithBaseURL(ga.providerConfig.BaseURL),
	}
	for key, value := range ga.providerConfig.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}

	// Client-level timeout only for non-streaming requests; SSE connections
	// must stay open past it.
	if ga.providerConfig.TimeoutMs > 0 && !isStream {
		httpClient := &http.Client{Timeout: time.Duration(ga.providerConfig.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}

func (ga *GroqAdapter) params(req *models.InferenceRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt.Valid() && req.SystemPrompt.Value != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt.Value))
	}
	if req.Context.Valid() && req.Context.Value != "" {
		messages = append(messages, openai.SystemMessage("Context:\n"+req.Context.Value))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	return openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	}
}

// Infer performs one non-streaming completion against Groq
func (ga *GroqAdapter) Infer(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResult, error) {
	client, err := ga.client(false)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, ga.params(req))
	duration := time.Since(start)

	if err != nil {
		fiberlog.Errorf("groq: completion failed after %v - model: %s: %v", duration, req.Model, err)
		return nil, models.NewProviderError(models.ProviderGroq, "completion request failed", err)
	}
	fiberlog.Debugf("groq: completion finished in %v - model: %s, total tokens: %d",
		duration, resp.Model, resp.Usage.TotalTokens)

	return convertOpenAICompletion(resp, models.ProviderGroq), nil
}

// InferStream performs one streaming completion against Groq
func (ga *GroqAdapter) InferStream(ctx context.Context, req *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error) {
	client, err := ga.client(true)
	if err != nil {
		return nil, err
	}

	stream := client.Chat.Completions.NewStreaming(ctx, ga.params(req))

	return func(yield func(*models.StreamChunk, error) bool) {
		defer func() {
			if err := stream.Close(); err != nil {
				fiberlog.Warnf("groq: closing stream: %v", err)
			}
		}()
		for stream.Next() {
			chunk := stream.Current()
			out := &models.StreamChunk{ID: chunk.ID, Model: chunk.Model}
			for _, choice := range chunk.Choices {
				out.Choices = append(out.Choices, models.StreamChoice{
					Index:        choice.Index,
					Delta:        models.StreamDelta{Content: choice.Delta.Content},
					FinishReason: choice.FinishReason,
				})
			}
			if !yield(out, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, models.NewProviderError(models.ProviderGroq, "stream failed", err))
		}
	}, nil
}

// convertOpenAICompletion maps an OpenAI-shape completion onto the adapter-
// agnostic result. Shared with any future OpenAI-compatible provider.
func convertOpenAICompletion(resp *openai.ChatCompletion, provider models.Provider) *models.InferenceResult {
	result := &models.InferenceResult{
		ID:       resp.ID,
		Object:   string(resp.Object),
		Created:  resp.Created,
		Model:    resp.Model,
		Provider: provider,
		Usage: models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, models.InferenceChoice{
			Index: choice.Index,
			Message: models.ChatMessage{
				Role:    "assistant",
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		})
	}
	return result
}
