package providers

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/utils/clientcache"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const defaultAnthropicMaxTokens = 2048

// AnthropicAdapter serves Anthropic Claude models (claude- prefix)
type AnthropicAdapter struct {
	providerConfig models.ProviderConfig
	clientCache    *clientcache.Cache[*anthropic.Client]
}

// NewAnthropicAdapter creates an Anthropic adapter
func NewAnthropicAdapter(providerConfig models.ProviderConfig) *AnthropicAdapter {
	return &AnthropicAdapter{
		providerConfig: providerConfig,
		clientCache:    clientcache.New[*anthropic.Client](),
	}
}

// Provider returns the backend this adapter serves
func (aa *AnthropicAdapter) Provider() models.Provider {
	return models.ProviderAnthropic
}

func (aa *AnthropicAdapter) client(isStream bool) (*anthropic.Client, error) {
	hash, err := configHash(aa.providerConfig)
	if err != nil {
		fiberlog.Warnf("anthropic: config hash failed: %v, building uncached client", err)
		return aa.buildClient(isStream)
	}

	key := hash
	if isStream {
		key += ":stream"
	}
	return aa.clientCache.GetOrCreate(key, func() (*anthropic.Client, error) {
		fiberlog.Debugf("anthropic: creating client (config hash: %s)", hash[:8])
		return aa.buildClient(isStream)
	})
}

func (aa *AnthropicAdapter) buildClient(isStream bool) (*anthropic.Client, error) {
	if aa.providerConfig.APIKey == "" {
		return nil, models.NewProviderError(models.ProviderAnthropic, "API key not configured", nil)
	}

	opts := []anthropicOption.RequestOption{
		anthropicOption.WithAPIKey(aa.providerConfig.APIKey),
	}
	if aa.providerConfig.BaseURL != "" {
		opts = append(opts, anthropicOption.WithBaseURL(aa.providerConfig.BaseURL))
	}
	for key, value := range aa.providerConfig.Headers {
		opts = append(opts, anthropicOption.WithHeader(key, value))
	}
	if aa.providerConfig.TimeoutMs > 0 && !isStream {
		httpClient := &http.Client{Timeout: time.Duration(aa.providerConfig.TimeoutMs) * time.Millisecond}
		opts = append(opts, anthropicOption.WithHTTPClient(httpClient))
	}

	client := anthropic.NewClient(opts...)
	return &client, nil
}

func (aa *AnthropicAdapter) params(req *models.InferenceRequest) anthropic.MessageNewParams {
	maxTokens := int64(defaultAnthropicMaxTokens)
	if req.MaxTokens.Valid() {
		maxTokens = req.MaxTokens.Value
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature.Valid() {
		params.Temperature = anthropic.Float(req.Temperature.Value)
	}
	if req.TopP.Valid() {
		params.TopP = anthropic.Float(req.TopP.Value)
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
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Infer performs one non-streaming message call against Anthropic
func (aa *AnthropicAdapter) Infer(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResult, error) {
	client, err := aa.client(false)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	message, err := client.Messages.New(ctx, aa.params(req))
	duration := time.Since(start)

	if err != nil {
		fiberlog.Errorf("anthropic: message failed after %v - model: %s: %v", duration, req.Model, err)
		return nil, models.NewProviderError(models.ProviderAnthropic, "message request failed", err)
	}
	fiberlog.Debugf("anthropic: message finished in %v - model: %s, usage: input:%d output:%d",
		duration, message.Model, message.Usage.InputTokens, message.Usage.OutputTokens)

	return convertAnthropicMessage(message), nil
}

// InferStream performs one streaming message call against Anthropic
func (aa *AnthropicAdapter) InferStream(ctx context.Context, req *models.InferenceRequest) (iter.Seq2[*models.StreamChunk, error], error) {
	client, err := aa.client(true)
	if err != nil {
		return nil, err
	}

	stream := client.Messages.NewStreaming(ctx, aa.params(req))

	return func(yield func(*models.StreamChunk, error) bool) {
		defer func() {
			if err := stream.Close(); err != nil {
				fiberlog.Warnf("anthropic: closing stream: %v", err)
			}
		}()
		for stream.Next() {
			event := stream.Current()
			chunk := &models.StreamChunk{Model: req.Model}

			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				chunk.Choices = []models.StreamChoice{{
					Delta: models.StreamDelta{Content: variant.Delta.Text},
				}}
			case anthropic.MessageStopEvent:
				chunk.Choices = []models.StreamChoice{{FinishReason: "stop"}}
			default:
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, models.NewProviderError(models.ProviderAnthropic, "stream failed", err))
		}
	}, nil
}

func convertAnthropicMessage(message *anthropic.Message) *models.InferenceResult {
	content := ""
	for _, block := range message.Content {
		content += block.Text
	}

	return &models.InferenceResult{
		ID:       message.ID,
		Object:   "chat.completion",
		Created:  time.Now().Unix(),
		Model:    string(message.Model),
		Provider: models.ProviderAnthropic,
		Choices: []models.InferenceChoice{{
			Message: models.ChatMessage{
				Role:    "assistant",
				Content: content,
			},
			FinishReason: string(message.StopReason),
		}},
		Usage: models.Usage{
			PromptTokens:     message.Usage.InputTokens,
			CompletionTokens: message.Usage.OutputTokens,
			TotalTokens:      message.Usage.InputTokens + message.Usage.OutputTokens,
		},
	}
}
