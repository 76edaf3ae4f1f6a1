package providers

import (
	"context"
	"time"

	"github.com/solara-ai/inference-router/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ProvenanceStore persists prompt/response provenance records
type ProvenanceStore interface {
	CreateRequestLog(ctx context.Context, log *models.RequestLog) error
}

// Tracked decorates an adapter with provenance recording. Used only when the
// request carries a user identity and tracking is enabled; the write is
// best-effort and never fails the inference call.
type Tracked struct {
	inner Adapter
	store ProvenanceStore
}

// NewTracked wraps an adapter with provenance recording
func NewTracked(inner Adapter, store ProvenanceStore) *Tracked {
	return &Tracked{inner: inner, store: store}
}

// Infer performs the inference and records who asked what and what came back
func (t *Tracked) Infer(
	ctx context.Context,
	req *models.InferenceRequest,
	opts *models.RouterOptions,
	requestID string,
) (*models.InferenceResult, error) {
	start := time.Now()
	result, err := t.inner.Infer(ctx, req)
	latencyMs := time.Since(start).Milliseconds()

	entry := &models.RequestLog{
		RequestID:   requestID,
		UserID:      opts.UserID,
		SessionID:   opts.SessionID,
		AgentID:     opts.AgentID,
		Module:      opts.Module,
		RequestType: opts.EffectiveRequestType(),
		Provider:    t.inner.Provider(),
		Model:       req.Model,
		Prompt:      req.Prompt,
		LatencyMs:   latencyMs,
	}
	if err != nil {
		entry.ErrorText = err.Error()
	} else {
		entry.Completion = result.Content()
		entry.PromptTokens = result.Usage.PromptTokens
		entry.CompletionTokens = result.Usage.CompletionTokens
		entry.TotalTokens = result.Usage.TotalTokens
	}

	// Persistence must not delay or fail the request path
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if storeErr := t.store.CreateRequestLog(writeCtx, entry); storeErr != nil {
			fiberlog.Warnf("[%s] tracked adapter: failed to persist request log: %v", requestID, storeErr)
		}
	}()

	return result, err
}
