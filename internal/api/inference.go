package api

import (
	"bufio"
	"encoding/json"
	"errors"

	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/router"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

// InferenceHandler exposes the request router over HTTP
type InferenceHandler struct {
	router *router.Router
}

func NewInferenceHandler(r *router.Router) *InferenceHandler {
	return &InferenceHandler{router: r}
}

// inferenceBody is the POST /v1/inference payload: the request itself plus
// optional routing hints.
type inferenceBody struct {
	models.InferenceRequest
	Options *models.RouterOptions `json:"options,omitzero"`
}

// Infer handles POST /v1/inference
func (h *InferenceHandler) Infer(c *fiber.Ctx) error {
	var body inferenceBody
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, models.NewValidationError("invalid request body", err))
	}

	if body.Stream {
		return h.inferStream(c, &body)
	}

	result, err := h.router.RouteRequest(c.UserContext(), &body.InferenceRequest, body.Options)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// inferStream streams chunks as server-sent events, ending with [DONE]
func (h *InferenceHandler) inferStream(c *fiber.Ctx, body *inferenceBody) error {
	stream, err := h.router.RouteStream(c.UserContext(), &body.InferenceRequest, body.Options)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for chunk, chunkErr := range stream {
			if chunkErr != nil {
				fiberlog.Errorf("stream aborted: %v", chunkErr)
				writeSSE(w, fiber.Map{"error": models.SanitizeError(chunkErr)})
				return
			}
			if !writeSSE(w, chunk) {
				return
			}
			if chunk.Done() {
				break
			}
		}
		if _, err := w.WriteString("data: [DONE]\n\n"); err == nil {
			_ = w.Flush()
		}
	}))
	return nil
}

// writeSSE emits one SSE data frame; returns false when the client is gone
func writeSSE(w *bufio.Writer, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := w.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return false
	}
	return w.Flush() == nil
}

// respondError maps application errors onto HTTP status codes and a
// sanitized JSON body.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.SanitizeError(err)
	}
	return c.Status(appErr.GetStatusCode()).JSON(fiber.Map{
		"error": models.SanitizeError(appErr),
	})
}
