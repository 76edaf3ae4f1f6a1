package api

import (
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"

	"github.com/gofiber/fiber/v2"
)

// AlertHandler serves the operator-facing alert endpoints
type AlertHandler struct {
	engine *alerts.Engine
}

func NewAlertHandler(engine *alerts.Engine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

// List handles GET /v1/alerts
func (h *AlertHandler) List(c *fiber.Ctx) error {
	active, err := h.engine.GetActiveAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"alerts": active,
		"count":  len(active),
	})
}

// Acknowledge handles POST /v1/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return respondError(c, models.NewValidationError("alert id is required", nil))
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return respondError(c, models.NewValidationError("user_id is required", err))
	}

	alert, err := h.engine.AcknowledgeAlert(c.UserContext(), id, body.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alert)
}
