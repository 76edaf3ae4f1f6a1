package api

import (
	"context"
	"time"

	"github.com/solara-ai/inference-router/internal/services/store"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	redisClient *redis.Client
	db          *store.DB
}

// NewHealthHandler creates a health check handler. Either dependency may be
// nil when that backend is not configured.
func NewHealthHandler(redisClient *redis.Client, db *store.DB) *HealthHandler {
	return &HealthHandler{
		redisClient: redisClient,
		db:          db,
	}
}

// HealthCheck returns the health status of the service and its dependencies
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	redisStatus := h.checkRedis()
	dbStatus := h.checkDatabase()

	overallStatus := "healthy"
	statusCode := fiber.StatusOK

	if redisStatus == "unhealthy" || dbStatus == "unhealthy" {
		overallStatus = "degraded"
		statusCode = fiber.StatusServiceUnavailable
	}

	response := fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": fiber.Map{
			"redis":    redisStatus,
			"database": dbStatus,
		},
	}

	return c.Status(statusCode).JSON(response)
}

// checkRedis verifies Redis connectivity
func (h *HealthHandler) checkRedis() string {
	if h.redisClient == nil {
		return "disabled"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		return "unhealthy"
	}

	return "healthy"
}

// checkDatabase verifies database connectivity
func (h *HealthHandler) checkDatabase() string {
	if h.db == nil {
		return "disabled"
	}

	if err := h.db.Ping(); err != nil {
		return "unhealthy"
	}

	return "healthy"
}
