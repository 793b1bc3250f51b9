package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthChecker is the AI service health surface
type HealthChecker interface {
	Health(ctx context.Context) error
}

// AI reports external AI service health
type AI struct {
	checker HealthChecker
	logger  *zap.Logger
}

// NewAI creates the AI handler
func NewAI(checker HealthChecker, logger *zap.Logger) *AI {
	return &AI{checker: checker, logger: logger}
}

// Health proxies the AI service health endpoint
// GET /v1/ai/health
func (h *AI) Health(c echo.Context) error {
	if err := h.checker.Health(c.Request().Context()); err != nil {
		h.logger.Warn("AI service unhealthy", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}
