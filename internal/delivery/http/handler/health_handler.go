package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthChecker - зависимость, которую проверяет GET /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler - обработчик запросов проверки состояния
type HealthHandler struct {
	deps   map[string]HealthChecker
	logger *zap.Logger
}

// NewHealthHandler - создание нового HealthHandler
func NewHealthHandler(deps map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		deps:   deps,
		logger: logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "healthy", Services: make(map[string]string, len(h.deps))}
	for name, dep := range h.deps {
		if err := dep.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			resp.Services[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "ok"
	}

	status := fiber.StatusOK
	if resp.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
