package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/delivery/http/middleware"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/utils"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
)

// JurisdictionService - implemented by usecase.AuthorizationUseCase
type JurisdictionService interface {
	ResolveJurisdiction(ctx context.Context, actor domain.Actor) (*domain.Jurisdiction, error)
}

// AssignmentService - implemented by usecase.AssignmentUseCase
type AssignmentService interface {
	PreviewWorker(ctx context.Context, actor domain.Actor, villageID int64) (*dto.WorkerPreview, error)
}

// JurisdictionHandler - юрисдикция вызывающего и предпросмотр назначения исполнителя
type JurisdictionHandler struct {
	authz      JurisdictionService
	assignment AssignmentService
	logger     *zap.Logger
}

// NewJurisdictionHandler - создание нового JurisdictionHandler
func NewJurisdictionHandler(authz JurisdictionService, assignment AssignmentService, logger *zap.Logger) *JurisdictionHandler {
	return &JurisdictionHandler{
		authz:      authz,
		assignment: assignment,
		logger:     logger,
	}
}

// Jurisdiction godoc
// @Summary Caller's jurisdiction
// @Description Villages the caller can read, per role. Empty for actors without active positions.
// @Tags Authorization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=domain.Jurisdiction}
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/jurisdiction [get]
func (h *JurisdictionHandler) Jurisdiction(c *fiber.Ctx) error {
	j, err := h.authz.ResolveJurisdiction(c.UserContext(), middleware.Actor(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, j, nil)
}

// PreviewWorker godoc
// @Summary Assignment preview
// @Description The worker the engine would pick for the village right now. BDO and above.
// @Tags Authorization
// @Produce json
// @Security BearerAuth
// @Param id path int true "Village ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.WorkerPreview}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/assignment/villages/{id}/worker [get]
func (h *JurisdictionHandler) PreviewWorker(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	preview, err := h.assignment.PreviewWorker(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, preview, nil)
}
