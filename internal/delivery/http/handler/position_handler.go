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

// PositionService - implemented by usecase.PositionUseCase
type PositionService interface {
	Appoint(ctx context.Context, appointer domain.Actor, req dto.AppointPositionRequest) (*domain.Position, error)
	End(ctx context.Context, actor domain.Actor, positionID int64, req dto.EndPositionRequest) (*domain.Position, error)
	ListByHolder(ctx context.Context, actor domain.Actor, holderID int64) ([]domain.Position, error)
}

// PositionHandler - обработчик запросов должностей
type PositionHandler struct {
	positions PositionService
	logger    *zap.Logger
}

// NewPositionHandler - создание нового PositionHandler
func NewPositionHandler(positions PositionService, logger *zap.Logger) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		logger:    logger,
	}
}

// Appoint godoc
// @Summary Appoint a position holder
// @Description The caller needs an active position that may appoint the role inside the target scope
// @Tags Positions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AppointPositionRequest true "Position"
// @Success 201 {object} utils.SuccessResponse{data=domain.Position}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/positions [post]
func (h *PositionHandler) Appoint(c *fiber.Ctx) error {
	var req dto.AppointPositionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	p, err := h.positions.Appoint(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, p)
}

// End godoc
// @Summary End a position
// @Tags Positions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Position ID"
// @Param request body dto.EndPositionRequest false "End date, defaults to now"
// @Success 200 {object} utils.SuccessResponse{data=domain.Position}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/positions/{id}/end [post]
func (h *PositionHandler) End(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.EndPositionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, invalidBody(err))
		}
	}

	p, err := h.positions.End(c.UserContext(), middleware.Actor(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, p, nil)
}

// ListByHolder godoc
// @Summary Positions of a holder
// @Tags Positions
// @Produce json
// @Security BearerAuth
// @Param holder_id path int true "Holder ID"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Position}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/positions/holder/{holder_id} [get]
func (h *PositionHandler) ListByHolder(c *fiber.Ctx) error {
	holderID, err := paramID(c, "holder_id")
	if err != nil {
		return utils.SendError(c, err)
	}

	positions, err := h.positions.ListByHolder(c.UserContext(), middleware.Actor(c), holderID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, positions, &utils.Meta{Total: len(positions)})
}
