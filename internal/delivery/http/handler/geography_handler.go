package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/utils"
	"go.uber.org/zap"
)

// GeographyService - implemented by usecase.GeographyUseCase
type GeographyService interface {
	Node(ctx context.Context, id int64) (*domain.GeographyNode, error)
	Children(ctx context.Context, id int64) ([]domain.GeographyNode, error)
	Ancestors(ctx context.Context, id int64) ([]domain.GeographyNode, error)
	Districts(ctx context.Context) ([]domain.GeographyNode, error)
}

// GeographyHandler - обработчик запросов географии
type GeographyHandler struct {
	geography GeographyService
	logger    *zap.Logger
}

// NewGeographyHandler - создание нового GeographyHandler
func NewGeographyHandler(geography GeographyService, logger *zap.Logger) *GeographyHandler {
	return &GeographyHandler{
		geography: geography,
		logger:    logger,
	}
}

// Districts godoc
// @Summary List districts
// @Tags Geography
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=[]domain.GeographyNode}
// @Router /api/v1/geography/districts [get]
func (h *GeographyHandler) Districts(c *fiber.Ctx) error {
	nodes, err := h.geography.Districts(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, nodes, &utils.Meta{Total: len(nodes)})
}

// Node godoc
// @Summary Geography node
// @Tags Geography
// @Produce json
// @Security BearerAuth
// @Param id path int true "Node ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.GeographyNode}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/geography/nodes/{id} [get]
func (h *GeographyHandler) Node(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	node, err := h.geography.Node(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, node, nil)
}

// Children godoc
// @Summary Direct children of a node
// @Tags Geography
// @Produce json
// @Security BearerAuth
// @Param id path int true "Node ID"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.GeographyNode}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/geography/nodes/{id}/children [get]
func (h *GeographyHandler) Children(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	nodes, err := h.geography.Children(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, nodes, &utils.Meta{Total: len(nodes)})
}

// Ancestors godoc
// @Summary Ancestor chain, district first
// @Tags Geography
// @Produce json
// @Security BearerAuth
// @Param id path int true "Node ID"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.GeographyNode}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/geography/nodes/{id}/ancestors [get]
func (h *GeographyHandler) Ancestors(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	nodes, err := h.geography.Ancestors(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, nodes, nil)
}
