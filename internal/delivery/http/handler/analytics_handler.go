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

// AnalyticsService - implemented by usecase.AnalyticsUseCase
type AnalyticsService interface {
	StatusCounts(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.StatusCount, error)
	DailyCounts(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.DailyCount, error)
	Summary(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) (*dto.AnalyticsSummary, error)
	Resolution(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.NodeResolution, error)
	TopGeographies(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.GeographyScore, error)
}

// AnalyticsHandler - обработчик запросов аналитики
type AnalyticsHandler struct {
	analytics AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler - создание нового AnalyticsHandler
func NewAnalyticsHandler(analytics AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *AnalyticsHandler) request(c *fiber.Ctx) (dto.AnalyticsRequest, error) {
	var req dto.AnalyticsRequest
	if err := c.QueryParser(&req); err != nil {
		return req, invalidBody(err)
	}
	from, to, err := queryRange(c)
	if err != nil {
		return req, err
	}
	req.From, req.To = from, to
	return req, nil
}

// StatusCounts godoc
// @Summary Complaint counts by status
// @Description Grouped by district, block or village, restricted to the caller's jurisdiction
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param level query string false "DISTRICT, BLOCK or VILLAGE" default(DISTRICT)
// @Param from query string false "Created at or after"
// @Param to query string false "Created before; a YYYY-MM-DD date includes the whole day"
// @Param district_id query int false "Only villages of this district"
// @Param block_id query int false "Only villages of this block"
// @Param village_id query int false "Only this village"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.StatusCount}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/analytics/status [get]
func (h *AnalyticsHandler) StatusCounts(c *fiber.Ctx) error {
	req, err := h.request(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	counts, err := h.analytics.StatusCounts(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, counts, &utils.Meta{Total: len(counts)})
}

// DailyCounts godoc
// @Summary Complaints created per day
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param from query string false "Created at or after"
// @Param to query string false "Created before; a YYYY-MM-DD date includes the whole day"
// @Param district_id query int false "Only villages of this district"
// @Param block_id query int false "Only villages of this block"
// @Param village_id query int false "Only this village"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.DailyCount}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/analytics/daily [get]
func (h *AnalyticsHandler) DailyCounts(c *fiber.Ctx) error {
	req, err := h.request(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	counts, err := h.analytics.DailyCounts(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, counts, &utils.Meta{Total: len(counts)})
}

// Summary godoc
// @Summary Dashboard summary
// @Description Status counts at every level plus the daily series
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param from query string false "Created at or after"
// @Param to query string false "Created before; a YYYY-MM-DD date includes the whole day"
// @Param district_id query int false "Only villages of this district"
// @Param block_id query int false "Only villages of this block"
// @Param village_id query int false "Only this village"
// @Success 200 {object} utils.SuccessResponse{data=dto.AnalyticsSummary}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	req, err := h.request(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	summary, err := h.analytics.Summary(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, summary, nil)
}

// Resolution godoc
// @Summary Average resolution time per geography
// @Description Totals, completed count and mean seconds from filing to the first COMPLETED status
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param level query string false "DISTRICT, BLOCK or VILLAGE" default(DISTRICT)
// @Param from query string false "Created at or after"
// @Param to query string false "Created before; a YYYY-MM-DD date includes the whole day"
// @Param district_id query int false "Only villages of this district"
// @Param block_id query int false "Only villages of this block"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.NodeResolution}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/analytics/resolution [get]
func (h *AnalyticsHandler) Resolution(c *fiber.Ctx) error {
	req, err := h.request(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	stats, err := h.analytics.Resolution(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stats, &utils.Meta{Total: len(stats)})
}

// TopGeographies godoc
// @Summary Best performing geographies in a date range
// @Description Ranked by a 0-100 score: half for speed against the 7 day target, half for the completed share
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param from query string true "Created at or after"
// @Param to query string true "Created before; a YYYY-MM-DD date includes the whole day"
// @Param n query int false "Number of entries" default(5)
// @Param level query string false "DISTRICT, BLOCK or VILLAGE" default(DISTRICT)
// @Param district_id query int false "Only villages of this district"
// @Param block_id query int false "Only villages of this block"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.GeographyScore}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/analytics/top [get]
func (h *AnalyticsHandler) TopGeographies(c *fiber.Ctx) error {
	req, err := h.request(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	top, err := h.analytics.TopGeographies(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, top, &utils.Meta{Total: len(top)})
}
