package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/delivery/http/middleware"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/utils"
	"github.com/sanitation-complaints/internal/usecase"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
)

// ComplaintService - implemented by usecase.ComplaintUseCase
type ComplaintService interface {
	Create(ctx context.Context, actor domain.Actor, req dto.CreateComplaintRequest) (*domain.Complaint, error)
	Transition(ctx context.Context, actor domain.Actor, complaintID int64, target domain.Status, opts usecase.TransitionOptions) (*domain.Complaint, error)
	List(ctx context.Context, actor domain.Actor, req dto.ListComplaintsRequest) (*dto.ComplaintListResponse, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.ComplaintDetails, error)
	AddComment(ctx context.Context, actor domain.Actor, complaintID int64, req dto.CommentRequest) (*domain.Comment, error)
	AddMedia(ctx context.Context, actor domain.Actor, complaintID int64, data []byte, filename string) (*domain.Media, error)
	ListTypes(ctx context.Context) ([]domain.ComplaintType, error)
}

// ComplaintHandler - обработчик запросов жалоб
type ComplaintHandler struct {
	complaints ComplaintService
	maxUpload  int64
	logger     *zap.Logger
}

// NewComplaintHandler - создание нового ComplaintHandler
func NewComplaintHandler(complaints ComplaintService, maxUpload int, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaints: complaints,
		maxUpload:  int64(maxUpload),
		logger:     logger,
	}
}

// Create godoc
// @Summary File a complaint
// @Description Citizens file a complaint for a village. The assignment engine runs in the same transaction.
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} utils.SuccessResponse{data=domain.Complaint}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/complaints [post]
func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	complaint, err := h.complaints.Create(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, complaint)
}

// List godoc
// @Summary List complaints
// @Description Complaints inside the caller's jurisdiction; citizens see their own. Geography filters only narrow the result.
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param village_id query int false "Village"
// @Param block_id query int false "Block"
// @Param district_id query int false "District"
// @Param status query string false "Status"
// @Param assigned_to query int false "Assigned worker"
// @Param from query string false "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Created before (RFC3339); a YYYY-MM-DD date includes the whole day"
// @Param order_by query string false "newest, oldest, status or village" default(newest)
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Complaint}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/complaints [get]
func (h *ComplaintHandler) List(c *fiber.Ctx) error {
	var req dto.ListComplaintsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}
	from, to, err := queryRange(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	req.From, req.To = from, to

	result, err := h.complaints.List(c.UserContext(), middleware.Actor(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result.Complaints, &utils.Meta{
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// Get godoc
// @Summary Complaint details
// @Description Complaint with comments, media and status history
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.ComplaintDetails}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/complaints/{id} [get]
func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	details, err := h.complaints.Get(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, details, nil)
}

// Transition godoc
// @Summary Change complaint status
// @Description Moves the complaint along the lifecycle. 409 means a concurrent update won; re-read and retry.
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.TransitionRequest true "Target status"
// @Success 200 {object} utils.SuccessResponse{data=domain.Complaint}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/complaints/{id}/transitions [post]
func (h *ComplaintHandler) Transition(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}
	if req.Status == "" {
		return utils.SendError(c, errors.Validation("transition", "status is required", nil))
	}

	updated, err := h.complaints.Transition(c.UserContext(), middleware.Actor(c), id, domain.Status(req.Status), usecase.TransitionOptions{
		Note:     req.Note,
		WorkerID: req.WorkerID,
	})
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, updated, nil)
}

// AddComment godoc
// @Summary Comment on a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} utils.SuccessResponse{data=domain.Comment}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/complaints/{id}/comments [post]
func (h *ComplaintHandler) AddComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	comment, err := h.complaints.AddComment(c.UserContext(), middleware.Actor(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, comment)
}

// AddMedia godoc
// @Summary Attach media
// @Description Multipart upload in the "file" field
// @Tags Complaints
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param file formData file true "Photo or document"
// @Success 201 {object} utils.SuccessResponse{data=domain.Media}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/complaints/{id}/media [post]
func (h *ComplaintHandler) AddMedia(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, errors.Validation("complaint.media", "multipart field \"file\" is required", nil))
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return utils.SendError(c, errors.Validation("complaint.media", "file is too large", map[string]interface{}{
			"size":      header.Size,
			"max_bytes": h.maxUpload,
		}))
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}

	media, err := h.complaints.AddMedia(c.UserContext(), middleware.Actor(c), id, data, header.Filename)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, media)
}

// ListTypes godoc
// @Summary Complaint types
// @Tags Complaints
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.ComplaintType}
// @Router /api/v1/complaints/types [get]
func (h *ComplaintHandler) ListTypes(c *fiber.Ctx) error {
	types, err := h.complaints.ListTypes(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, types, &utils.Meta{Total: len(types)})
}
