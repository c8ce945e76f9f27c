package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/pkg/errors"
	pkgvalidator "github.com/sanitation-complaints/internal/pkg/validator"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

type Meta struct {
	Total int `json:"total"`
	Skip  int `json:"skip,omitempty"`
	Limit int `json:"limit,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func SendCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Data: data})
}

// SendError maps any error to the {error:{code,message,details}} envelope.
func SendError(c *fiber.Ctx, err error) error {
	appErr := ToAppError(err)
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Error: appErr,
	})
}

// ToAppError - AppError as is, validator errors as VALIDATION_ERROR, fiber errors by status, anything else 500
func ToAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return errors.ErrInvalidInput.WithDetails(pkgvalidator.FieldErrors(verrs))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return errors.ErrResourceNotFound.WithMessage(fiberErr.Message)
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			return errors.ErrInvalidInput.WithMessage(fiberErr.Message)
		case fiber.StatusTooManyRequests:
			return errors.ErrTooManyRequests
		case fiber.StatusMethodNotAllowed:
			return errors.New("METHOD_NOT_ALLOWED", fiberErr.Message, fiberErr.Code)
		}
	}

	return errors.ErrInternalServer
}
