package usecase

import (
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// validate runs struct validation and reports failures per json field
func validate(operation string, req interface{}) error {
	if err := validator.Validate(req); err != nil {
		return errors.Validation(operation, "invalid request", validator.FieldErrors(err))
	}
	return nil
}

// resultLabel - metric label for an operation outcome
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errors.ErrConflict):
		return "conflict"
	case errors.Is(err, errors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errors.ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, errors.ErrValidation):
		return "validation"
	case errors.Is(err, errors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
