package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/pkg/errors"
)

const dateLayout = "2006-01-02"

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, errors.Validation("request", "invalid path parameter", map[string]interface{}{name: c.Params(name)})
	}
	return int64(id), nil
}

// queryTime accepts RFC3339 or a plain date; absent parameter yields nil.
// dateOnly reports the plain date form.
func queryTime(c *fiber.Ctx, name string) (t *time.Time, dateOnly bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false, nil
	}
	if v, err := time.Parse(time.RFC3339, raw); err == nil {
		v = v.UTC()
		return &v, false, nil
	}
	if v, err := time.Parse(dateLayout, raw); err == nil {
		return &v, true, nil
	}
	return nil, false, errors.Validation("request", "time must be RFC3339 or YYYY-MM-DD", map[string]interface{}{name: raw})
}

// queryRange - from is inclusive, to is exclusive. A plain date to covers
// the whole day, so it is moved to the following midnight.
func queryRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	from, _, err := queryTime(c, "from")
	if err != nil {
		return nil, nil, err
	}
	to, dateOnly, err := queryTime(c, "to")
	if err != nil {
		return nil, nil, err
	}
	if to != nil && dateOnly {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, errors.Validation("request", "to must be after from", nil)
	}
	return from, to, nil
}

func invalidBody(err error) error {
	return errors.ErrInvalidInput.WithMessage("invalid request body").WithDetails(map[string]interface{}{
		"reason": err.Error(),
	})
}
