package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/utils"
)

const actorKey = "actor"

// TokenParser - implemented by auth.TokenService
type TokenParser interface {
	ParseActor(token string) (domain.Actor, error)
}

// Auth requires a Bearer token and stores the actor in c.Locals
func Auth(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return utils.SendError(c, errors.ErrInvalidToken)
		}

		actor, err := tokens.ParseActor(strings.TrimSpace(token))
		if err != nil {
			return utils.SendError(c, err)
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RequireStaff - route is only for position holders
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Actor(c).IsStaff() {
			return utils.SendError(c, errors.Forbidden("route", map[string]interface{}{"requires": "staff"}))
		}
		return c.Next()
	}
}

// RequireCitizen - route is only for citizens
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Actor(c).IsCitizen() {
			return utils.SendError(c, errors.Forbidden("route", map[string]interface{}{"requires": "citizen"}))
		}
		return c.Next()
	}
}

// Actor returns the authenticated actor; zero value when Auth did not run
func Actor(c *fiber.Ctx) domain.Actor {
	actor, _ := c.Locals(actorKey).(domain.Actor)
	return actor
}

// WithActor - used by handler tests to bypass token parsing
func WithActor(actor domain.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(actorKey, actor)
		return c.Next()
	}
}
