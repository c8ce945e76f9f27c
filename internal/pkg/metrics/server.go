package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler - Prometheus exposition of the default registry
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// NewServer - standalone /metrics endpoint for processes without an HTTP API
func NewServer() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "complaints-worker-metrics",
		DisableStartupMessage: true,
	})
	app.Get("/metrics", Handler())
	return app
}
