package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/sanitation-complaints/internal/config"
	"github.com/sanitation-complaints/internal/delivery/http/handler"
	"github.com/sanitation-complaints/internal/delivery/http/middleware"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Handlers - все обработчики, нужные таблице маршрутов
type Handlers struct {
	Complaints   *handler.ComplaintHandler
	Geography    *handler.GeographyHandler
	Positions    *handler.PositionHandler
	Analytics    *handler.AnalyticsHandler
	Jurisdiction *handler.JurisdictionHandler
	Health       *handler.HealthHandler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tokens   middleware.TokenParser
	limiter  *middleware.IPRateLimiter
	handlers Handlers
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	tokens middleware.TokenParser,
	handlers Handlers,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Sanitation Complaints",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		metrics:  m,
		tokens:   tokens,
		limiter:  middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение для тестов без сети
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Metrics(s.metrics))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", metrics.Handler())
	s.app.Static("/media", s.config.Media.RootDir)

	api := s.app.Group("/api/v1")

	// Public
	api.Get("/health", h.Health.Health)
	api.Get("/complaints/types", h.Complaints.ListTypes)

	auth := middleware.Auth(s.tokens)
	staff := middleware.RequireStaff()

	// Complaints
	api.Post("/complaints", auth, middleware.RequireCitizen(), s.limiter.Handler(), h.Complaints.Create)
	api.Get("/complaints", auth, h.Complaints.List)
	api.Get("/complaints/:id", auth, h.Complaints.Get)
	api.Post("/complaints/:id/transitions", auth, h.Complaints.Transition)
	api.Post("/complaints/:id/comments", auth, h.Complaints.AddComment)
	api.Post("/complaints/:id/media", auth, h.Complaints.AddMedia)

	// Authorization
	api.Get("/jurisdiction", auth, h.Jurisdiction.Jurisdiction)
	api.Get("/assignment/villages/:id/worker", auth, staff, h.Jurisdiction.PreviewWorker)

	// Geography
	geo := api.Group("/geography", auth)
	geo.Get("/districts", h.Geography.Districts)
	geo.Get("/nodes/:id", h.Geography.Node)
	geo.Get("/nodes/:id/children", h.Geography.Children)
	geo.Get("/nodes/:id/ancestors", h.Geography.Ancestors)

	// Positions
	positions := api.Group("/positions", auth, staff)
	positions.Post("/", h.Positions.Appoint)
	positions.Post("/:id/end", h.Positions.End)
	positions.Get("/holder/:holder_id", h.Positions.ListByHolder)

	// Analytics
	analytics := api.Group("/analytics", auth, staff)
	analytics.Get("/status", h.Analytics.StatusCounts)
	analytics.Get("/daily", h.Analytics.DailyCounts)
	analytics.Get("/summary", h.Analytics.Summary)
	analytics.Get("/resolution", h.Analytics.Resolution)
	analytics.Get("/top", h.Analytics.TopGeographies)
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler - ошибки, вышедшие из обработчиков (неизвестный маршрут, лимит тела, паника)
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := utils.ToAppError(err)
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("HTTP error",
				zap.String("path", c.Path()),
				zap.Int("status", appErr.StatusCode),
				zap.Error(err),
			)
		}
		return utils.SendError(c, appErr)
	}
}
