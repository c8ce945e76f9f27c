package main

// @title Sanitation Complaints API
// @version 1.0.0
// @description Village sanitation complaint portal.
// @description
// @description Citizens file complaints against a village; staff holding positions over the
// @description district / block / village hierarchy triage, assign and close them.
// @description Workers are picked automatically by current load.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/sanitation-complaints/docs"
	"github.com/sanitation-complaints/internal/config"
	httpDelivery "github.com/sanitation-complaints/internal/delivery/http"
	"github.com/sanitation-complaints/internal/delivery/http/handler"
	"github.com/sanitation-complaints/internal/infrastructure/media"
	"github.com/sanitation-complaints/internal/pkg/auth"
	"github.com/sanitation-complaints/internal/pkg/logger"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/repository/cache"
	"github.com/sanitation-complaints/internal/repository/postgres"
	redisRepo "github.com/sanitation-complaints/internal/repository/redis"
	"github.com/sanitation-complaints/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Logger
	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Sanitation Complaints API",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	m := metrics.New()

	// 5. Repositories
	txManager := postgres.NewTxManager(db)
	geographyRepo := postgres.NewGeographyRepository(db)
	positionRepo := postgres.NewPositionRepository(db)
	complaintRepo := postgres.NewComplaintRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)
	jurisdictionCache := cache.NewJurisdictionCache(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	notifier := redisRepo.NewStreamNotifier(streamRepo, m, log)
	mediaStore := media.NewStore(&cfg.Media, log)

	// 6. Use cases
	geographyUC := usecase.NewGeographyUseCase(geographyRepo, log)
	authzUC := usecase.NewAuthorizationUseCase(positionRepo, geographyUC, jurisdictionCache, cfg.Cache.JurisdictionTTL, m, log)
	assignmentUC := usecase.NewAssignmentUseCase(positionRepo, complaintRepo, geographyUC, authzUC, m, log)
	complaintUC := usecase.NewComplaintUseCase(
		txManager,
		complaintRepo,
		activityRepo,
		positionRepo,
		geographyUC,
		authzUC,
		assignmentUC,
		mediaStore,
		notifier,
		m,
		log,
	)
	positionUC := usecase.NewPositionUseCase(positionRepo, geographyUC, jurisdictionCache, log)
	analyticsUC := usecase.NewAnalyticsUseCase(analyticsRepo, authzUC, log)

	// 7. HTTP
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	server := httpDelivery.NewServer(cfg, log, m, tokens, httpDelivery.Handlers{
		Complaints:   handler.NewComplaintHandler(complaintUC, cfg.Media.MaxBytes, log),
		Geography:    handler.NewGeographyHandler(geographyUC, log),
		Positions:    handler.NewPositionHandler(positionUC, log),
		Analytics:    handler.NewAnalyticsHandler(analyticsUC, log),
		Jurisdiction: handler.NewJurisdictionHandler(authzUC, assignmentUC, log),
		Health: handler.NewHealthHandler(map[string]handler.HealthChecker{
			"postgres": db,
			"redis":    redisClient,
		}, log),
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped")
}
