package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanitation-complaints/internal/config"
	"github.com/sanitation-complaints/internal/infrastructure/push"
	"github.com/sanitation-complaints/internal/pkg/logger"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/repository/cache"
	redisRepo "github.com/sanitation-complaints/internal/repository/redis"
	"github.com/sanitation-complaints/internal/worker"
	"github.com/sanitation-complaints/internal/worker/notification"
	"go.uber.org/zap"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Logger
	log, err := logger.New(cfg.Log.Level, "worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting notification worker",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Dependencies
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	sender := push.NewClient(&cfg.Push, log)

	dispatch := notification.NewDispatchWorker(streamRepo, sender, metrics.New(), notification.Config{
		ConsumerGroup: cfg.Worker.ConsumerGroup,
		BatchSize:     cfg.Worker.BatchSize,
		ReadTimeout:   cfg.Worker.StreamReadTimeout,
		MaxRetries:    cfg.Worker.MaxRetries,
		ClaimIdle:     cfg.Worker.ClaimIdle,
	}, log)

	// Metrics endpoint for the dispatch counters
	metricsServer := metrics.NewServer()
	go func() {
		addr := cfg.GetWorkerMetricsAddr()
		log.Info("Serving worker metrics", zap.String("addr", addr))
		if err := metricsServer.Listen(addr); err != nil {
			log.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// 5. Manager
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(dispatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	if err := metricsServer.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error("Error stopping metrics server", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
