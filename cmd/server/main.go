package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lumina-health/lumina-ai-go/internal/analytics"
	"github.com/lumina-health/lumina-ai-go/internal/api"
	"github.com/lumina-health/lumina-ai-go/internal/api/handlers"
	"github.com/lumina-health/lumina-ai-go/internal/cache"
	"github.com/lumina-health/lumina-ai-go/internal/config"
	"github.com/lumina-health/lumina-ai-go/internal/database"
	"github.com/lumina-health/lumina-ai-go/internal/logging"
	"github.com/lumina-health/lumina-ai-go/internal/repository"
	"github.com/lumina-health/lumina-ai-go/internal/telemetry"
)

func main() {
	// Load .env if present; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		logger.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	metricRepo := repository.NewMetricRepository(db.Pool, logger)

	engine := analytics.NewEngine(metricRepo, analytics.Config{
		MaxLagDays:        cfg.Analytics.MaxLagDays,
		SignificanceLevel: cfg.Analytics.SignificanceLevel,
		MinSampleSize:     cfg.Analytics.MinSampleSize,
		MinOverlapDays:    cfg.Analytics.MinOverlapDays,
		MinCausalityScore: cfg.Analytics.MinCausalityScore,
		CausalityWeights: analytics.CausalityWeights{
			Correlation: cfg.Analytics.CausalityWeights.Correlation,
			Granger:     cfg.Analytics.CausalityWeights.Granger,
			Precedence:  cfg.Analytics.CausalityWeights.Precedence,
		},
		AnomalyZThreshold: cfg.Analytics.AnomalyZThreshold,
		RiskWindowDays:    cfg.Analytics.RiskWindowDays,
		Workers:           cfg.Analytics.Workers,
		ComputeBudget:     cfg.Analytics.ComputeBudgetDuration(),
	}, logger)

	resultCache := cache.NewAnalyticsCache(redis.Client, cfg.Analytics.CacheTTLDuration())

	analyticsHandler := handlers.NewAnalyticsHandler(engine, resultCache, logger)
	healthHandler := handlers.NewHealthHandler(db, redis, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, analyticsHandler, healthHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
