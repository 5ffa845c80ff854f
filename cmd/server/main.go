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
	"github.com/redis/go-redis/v9"

	"github.com/recovai/recovery-engine/internal/api"
	"github.com/recovai/recovery-engine/internal/api/handlers"
	"github.com/recovai/recovery-engine/internal/artifact"
	"github.com/recovai/recovery-engine/internal/cache"
	"github.com/recovai/recovery-engine/internal/config"
	"github.com/recovai/recovery-engine/internal/database"
	"github.com/recovai/recovery-engine/internal/logging"
	"github.com/recovai/recovery-engine/internal/services"
	"github.com/recovai/recovery-engine/internal/telemetry"
)

func main() {
	// Load .env if present; real environments configure through the process env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	provider, err := telemetry.InitTelemetry(telemetry.DefaultConfig(cfg.Environment))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize telemetry")
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	// A missing or malformed artifact must not crash the process. The service
	// starts not ready and the health endpoint reports it.
	art, err := artifact.Load(cfg.Model.ArtifactPath, logger)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.Model.ArtifactPath).
			Warn("Model artifact unavailable, serving in not-ready state")
		art = nil
	}

	opts := []services.Option{services.WithTopFactors(cfg.Model.TopFactors)}
	var dbCheck, redisPing func() error
	var history *database.PredictionRepository

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(context.Background(), cfg.Database)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		history = database.NewPredictionRepository(db.Pool)
		opts = append(opts, services.WithStore(history))
		dbCheck = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.HealthCheck(ctx)
		}
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("Redis close failed")
			}
		}()

		predictionCache := cache.NewRedisPredictionCache(redisClient, cfg.CacheTTLDuration(), logger)
		opts = append(opts, services.WithCache(predictionCache))
		redisPing = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		}
	}

	predictionService := services.NewPredictionService(art, logger, opts...)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	var historyProvider handlers.HistoryProvider
	if history != nil {
		historyProvider = history
	}
	api.SetupRoutes(router, cfg, predictionService, historyProvider, dbCheck, redisPing, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
