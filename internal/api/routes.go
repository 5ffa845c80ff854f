package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/api/handlers"
	"github.com/recovai/recovery-engine/internal/config"
)

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, cfg *config.Config, predictor handlers.Predictor, history handlers.HistoryProvider, dbCheck, redisPing func() error, logger *logrus.Logger) {
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler(predictor, dbCheck, redisPing)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/live", healthHandler.Liveness)

	predictHandler := handlers.NewPredictHandler(predictor, history, logger)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/predict", predictHandler.Predict)
		v1.GET("/predictions/:account_id", predictHandler.GetHistory)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
