package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumina-health/lumina-ai-go/internal/api/handlers"
	"github.com/lumina-health/lumina-ai-go/internal/middleware"
	"github.com/lumina-health/lumina-ai-go/internal/telemetry"
)

// SetupRoutes wires middleware and the analytics endpoints.
func SetupRoutes(router *gin.Engine, analyticsHandler *handlers.AnalyticsHandler, healthHandler *handlers.HealthHandler) {
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	router.GET("/health", healthHandler.Check)

	v1 := router.Group("/api/v1")
	{
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/correlations", analyticsHandler.GetCorrelations)
			analytics.GET("/causal-graph", analyticsHandler.GetCausalGraph)
			analytics.GET("/trends", analyticsHandler.GetTrends)
			analytics.GET("/risks", analyticsHandler.GetRisks)
		}
	}
}
