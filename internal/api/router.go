package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/prop-projections/internal/api/handlers"
)

// SetupRoutes registers probes at the root and the service API under /api/v1.
func SetupRoutes(router *gin.Engine, health *handlers.HealthHandler, projections *handlers.ProjectionHandler, props *handlers.PropHandler) {
	router.GET("/health", health.GetHealth)
	router.GET("/ready", health.GetReady)

	v1 := router.Group("/api/v1")
	v1.GET("/status", projections.GetStatus)
	v1.POST("/projections/run", projections.RunProjections)
	v1.GET("/props", props.SearchProps)
	v1.GET("/props/:id", props.GetProp)
}
