package router

import (
	"petstop/backend/internal/api"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health check and metrics endpoints
func (r *Router) setupHealthRoutes() {
	healthHandler := api.NewHealthHandler(r.Container.Health)

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", healthHandler.Check)
	r.Engine.GET("/api/health", healthHandler.Check)

	if r.Container.MetricsHandler != nil {
		r.Engine.GET("/metrics", gin.WrapH(r.Container.MetricsHandler))
	}
}
