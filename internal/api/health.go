package api

import (
	"net/http"

	"petstop/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports component health
type HealthHandler struct {
	checker *health.Checker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check answers 503 while a critical component is unhealthy
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	if !h.checker.IsSystemHealthy() {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"message":    "petstop backend is up and running",
		"components": h.checker.GetStatus(),
	})
}
