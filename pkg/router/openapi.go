package router

import (
	"fmt"
	"net/http"

	"petstop/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// AddOpenAPIValidation validates request bodies and parameters against the
// embedded OpenAPI document and serves the document at /api/docs/openapi.yaml
func (r *Router) AddOpenAPIValidation() error {
	v, err := validator.NewOpenAPIValidator(validator.Schema)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenAPI validator: %w", err)
	}

	r.Engine.Use(v.Middleware())
	r.Engine.GET("/api/docs/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", validator.Schema)
	})

	r.Logger.Info("OpenAPI validation enabled", "url", "/api/docs/openapi.yaml")
	return nil
}
