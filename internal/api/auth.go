package api

import (
	"errors"
	"net/http"

	"petstop/backend/internal/models"
	"petstop/backend/internal/service"
	"petstop/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles signup and login
type AuthHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  log,
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}

	statusCreated(c, models.TokenResponse{JWT: token}, "User created successfully")
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("Failed login attempt", "client_ip", c.ClientIP())
		}
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, models.TokenResponse{JWT: token}, "")
}
