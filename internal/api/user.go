package api

import (
	"net/http"

	"petstop/backend/internal/models"
	"petstop/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's own profile
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the authenticated user
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, user.ToResponse(), "")
}

// UpdateMe updates the authenticated user's name or email
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, user.ToResponse(), "Profile updated successfully")
}
