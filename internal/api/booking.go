package api

import (
	"net/http"

	"petstop/backend/internal/models"
	"petstop/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the caller's bookings
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service *service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// List returns the caller's bookings
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	bookings, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, bookings, "")
}

// Create books a pet sitter for the caller
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}

	statusCreated(c, booking, "Booking created successfully")
}
