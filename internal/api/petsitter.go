package api

import (
	"net/http"

	"petstop/backend/internal/models"
	"petstop/backend/internal/service"
	apperrors "petstop/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// PetSitterHandler serves pet sitter listings
type PetSitterHandler struct {
	service *service.PetSitterService
}

// NewPetSitterHandler creates a new PetSitterHandler
func NewPetSitterHandler(service *service.PetSitterService) *PetSitterHandler {
	return &PetSitterHandler{service: service}
}

// Create creates the caller's listing
func (h *PetSitterHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreatePetSitterRequest
	if !bindJSON(c, &req) {
		return
	}

	sitter, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}

	statusCreated(c, sitter, "Pet sitter profile created successfully")
}

// List returns a page of listings
func (h *PetSitterHandler) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultPageSize)
	if !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, list, "")
}

// Get returns one listing
func (h *PetSitterHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sitter, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, sitter, "")
}

// Update changes a listing owned by the caller
func (h *PetSitterHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePetSitterRequest
	if !bindJSON(c, &req) {
		return
	}

	sitter, err := h.service.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, sitter, "Pet sitter profile updated successfully")
}

// Delete removes a listing owned by the caller
func (h *PetSitterHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Pet sitter profile deleted successfully")
}

// AddAvailability adds a time range to a listing owned by the caller
func (h *PetSitterHandler) AddAvailability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.DateRange
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("VALIDATION_ERROR", "Start date and end date are required").Wrap(err))
		return
	}

	availability, err := h.service.AddAvailability(c.Request.Context(), userID, id, req)
	if err != nil {
		fail(c, err)
		return
	}

	statusCreated(c, availability, "Availability added successfully")
}
