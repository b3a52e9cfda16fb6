package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"unicode"

	"petstop/backend/internal/service"
	apperrors "petstop/backend/pkg/errors"
	"petstop/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response is the success envelope
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Data: data, Message: message})
}

var (
	errNotAuthenticated = apperrors.NewUnauthorizedError("UNAUTHORIZED", middleware.ReasonNoToken)
	errInvalidFormat    = apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format")
	errBodyTooLarge     = apperrors.NewError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
)

// fail maps service errors to client-facing errors and hands them to the error middleware
func fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &verr):
		appErr = apperrors.NewBadRequestError("VALIDATION_ERROR", verr.Message)
	case errors.Is(err, service.ErrEmailTaken):
		appErr = apperrors.NewForbiddenError("EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		appErr = apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrUserNotFound):
		appErr = apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrNoUpdateFields):
		appErr = apperrors.NewBadRequestError("NO_UPDATE_FIELDS", "At least one field must be provided for update")
	case errors.Is(err, service.ErrPetSitterNotFound):
		appErr = apperrors.NewNotFoundError("PET_SITTER_NOT_FOUND", "Pet sitter not found")
	case errors.Is(err, service.ErrAlreadyPetSitter):
		appErr = apperrors.NewBadRequestError("PET_SITTER_EXISTS", "User already has a pet sitter profile")
	case errors.Is(err, service.ErrNotOwner):
		appErr = apperrors.NewForbiddenError("FORBIDDEN", "Unauthorized")
	case errors.Is(err, service.ErrInvalidDateRange):
		appErr = apperrors.NewBadRequestError("INVALID_DATE_RANGE", "endDate must be after startDate")
	default:
		_ = c.Error(err)
		return
	}
	_ = c.Error(appErr.Wrap(err))
}

// bindJSON binds the request body and reports the first invalid field
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge.Wrap(err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.NewBadRequestError("VALIDATION_ERROR", fieldMessage(verrs[0])).Wrap(err)
	}
	return errInvalidFormat.Wrap(err)
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonName(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// jsonName turns a Go field name into the lowerCamel name used on the wire
func jsonName(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// currentUser returns the authenticated caller's ID
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		_ = c.Error(errNotAuthenticated)
		return 0, false
	}
	return id.UserID, true
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_ID", "Invalid "+name))
		return 0, false
	}
	return uint(id), true
}

// queryInt parses an optional positive integer query parameter
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_QUERY", name+" must be a positive integer"))
		return 0, false
	}
	return n, true
}

func statusCreated(c *gin.Context, data any, message string) {
	respond(c, http.StatusCreated, data, message)
}
