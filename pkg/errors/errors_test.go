package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	t.Run("passes AppError through", func(t *testing.T) {
		orig := NewNotFoundError("NOT_FOUND", "Pet sitter not found")
		assert.Same(t, orig, FromError(fmt.Errorf("lookup: %w", orig)))
	})

	t.Run("hides plain errors behind a 500", func(t *testing.T) {
		appErr := FromError(stderrors.New("connection refused"))
		assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
		assert.Equal(t, "Internal server error", appErr.Message)
		assert.EqualError(t, appErr.Err, "connection refused")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
	})
}

func TestAppErrorIs(t *testing.T) {
	base := NewForbiddenError("FORBIDDEN", "Unauthorized")
	wrapped := base.Wrap(stderrors.New("owner mismatch"))

	assert.ErrorIs(t, wrapped, base)
	assert.NotErrorIs(t, wrapped, NewForbiddenError("OTHER", "x"))
	assert.Equal(t, http.StatusForbidden, GetStatusCode(wrapped))
	assert.Equal(t, "FORBIDDEN", GetErrorCode(wrapped))
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(stderrors.New("x")))
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(NewTooManyRequestsError("RATE_LIMITED", "slow down"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(stderrors.New("db exploded"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"slow down"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRecoveryWithLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RecoveryWithLogger())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
