package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidator(Schema)
	require.NoError(t, err)

	r := gin.New()
	r.Use(v.Middleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/api/auth/signup", ok)
	r.GET("/api/petsitters/:id", ok)
	r.GET("/internal/debug", ok)
	return r
}

func TestOpenAPIValidator(t *testing.T) {
	r := newValidatedRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"valid signup", http.MethodPost, "/api/auth/signup", `{"email":"a@b.co","password":"Secret#123"}`, http.StatusOK},
		{"short password", http.MethodPost, "/api/auth/signup", `{"email":"a@b.co","password":"short"}`, http.StatusBadRequest},
		{"missing email", http.MethodPost, "/api/auth/signup", `{"password":"Secret#123"}`, http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/api/petsitters/abc", "", http.StatusBadRequest},
		{"numeric id", http.MethodGet, "/api/petsitters/3", "", http.StatusOK},
		{"undocumented route", http.MethodGet, "/internal/debug", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestNewOpenAPIValidatorRejectsBadDocument(t *testing.T) {
	_, err := NewOpenAPIValidator([]byte("openapi: 3.0.3\ninfo: {}\n"))
	assert.Error(t, err)
}
