package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"petstop/backend/internal/repository"
	"petstop/backend/internal/service"
	"petstop/backend/pkg/cache"
	apperrors "petstop/backend/pkg/errors"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	engine *gin.Engine
	tokens *jwt.Service
	logs   *bytes.Buffer
}

// newTestServer wires the handlers without the auth gate; the X-Test-User
// header stands in for a verified identity.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	log := logger.New(logger.Config{Level: "warn", JSON: true, Output: logs})
	repos := repository.NewMemoryRepositories()
	sitters := service.NewPetSitterService(repos.PetSitters, cache.NewMemoryCache(100), time.Minute, log)
	users := service.NewUserService(repos.Users, tokens, sitters, log)
	bookings := service.NewBookingService(repos.Bookings, repos.PetSitters, log)

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	asUser := func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			id, _ := strconv.ParseUint(raw, 10, 64)
			middleware.WithIdentity(c, middleware.Identity{UserID: uint(id)})
		}
		c.Next()
	}

	auth := NewAuthHandler(users, log)
	userHandler := NewUserHandler(users)
	sitterHandler := NewPetSitterHandler(sitters)
	bookingHandler := NewBookingHandler(bookings)

	r.POST("/auth/signup", auth.Signup)
	r.POST("/auth/login", auth.Login)
	r.GET("/users/me", asUser, userHandler.Me)
	r.PUT("/users/me", asUser, userHandler.UpdateMe)
	r.POST("/petsitters", asUser, sitterHandler.Create)
	r.GET("/petsitters", asUser, sitterHandler.List)
	r.GET("/petsitters/:id", asUser, sitterHandler.Get)
	r.PUT("/petsitters/:id", asUser, sitterHandler.Update)
	r.DELETE("/petsitters/:id", asUser, sitterHandler.Delete)
	r.POST("/petsitters/:id/availability", asUser, sitterHandler.AddAvailability)
	r.GET("/bookings", asUser, bookingHandler.List)
	r.POST("/bookings", asUser, bookingHandler.Create)

	return &testServer{engine: r, tokens: tokens, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path string, userID uint, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T, email string) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/signup", 0, gin.H{"email": email, "name": "Test User", "password": "Secret#123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			JWT string `json:"jwt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := s.tokens.ValidateToken(resp.Data.JWT)
	require.NoError(t, err)
	return claims.UserID
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/signup", 0, gin.H{"email": "a@example.com", "password": "Secret#123"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"User created successfully"`)
	assert.Contains(t, w.Body.String(), `"jwt":"`)

	tests := []struct {
		name   string
		body   any
		status int
		error  string
	}{
		{"duplicate email", gin.H{"email": "a@example.com", "password": "Secret#123"}, http.StatusForbidden, "Email already registered"},
		{"bad email", gin.H{"email": "nope", "password": "Secret#123"}, http.StatusBadRequest, "email must be a valid email address"},
		{"short name", gin.H{"email": "b@example.com", "name": "B", "password": "Secret#123"}, http.StatusBadRequest, "name must be at least 2 characters"},
		{"missing password", gin.H{"email": "b@example.com"}, http.StatusBadRequest, "password is required"},
		{"weak password", gin.H{"email": "b@example.com", "password": "secret#123"}, http.StatusBadRequest, "Password must contain at least one uppercase letter"},
		{"malformed json", `{"email":`, http.StatusBadRequest, "Invalid request format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/auth/signup", 0, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.error, errorOf(t, w))
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	id := s.signup(t, "login@example.com")

	w := s.do(t, http.MethodPost, "/auth/login", 0, gin.H{"email": "login@example.com", "password": "Secret#123"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			JWT string `json:"jwt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := s.tokens.ValidateToken(resp.Data.JWT)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	assert.NotContains(t, s.logs.String(), "Failed login attempt")

	w = s.do(t, http.MethodPost, "/auth/login", 0, gin.H{"email": "login@example.com", "password": "Wrong#123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorOf(t, w))
	assert.Contains(t, s.logs.String(), "Failed login attempt")

	// rule-breaking passwords are not validated at login
	w = s.do(t, http.MethodPost, "/auth/login", 0, gin.H{"email": "login@example.com", "password": "weak"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	id := s.signup(t, "me@example.com")

	w := s.do(t, http.MethodGet, "/users/me", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"me@example.com"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodGet, "/users/me", 999, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", errorOf(t, w))

	w = s.do(t, http.MethodPut, "/users/me", id, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At least one field must be provided for update", errorOf(t, w))

	w = s.do(t, http.MethodPut, "/users/me", id, gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Profile updated successfully"`)
	assert.Contains(t, w.Body.String(), `"name":"Renamed"`)

	w = s.do(t, http.MethodGet, "/users/me", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPetSitterRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	other := s.signup(t, "other@example.com")

	w := s.do(t, http.MethodPost, "/petsitters", owner, gin.H{"name": "Kim", "location": "Berlin", "hourlyRate": 12.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Pet sitter profile created successfully")

	var created struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/petsitters/" + strconv.FormatUint(uint64(created.Data.ID), 10)

	w = s.do(t, http.MethodPost, "/petsitters", owner, gin.H{"name": "Kim", "location": "Berlin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already has a pet sitter profile", errorOf(t, w))

	w = s.do(t, http.MethodGet, "/petsitters?page=1&limit=5", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = s.do(t, http.MethodGet, "/petsitters?page=zero", other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path, other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"owner@example.com"`)

	w = s.do(t, http.MethodGet, "/petsitters/abc", other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/petsitters/999", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Pet sitter not found", errorOf(t, w))

	w = s.do(t, http.MethodPut, path, other, gin.H{"location": "Paris"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized", errorOf(t, w))

	w = s.do(t, http.MethodPut, path, owner, gin.H{"location": "Paris"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"location":"Paris"`)

	w = s.do(t, http.MethodPost, path+"/availability", owner, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Start date and end date are required", errorOf(t, w))

	w = s.do(t, http.MethodPost, path+"/availability", owner, gin.H{"startDate": "2024-06-02T09:00:00Z", "endDate": "2024-06-01T09:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "endDate must be after startDate", errorOf(t, w))

	w = s.do(t, http.MethodPost, path+"/availability", owner, gin.H{"startDate": "2024-06-01T09:00:00Z", "endDate": "2024-06-01T17:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Availability added successfully")

	w = s.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pet sitter profile deleted successfully"}`, w.Body.String())

	w = s.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	client := s.signup(t, "client@example.com")

	w := s.do(t, http.MethodPost, "/petsitters", owner, gin.H{"name": "Kim", "location": "Berlin"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(t, http.MethodGet, "/bookings", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/bookings", client, gin.H{"petSitterId": created.Data.ID, "startDate": "2024-06-01T17:00:00Z", "endDate": "2024-06-01T09:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "endDate must be after startDate", errorOf(t, w))

	w = s.do(t, http.MethodPost, "/bookings", client, gin.H{"petSitterId": 999, "startDate": "2024-06-01T09:00:00Z", "endDate": "2024-06-01T17:00:00Z"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/bookings", client, gin.H{"petSitterId": created.Data.ID, "startDate": "2024-06-01T09:00:00Z", "endDate": "2024-06-01T17:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/bookings", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":`+strconv.FormatUint(uint64(client), 10))
}
