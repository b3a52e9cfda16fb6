package service

import (
	"context"
	"testing"
	"time"

	"petstop/backend/internal/models"
	"petstop/backend/internal/repository"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *jwt.Service, repository.Repositories) {
	t.Helper()
	tokens, err := jwt.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	repos := repository.NewMemoryRepositories()
	return NewUserService(repos.Users, tokens, nil, logger.Discard()), tokens, repos
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{"Ab1!", "Password must be at least 8 characters long"},
		{"abcdefg1!", "Password must contain at least one uppercase letter"},
		{"ABCDEFG1!", "Password must contain at least one lowercase letter"},
		{"Abcdefgh!", "Password must contain at least one number"},
		{"Abcdefgh1", "Password must contain at least one special character"},
		{"Abcdefg1!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Message)
		})
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens, repos := newUserService(t)

	token, err := svc.Signup(ctx, &models.SignupRequest{Email: " Ann@Example.com", Name: "Ann", Password: "Secret#123"})
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)

	user, err := repos.Users.GetByID(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, "Secret#123", user.Password)

	_, err = svc.Signup(ctx, &models.SignupRequest{Email: "ann@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, err = svc.Login(ctx, &models.LoginRequest{Email: "ANN@example.com", Password: "Secret#123"})
	require.NoError(t, err)
	claims, err = tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "short"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, tokens, _ := newUserService(t)

	token, err := svc.Signup(ctx, &models.SignupRequest{Email: "a@b.co", Password: "Secret#123"})
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, claims.UserID, &models.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrNoUpdateFields)

	name := "Alice"
	user, err := svc.UpdateProfile(ctx, claims.UserID, &models.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = svc.UpdateProfile(ctx, 999, &models.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
