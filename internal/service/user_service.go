package service

import (
	"context"
	"errors"
	"strings"

	"petstop/backend/internal/models"
	"petstop/backend/internal/repository"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoUpdateFields     = errors.New("at least one field must be provided for update")
)

// ValidationError carries a message meant for the client
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidatePassword reports the first password rule that fails
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Message: "Password must be at least 8 characters long"}
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return &ValidationError{Message: "Password must contain at least one uppercase letter"}
	case !lower:
		return &ValidationError{Message: "Password must contain at least one lowercase letter"}
	case !digit:
		return &ValidationError{Message: "Password must contain at least one number"}
	case !special:
		return &ValidationError{Message: "Password must contain at least one special character"}
	}
	return nil
}

// ListingInvalidator drops cached listings that embed a user's profile
type ListingInvalidator interface {
	InvalidateOwner(ctx context.Context, userID uint)
}

// UserService handles accounts and credentials
type UserService struct {
	users    repository.UserRepository
	tokens   *jwt.Service
	listings ListingInvalidator
	logger   *logger.Logger
}

// NewUserService creates a new user service. listings may be nil when
// nothing caches profile data.
func NewUserService(users repository.UserRepository, tokens *jwt.Service, listings ListingInvalidator, log *logger.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, listings: listings, logger: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account and returns a token for it
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (string, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return "", err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		return "", err
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailTaken
		}
		return "", err
	}

	s.logger.Info("User created", "user_id", user.ID)
	return s.tokens.GenerateToken(user.ID)
}

// Login verifies credentials and returns a fresh token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return "", ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return s.tokens.GenerateToken(user.ID)
}

// GetProfile returns the user with the given ID
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateUserRequest) (*models.User, error) {
	if req.Empty() {
		return nil, ErrNoUpdateFields
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.listings != nil {
		s.listings.InvalidateOwner(ctx, userID)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return user, nil
}
