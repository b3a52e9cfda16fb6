package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingSecret  = errors.New("jwt secret is required")
)

// DefaultExpiry is the lifetime of issued tokens when none is configured
const DefaultExpiry = 24 * time.Hour

// Claims is the token payload: {"id": <user id>, "exp": ..., "iat": ...}
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 identity tokens with one process secret
type Service struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for issuing and verifying
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new JWT service. An empty secret is a configuration error.
func NewService(secretKey string, expiry time.Duration, opts ...Option) (*Service, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	s := &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Expiry returns the lifetime of issued tokens
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// GenerateToken generates a signed token for a user
func (s *Service) GenerateToken(userID uint) (string, error) {
	if userID == 0 {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken verifies signature and expiry and returns the claims.
// A verified token without a subject yields ErrMissingSubject.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secretKey, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
