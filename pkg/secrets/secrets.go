// Package secrets resolves sensitive settings from Vault with an environment fallback.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"petstop/backend/pkg/config"
	"petstop/backend/pkg/logger"
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret with a default value if not found
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// JWTSecretKey is the key holding the token signing secret
const JWTSecretKey = "jwt_secret"

// EnvManager reads secrets from environment variables only
type EnvManager struct{}

// GetSecret implements Manager
func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(envKey(key))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// GetSecretWithDefault implements Manager
func (m EnvManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	if v, err := m.GetSecret(ctx, key); err == nil {
		return v
	}
	return defaultValue
}

// ResolveJWTSecret returns the signing secret from m, or current when m has none.
// An empty result is an error: the server must not start without a secret.
func ResolveJWTSecret(ctx context.Context, m Manager, current string) (string, error) {
	secret := m.GetSecretWithDefault(ctx, JWTSecretKey, current)
	if secret == "" {
		return "", ErrSecretNotFound
	}
	return secret, nil
}

// ResolveFromConfig replaces cfg.JWT.Secret with the Vault value when Vault is
// enabled. Every token issuer and verifier must go through it.
func ResolveFromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	vault, err := NewVaultManager(VaultConfig{
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		Mount:   cfg.Vault.Mount,
		Path:    cfg.Vault.Path,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create vault client: %w", err)
	}

	secret, err := ResolveJWTSecret(ctx, vault, cfg.JWT.Secret)
	if err != nil {
		return fmt.Errorf("failed to resolve JWT secret: %w", err)
	}
	cfg.JWT.Secret = secret
	return nil
}

// envKey converts jwt_secret, jwt-secret or jwt.secret to JWT_SECRET
func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
