package secrets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"petstop/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig holds configuration for Vault client
type VaultConfig struct {
	Address    string
	Token      string
	Namespace  string
	Mount      string
	Path       string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// VaultManager reads secrets from a KV v2 engine, falling back to the environment
type VaultManager struct {
	client *vault.Client
	config VaultConfig
	env    EnvManager
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewVaultManager creates a new Vault manager instance
func NewVaultManager(config VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if config.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if config.Token == "" {
		return nil, ErrNoVaultToken
	}
	if config.Mount == "" {
		config.Mount = "secret"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	vaultConfig.Timeout = config.Timeout
	vaultConfig.MaxRetries = config.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	return &VaultManager{
		client: client,
		config: config,
		log:    log,
		cache:  make(map[string]cachedSecret),
	}, nil
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if v, ok := m.cached(key); ok {
		return v, nil
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
			return m.env.GetSecret(ctx, key)
		}
		return "", err
	}

	m.mu.Lock()
	m.cache[key] = cachedSecret{value: value, expiresAt: time.Now().Add(m.config.CacheTTL)}
	m.mu.Unlock()

	return value, nil
}

// GetSecretWithDefault retrieves a secret with a default value if not found
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Failed to get secret, using default value",
				"key", key,
				"error", err.Error(),
			)
		}
		return defaultValue
	}
	return value
}

func (m *VaultManager) cached(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cache[key]
	if !ok || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.value, true
}

// getFromVault reads <mount>/data/<path> and picks key out of the secret data
func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	p := path.Join(m.config.Mount, "data", m.config.Path)

	secret, err := m.client.Logical().ReadWithContext(ctx, p)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", p, err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", ErrSecretNotFound
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}

	return value, nil
}
