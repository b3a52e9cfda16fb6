package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned by Load when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port            string
		Env             string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	// Database configuration
	Database struct {
		Driver   string // postgres or memory
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Retries  int
		Timeout  time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Attempt limits for sensitive endpoints
	RateLimit struct {
		Store          string // memory or redis
		MaxAttempts    int
		Window         time.Duration
		LoginEnabled   bool
		ClientIPHeader string
		KeyPrefix      string
	}

	// Security configuration
	Security struct {
		ThrottleRate   float64
		ThrottleBurst  int
		AllowedOrigins []string
		TrustedProxies []string
		MaxBodySize    int64
	}

	// Redis configuration, shared by the limiter store and the cache
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Cache settings
	Cache struct {
		Enabled bool
		Backend string // memory or redis
		TTL     time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Vault secret overrides
	Vault struct {
		Enabled bool
		Address string
		Token   string
		Mount   string
		Path    string
	}

	// Telemetry configuration
	Telemetry struct {
		MetricsEnabled bool
		TracingEnabled bool
		ServiceName    string
	}

	// Request schema validation
	OpenAPI struct {
		ValidateRequests bool
	}
}

// Load reads configuration from the environment, loading a .env file first
// when one is present. A missing JWT secret is a fatal misconfiguration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)

	// Database config
	cfg.Database.Driver = getEnvString("DB_DRIVER", "postgres")
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "petstop")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Retries = getEnvInt("DB_RETRIES", 5)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	// JWT config
	cfg.JWT.Secret = getEnvString("JWT_SECRET", "")
	cfg.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Rate limit config
	cfg.RateLimit.Store = getEnvString("RATE_LIMIT_STORE", "memory")
	cfg.RateLimit.MaxAttempts = getEnvInt("RATE_LIMIT_MAX_ATTEMPTS", 5)
	cfg.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.RateLimit.LoginEnabled = getEnvBool("RATE_LIMIT_LOGIN_ENABLED", false)
	cfg.RateLimit.ClientIPHeader = getEnvString("RATE_LIMIT_CLIENT_IP_HEADER", "CF-Connecting-IP")
	cfg.RateLimit.KeyPrefix = getEnvString("RATE_LIMIT_KEY_PREFIX", "petstop:attempts")

	// Security config
	cfg.Security.ThrottleRate = getEnvFloat("THROTTLE_RATE", 20)
	cfg.Security.ThrottleBurst = getEnvInt("THROTTLE_BURST", 40)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Redis config
	cfg.Redis.Addr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.Backend = getEnvString("CACHE_BACKEND", "memory")
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "http://localhost:8200")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Mount = getEnvString("VAULT_MOUNT", "secret")
	cfg.Vault.Path = getEnvString("VAULT_PATH", "petstop")

	// Telemetry config
	cfg.Telemetry.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.Telemetry.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Telemetry.ServiceName = getEnvString("OTEL_SERVICE_NAME", "petstop-backend")

	cfg.OpenAPI.ValidateRequests = getEnvBool("OPENAPI_VALIDATE_REQUESTS", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
// The JWT secret is only checked when Vault is disabled, since Vault may supply it later.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && !c.Vault.Enabled {
		return ErrMissingJWTSecret
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive, got %d", c.RateLimit.MaxAttempts)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimit.Store)
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
