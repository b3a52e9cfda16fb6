package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"petstop/backend/internal/repository"
	"petstop/backend/internal/service"
	"petstop/backend/pkg/cache"
	"petstop/backend/pkg/config"
	"petstop/backend/pkg/health"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/metrics"
	"petstop/backend/pkg/ratelimit"
	"petstop/backend/pkg/resilience"
	"petstop/backend/pkg/secrets"
	"petstop/backend/shared/observability"
	sharedredis "petstop/backend/shared/redis"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const cacheMaxItems = 10000

// Container holds all the dependencies for the application
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// DB is nil when DB_DRIVER=memory
	DB *gorm.DB
	// Redis is nil unless the limiter store or the cache uses it
	Redis *redis.Client

	Repositories repository.Repositories
	JWTService   *jwt.Service
	Limiter      *ratelimit.Limiter
	Cache        cache.Cache
	Health       *health.Checker

	Metrics        *metrics.Recorder
	MetricsHandler http.Handler
	TracerProvider trace.TracerProvider

	UserService      *service.UserService
	PetSitterService *service.PetSitterService
	BookingService   *service.BookingService

	memoryStore *ratelimit.MemoryStore
	memoryCache *cache.MemoryCache
	closers     []func(context.Context) error
}

// New builds the container. db may be nil when cfg.Database.Driver is "memory".
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}
	c := &Container{Config: cfg, Logger: log, DB: db}

	if err := c.initSecrets(ctx); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	c.JWTService = tokens

	if err := c.initRedis(ctx); err != nil {
		return nil, err
	}
	if err := c.initTelemetry(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	c.initRepositories()
	c.initLimiter()
	c.initCache()
	c.initHealth()

	c.PetSitterService = service.NewPetSitterService(c.Repositories.PetSitters, c.Cache, cfg.Cache.TTL, log)
	c.UserService = service.NewUserService(c.Repositories.Users, tokens, c.PetSitterService, log)
	c.BookingService = service.NewBookingService(c.Repositories.Bookings, c.Repositories.PetSitters, log)

	return c, nil
}

// initSecrets lets Vault override the JWT secret when enabled
func (c *Container) initSecrets(ctx context.Context) error {
	return secrets.ResolveFromConfig(ctx, c.Config, c.Logger)
}

func (c *Container) usesRedis() bool {
	return c.Config.RateLimit.Store == "redis" ||
		(c.Config.Cache.Enabled && c.Config.Cache.Backend == "redis")
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.usesRedis() {
		return nil
	}

	client, err := sharedredis.NewClient(ctx, sharedredis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = client
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	return nil
}

func (c *Container) initTelemetry() error {
	cfg := c.Config.Telemetry

	if cfg.MetricsEnabled {
		provider, handler, err := observability.SetupMetrics(cfg.ServiceName)
		if err != nil {
			return err
		}
		recorder, err := metrics.NewRecorder(provider)
		if err != nil {
			return fmt.Errorf("failed to create metric instruments: %w", err)
		}
		c.Metrics = recorder
		c.MetricsHandler = handler
		c.closers = append(c.closers, provider.Shutdown)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.SetupTracing(cfg.ServiceName, os.Stdout)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, shutdown)
	}
	c.TracerProvider = otel.GetTracerProvider()
	return nil
}

func (c *Container) initRepositories() {
	if c.DB == nil {
		c.Logger.Warn("No database configured, using in-memory repositories")
		c.Repositories = repository.NewMemoryRepositories()
		return
	}
	c.Repositories = repository.NewGormRepositories(c.DB)
}

// initLimiter builds the attempt limiter. Login shares the signup policy.
func (c *Container) initLimiter() {
	cfg := c.Config.RateLimit
	policy := ratelimit.Policy{MaxAttempts: cfg.MaxAttempts, Window: cfg.Window}

	var store ratelimit.Store
	if cfg.Store == "redis" {
		store = ratelimit.NewRedisStore(c.Redis, cfg.KeyPrefix)
	} else {
		c.memoryStore = ratelimit.NewMemoryStore()
		store = c.memoryStore
	}

	c.Limiter = ratelimit.New(store, map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSignup: policy,
		ratelimit.ClassLogin:  policy,
	}, ratelimit.WithLogger(c.Logger))
}

func (c *Container) initCache() {
	cfg := c.Config.Cache
	if !cfg.Enabled {
		return
	}

	if cfg.Backend == "redis" && c.Redis != nil {
		breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-cache"), c.Logger)
		c.Cache = cache.NewRedisCache(c.Redis, "petstop:cache", breaker, c.Logger)
		return
	}
	c.memoryCache = cache.NewMemoryCache(cacheMaxItems)
	c.Cache = c.memoryCache
}

func (c *Container) initHealth() {
	c.Health = health.NewChecker(c.Logger, 30*time.Second)

	if c.DB != nil {
		db := c.DB
		c.Health.RegisterPing("database", true, func(ctx context.Context) error {
			return config.Ping(ctx, db)
		})
	}

	if c.Redis != nil {
		// The limiter fails closed without Redis, so signup is down with it.
		critical := c.Config.RateLimit.Store == "redis"
		c.Health.RegisterPing("redis", critical, sharedredis.NewChecker(c.Redis).Check)
	}

	if rc, ok := c.Cache.(*cache.RedisCache); ok {
		breaker := rc.Breaker()
		c.Health.RegisterCheck("cache", false, func(context.Context) (health.Status, string, error) {
			if breaker.GetState() == resilience.StateOpen {
				return health.StatusDegraded, "cache circuit open", nil
			}
			return health.StatusUp, "cache available", nil
		})
	}
}

// Start launches background work: health checks and memory janitors
func (c *Container) Start(ctx context.Context) {
	c.Health.Start(ctx)

	if c.memoryStore != nil {
		c.memoryStore.StartJanitor(ctx, time.Minute)
	}
	if c.memoryCache != nil {
		c.memoryCache.StartCleanup(ctx, time.Minute)
	}
}

// Close releases the connections the container opened
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
