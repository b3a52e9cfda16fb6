package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"petstop/backend/internal/api"
	"petstop/backend/pkg/config"
	"petstop/backend/pkg/di"
	"petstop/backend/pkg/errors"
	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/middleware"
	"petstop/backend/pkg/ratelimit"
	"petstop/backend/shared/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config

	throttle *middleware.Throttle
}

// New creates a new router with the given container and installs the
// global middleware chain
func New(container *di.Container) (*Router, error) {
	cfg := container.Config

	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		throttle: middleware.NewThrottle(container.Logger, middleware.ThrottleOptions{
			Limit:          rate.Limit(cfg.Security.ThrottleRate),
			Burst:          cfg.Security.ThrottleBurst,
			ExpiryDuration: 10 * time.Minute,
		}),
	}

	// Request ID first so every log line carries it
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(errors.ErrorHandler())
	engine.Use(corsMiddleware(cfg))
	engine.Use(observability.TracingMiddleware(container.TracerProvider))
	engine.Use(container.Metrics.Middleware())
	engine.Use(r.throttle.Middleware())
	engine.Use(bodyLimit(cfg.Security.MaxBodySize))

	if cfg.OpenAPI.ValidateRequests {
		if err := r.AddOpenAPIValidation(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Start runs the router's background cleanup until ctx is done
func (r *Router) Start(ctx context.Context) {
	go r.throttle.Cleanup(ctx, time.Minute)
}

// SetupRoutes registers all application routes.
// Every route runs rate limiter, then auth gate, then handler; each stage is
// attached only where it applies.
func (r *Router) SetupRoutes() {
	c := r.Container

	authHandler := api.NewAuthHandler(c.UserService, r.Logger)
	userHandler := api.NewUserHandler(c.UserService)
	petSitterHandler := api.NewPetSitterHandler(c.PetSitterService)
	bookingHandler := api.NewBookingHandler(c.BookingService)

	gate := middleware.NewGate(c.JWTService, r.Logger)
	requireAuth := gate.Middleware(func(ctx *gin.Context, res middleware.Result) {
		c.Metrics.AuthRejected(ctx.Request.Context(), res.Reason)
	})

	r.setupHealthRoutes()

	apiGroup := r.Engine.Group("/api")

	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/signup", r.limit(ratelimit.ClassSignup), authHandler.Signup)
		if r.Config.RateLimit.LoginEnabled {
			authRoutes.POST("/login", r.limit(ratelimit.ClassLogin), authHandler.Login)
		} else {
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Protected routes (require authentication)
	protected := apiGroup.Group("")
	protected.Use(requireAuth)
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.PUT("/me", userHandler.UpdateMe)
		}

		petSitters := protected.Group("/petsitters")
		{
			petSitters.POST("", petSitterHandler.Create)
			petSitters.GET("", petSitterHandler.List)
			petSitters.GET("/:id", petSitterHandler.Get)
			petSitters.PUT("/:id", petSitterHandler.Update)
			petSitters.DELETE("/:id", petSitterHandler.Delete)
			petSitters.POST("/:id/availability", petSitterHandler.AddAvailability)
		}

		bookings := protected.Group("/bookings")
		{
			bookings.GET("", bookingHandler.List)
			bookings.POST("", bookingHandler.Create)
		}
	}
}

// limit returns the attempt limiter middleware for class
func (r *Router) limit(class ratelimit.Class) gin.HandlerFunc {
	recorder := r.Container.Metrics
	return r.Container.Limiter.Middleware(ratelimit.MiddlewareConfig{
		Class:  class,
		Header: r.Config.RateLimit.ClientIPHeader,
		OnDeny: func(c *gin.Context, _ string, _ ratelimit.Decision) {
			recorder.RateLimited(c.Request.Context(), string(class))
		},
	})
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Retry-After", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
			break
		}
	}
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}

// bodyLimit caps request bodies at limit bytes
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
