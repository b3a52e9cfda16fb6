package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"petstop/backend/internal/repository"
	"petstop/backend/pkg/config"
	"petstop/backend/pkg/di"
	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/router"

	"gorm.io/gorm"
)

func main() {
	// Load configuration; a missing JWT secret stops the process here
	cfg, err := config.Load()
	if err != nil {
		logger.GetGlobal().LogError(err, "Invalid configuration")
		os.Exit(1)
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	var db *gorm.DB
	if cfg.Database.Driver == "postgres" {
		db, err = config.NewDB(cfg, log)
		if err != nil {
			log.LogError(err, "Failed to initialize database")
			os.Exit(1)
		}

		// Auto-migrate the schema
		if err := repository.AutoMigrate(db); err != nil {
			log.LogError(err, "Failed to migrate database")
			os.Exit(1)
		}
	}

	// Initialize dependency injection container
	container, err := di.New(ctx, cfg, db, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	container.Start(ctx)

	// Initialize and setup router
	r, err := router.New(container)
	if err != nil {
		log.LogError(err, "Failed to initialize router")
		os.Exit(1)
	}
	r.SetupRoutes()
	r.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Block until we receive a signal
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.LogError(err, "Failed to release resources")
	}

	log.Info("Server exited gracefully")
}
