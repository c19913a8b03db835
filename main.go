package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/config"
	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/handlers"
	"github.com/munificent-school/backoffice/internal/repositories/postgres"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
	"github.com/munificent-school/backoffice/internal/validator"
	"github.com/munificent-school/backoffice/pkg"
)

func main() {
	seed := flag.Bool("seed", false, "populate an empty database with demo data and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis is optional; settings reads fall back to the database without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	publisher, err := events.NewPublisher(events.Config{
		Driver:       cfg.Events.Driver,
		KafkaBrokers: cfg.Events.KafkaBrokers,
	}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(repo, slogLogger, validator.New(), services.ServiceManagerConfig{
		Tokens:          auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Publisher:       publisher,
		DefaultPassword: cfg.DefaultPassword,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if *seed || cfg.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := pkg.Seed(ctx, repo, serviceManager, slogLogger, cfg.DefaultPassword)
		cancel()
		if err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
		if *seed {
			_ = serviceManager.Shutdown(context.Background())
			return
		}
	}

	// Initialize handlers
	var extraAuth []handlers.Authenticator
	if cfg.Casdoor.Enabled() {
		extraAuth = append(extraAuth, handlers.NewCasdoorAuthenticator(cfg.Casdoor, repo.User(), logger))
		logger.Info("Casdoor authentication enabled", "endpoint", cfg.Casdoor.Endpoint)
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg.RateLimit, extraAuth...)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the publisher, the database pool and redis
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
}
