package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/lure/internal/archive"
	"github.com/BradenHooton/lure/internal/auth"
	"github.com/BradenHooton/lure/internal/background"
	"github.com/BradenHooton/lure/internal/config"
	"github.com/BradenHooton/lure/internal/database"
	"github.com/BradenHooton/lure/internal/geo"
	"github.com/BradenHooton/lure/internal/handlers"
	middlewareCustom "github.com/BradenHooton/lure/internal/middleware"
	"github.com/BradenHooton/lure/internal/repositories"
	"github.com/BradenHooton/lure/internal/routes"
	"github.com/BradenHooton/lure/internal/services"
	pkglogger "github.com/BradenHooton/lure/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	level.Set(parseLevel(cfg.Server.LogLevel))
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Geolocation
	var locator geo.Locator = geo.Disabled{}
	if cfg.Geo.Enabled {
		locator = geo.NewClient(geo.Config{BaseURL: cfg.Geo.BaseURL, Timeout: cfg.Geo.Timeout})
	} else {
		logger.Info("geolocation disabled")
	}

	// Initialize services
	attemptService := services.NewAttemptService(attemptRepo, locator, auditLogger, logger, cfg.Ingest.StoreWriteTimeout)
	campaignService := services.NewCampaignService(campaignRepo, attemptRepo, auditLogger, logger)

	// Initialize handlers
	attemptHandler := handlers.NewAttemptHandler(attemptService, cfg.Ingest.MaxBodyBytes, logger)
	campaignHandler := handlers.NewCampaignHandler(campaignService, cfg.Ingest.PhishingBaseURL, logger)

	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret)

	// Retention manager, optionally archiving to S3 first
	var archiver background.Archiver
	if cfg.Archive.S3Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Archiver, err := archive.NewS3Archiver(ctx, cfg.Archive, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize attempt archive", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = s3Archiver
	}
	retentionManager := background.NewRetentionManager(
		attemptRepo, archiver, auditLogger, logger,
		cfg.Retention.MaxAge, cfg.Retention.Interval,
	)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, attemptHandler, campaignHandler, verifier, routes.Config{
		CaptureRateLimitPerMinute: cfg.Ingest.RateLimitPerMinute,
		AdminRateLimitPerMinute:   cfg.Server.AdminRateLimitPerMinute,
		AllowedOrigins:            cfg.Server.AllowedOrigins,
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start retention task
	retentionCtx, retentionCancel := context.WithCancel(context.Background())
	defer retentionCancel()

	go retentionManager.Start(retentionCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	retentionCancel()
	retentionManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
