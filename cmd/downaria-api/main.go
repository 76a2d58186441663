// Package main is the entry point for the downaria API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/database"
	"github.com/risunCode/downaria/internal/http/handlers"
	"github.com/risunCode/downaria/internal/http/mw"
	"github.com/risunCode/downaria/internal/http/routes"
	"github.com/risunCode/downaria/internal/logging"
	"github.com/risunCode/downaria/internal/repository"
	"github.com/risunCode/downaria/internal/service"
	"github.com/risunCode/downaria/internal/version"
	"github.com/risunCode/downaria/internal/worker"
)

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting downaria-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	// Runtime settings, S3-backed when configured
	s3Client, err := config.NewS3Client(cfg)
	if err != nil {
		logger.Error("failed to create settings store client", "error", err)
		os.Exit(1)
	}
	settings := config.NewSettingsLoader(cfg, s3Client, logger)
	if s3Client != nil {
		if err := settings.Refresh(context.Background()); err != nil {
			logger.Warn("initial settings fetch failed, using env defaults", "error", err)
		}
	}

	services, err := service.NewServices(cfg, repos, settings, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Background maintenance: cache purge, cookie probes, settings reload
	maintWorker := worker.New(repos, services.Cache, services.Cookie, settings, cfg.WorkerInterval, logger)
	ctx, cancel := context.WithCancel(context.Background())
	maintWorker.Start(ctx)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:  15 * time.Second,
		Extended: cfg.ExtractTimeout + 10*time.Second,
		// Resolution waits on upstream platforms
		ExtendedPatterns: []string{"/resolve"},
	}))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	router.Use(mw.RateLimitByIP(cfg.RateLimitPerMinute))

	humaConfig := huma.DefaultConfig("Downaria API", version.Get().Version)
	humaConfig.Info.Description = "Media link resolution API: detects the platform behind a share link and returns direct downloadable formats."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Admin API key authentication. Include your key in the Authorization header as `Bearer da_your_key`.",
		},
	}

	api := humachi.New(router, humaConfig)
	api.UseMiddleware(mw.HumaAuth(api, mw.AuthConfig{
		Keys:          services.APIKey,
		BootstrapHash: cfg.AdminAPIKeyHash,
	}))

	h := handlers.New(db, services, settings)
	routes.Register(api, h)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		cancel()
		maintWorker.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
