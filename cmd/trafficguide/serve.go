package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/citypulse/trafficguide/config"
	"github.com/citypulse/trafficguide/internal/api"
	"github.com/citypulse/trafficguide/internal/cache"
	"github.com/citypulse/trafficguide/internal/classifier"
	"github.com/citypulse/trafficguide/internal/contentfilter"
	"github.com/citypulse/trafficguide/internal/database"
	"github.com/citypulse/trafficguide/internal/guide"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/metrics"
	middlewares "github.com/citypulse/trafficguide/internal/middleware"
	"github.com/citypulse/trafficguide/internal/ratelimit"
	"github.com/citypulse/trafficguide/internal/reasoning"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/scoring"
	"github.com/citypulse/trafficguide/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runServer(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cfg *config.Config) error {
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting trafficguide application",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and audit store
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close(ctx)

	auditStore := store.New(db)
	if ps, ok := auditStore.(*store.PostgresStore); ok {
		if err := ps.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	// Rules document
	rulesStore, err := rules.NewStore(cfg.Guide.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules document: %w", err)
	}

	// Analysis pipeline
	areaCache := cache.New(cfg.Redis.URL)
	cls := classifier.New(rulesStore, classifier.SubstringMatcher{}, areaCache)
	reasoner := reasoning.New(rulesStore)
	scorer := scoring.New(rulesStore, reasoner)
	g := guide.New(rulesStore, cls, scorer, reasoner, contentfilter.New(), auditStore)

	// Warm the area cache in the background
	go func() {
		if err := cls.Warmup(ctx, int64(cfg.Guide.WarmupWorkers), cfg.Guide.WarmupRate); err != nil {
			logger.Warn("Area cache warmup incomplete", "error", err)
		}
	}()

	// Setup HTTP server
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)

	// Rate limiting: Redis-backed when available, per-process otherwise
	if cfg.RateLimit.Enabled {
		var limiterWired bool
		if cfg.Redis.URL != "" {
			mgr, err := ratelimit.NewManager(cfg.Redis.URL, cfg.RateLimit.PerMinute)
			if err != nil {
				logger.Warn("Redis rate limiter unavailable; using in-process limiter", "error", err)
			} else {
				defer mgr.Close()
				r.Use(middlewares.RedisRateLimiter(mgr))
				limiterWired = true
			}
		}
		if !limiterWired {
			r.Use(middlewares.RateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst))
		}
	}

	// Initialize API handlers
	apiHandler := api.NewHandler(g, auditStore, rulesStore,
		cfg.Guide.MaxLocationLength, cfg.Guide.RecentLimit,
		Version, BuildTime, GitCommit)
	apiHandler.RegisterRoutes(r)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

func startMetricsServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting metrics server", "address", addr, "path", path)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server failed", "error", err)
	}
}
