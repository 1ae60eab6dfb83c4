// Package main is the entry point for the match engine API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/opencrew/matchengine/internal/api"
	"github.com/opencrew/matchengine/internal/catalog"
	"github.com/opencrew/matchengine/internal/config"
	"github.com/opencrew/matchengine/internal/engine"
	"github.com/opencrew/matchengine/internal/health"
	"github.com/opencrew/matchengine/internal/jobs"
	"github.com/opencrew/matchengine/internal/match"
	"github.com/opencrew/matchengine/internal/middleware"
	"github.com/opencrew/matchengine/internal/store"
	"github.com/opencrew/matchengine/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Match Engine API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, loadErrs := config.Load(*configPath)
	if cfg == nil {
		for _, err := range loadErrs {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	for _, err := range loadErrs {
		logger.Warn("config load issue", "error", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Distributed tracing (optional)
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "matchengine",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TraceSampleRatio,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}
	cancelPing()

	st := store.NewPostgres(db, logger)

	// Redis match cache (optional, best-effort)
	var redisClient *redis.Client
	var matchCache *store.MatchCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		matchCache = store.NewMatchCache(redisClient, time.Duration(cfg.MatchCacheTTLSeconds)*time.Second, logger)
	}

	// Scoring weights, optionally calibrated from file
	weights, err := match.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, running with defaults", "error", err)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mwMetrics := middleware.NewMetrics()
	if err := mwMetrics.Register(registry); err != nil {
		logger.Error("failed to register middleware metrics", "error", err)
		os.Exit(1)
	}
	engineMetrics := engine.NewMetrics()
	if err := engineMetrics.Register(registry); err != nil {
		logger.Error("failed to register engine metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	// Matching engine
	skillCatalog := catalog.NewCache(st, catalog.DefaultTTL, logger)
	engineOpts := []engine.Option{
		engine.WithWeights(weights),
		engine.WithMetrics(engineMetrics),
	}
	if matchCache != nil {
		engineOpts = append(engineOpts, engine.WithMatchCache(matchCache))
	}
	matchEngine := engine.New(st, skillCatalog, engine.Config{
		BatchSize:        cfg.MatchBatchSize,
		Parallelism:      cfg.MatchParallelism,
		RefreshTimeout:   time.Duration(cfg.RefreshTimeoutSeconds) * time.Second,
		PersistTopN:      cfg.PersistTopN,
		RecentHireWindow: time.Duration(cfg.RecentHireWindowDays) * 24 * time.Hour,
		Diversity: match.DiversityConfig{
			MaxFromSameTimezone:  cfg.MaxFromSameTimezone,
			BoostNewContributors: cfg.BoostNewContributors,
			PenalizeRecentHires:  cfg.PenalizeRecentHires,
		},
	}, logger, engineOpts...)

	// Background sweep keeping stored matches and match power fresh
	sweeper := jobs.NewSweeper(matchEngine, st, jobs.SweeperConfig{
		RecomputeMatchPower: true,
	}, logger, jobMetrics)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)

	// HTTP handlers
	matchHandlers := api.NewMatchHandlers(matchEngine, logger)
	healthConfig := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(db)}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	// Rate limiting
	rlStore := middleware.NewInMemoryRateLimitStore()
	ipKey := middleware.IPKeyFunc()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rlStore.Cleanup()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/missions/", middleware.RateLimiter(rlStore, middleware.DefaultRefreshLimit(), ipKey, "refresh", mwMetrics)(
		http.HandlerFunc(matchHandlers.Missions)))
	mux.Handle("/contributors/", middleware.RateLimiter(rlStore, middleware.DefaultRecommendLimit(), ipKey, "recommend", mwMetrics)(
		http.HandlerFunc(matchHandlers.Contributors)))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"matchengine-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Logging -> HTTPMetrics -> Tracing -> routes
	var handler http.Handler = mux
	if cfg.TracingEnabled {
		handler = middleware.Tracing("matchengine")(handler)
	}
	handler = middleware.RequestID(middleware.Logging(logger)(middleware.HTTPMetrics(mwMetrics)(handler)))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweeper()

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
