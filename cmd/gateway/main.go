package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/civicband/edge-gateway/internal/analytics"
	"github.com/civicband/edge-gateway/internal/apikey"
	"github.com/civicband/edge-gateway/internal/backend"
	"github.com/civicband/edge-gateway/internal/config"
	"github.com/civicband/edge-gateway/internal/gate"
	"github.com/civicband/edge-gateway/internal/ratelimit"
	"github.com/civicband/edge-gateway/internal/server"
	"github.com/civicband/edge-gateway/internal/telemetry"
	"github.com/civicband/edge-gateway/internal/tenant"
	"github.com/civicband/edge-gateway/internal/trust"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("edge-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	directory, err := tenant.OpenDirectory(cfg.Sites.Path)
	if err != nil {
		log.Fatalf("Failed to open sites database: %v", err)
	}
	defer directory.Close()

	// Shared caches: Redis when configured, per-process otherwise.
	var limiter ratelimit.Limiter
	var verdicts apikey.VerdictCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		limiter = ratelimit.NewRedis(client, cfg.Access.RateLimit, cfg.Access.RateWindow)
		verdicts = apikey.NewRedisCache(client)
		logger.Info("using redis caches", slog.String("addr", cfg.Redis.Addr))
	} else {
		limiter = ratelimit.NewInMemory(cfg.Access.RateLimit, cfg.Access.RateWindow)
		verdicts = apikey.NewMemoryCache()
		logger.Info("using in-memory caches")
	}

	validator := &apikey.Validator{
		Cache:      verdicts,
		Upstream:   apikey.NewObserverClient(cfg.Observer.URL, cfg.Observer.Secret, cfg.Observer.Timeout),
		ValidTTL:   cfg.Observer.ValidTTL,
		InvalidTTL: cfg.Observer.InvalidTTL,
		Debug:      cfg.Debug,
		Logger:     logger,
	}

	root, err := backend.RootProxy(cfg.Backend.RootURL)
	if err != nil {
		log.Fatalf("Failed to configure root application: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	g := &gate.Gate{
		Directory: directory,
		Classifier: &trust.Classifier{
			BaseDomain:    cfg.Access.BaseDomain,
			ServiceSecret: cfg.Observer.Secret,
			Placeholder:   config.PlaceholderSecret,
			Debug:         cfg.Debug,
		},
		Limiter:   limiter,
		Validator: validator,
		Backend:   backend.NewProxyDispatcher(cfg.Backend.AddrTemplate),
		Root:      root,
		Tracker: analytics.NewTracker(cfg.Analytics.Enabled, cfg.Analytics.URL,
			cfg.Analytics.WebsiteID, cfg.Analytics.APIKey, logger),
		Metrics:        gate.NewMetrics(registry),
		Logger:         logger,
		HomeURL:        cfg.Access.HomeURL,
		DocsURL:        cfg.Access.DocsURL,
		SignupURL:      cfg.Access.SignupURL,
		MaxQueryLength: cfg.Access.MaxQueryLength,
		MaxPageSize:    cfg.Access.MaxPageSize,
	}

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Router.Handle("/*", g)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("gateway shutdown complete")
}
