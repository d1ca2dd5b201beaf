package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/skRookies2team/Backend-Relay/internal/auth"
	"github.com/skRookies2team/Backend-Relay/internal/backend"
	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/gateway"
	"github.com/skRookies2team/Backend-Relay/internal/health"
	"github.com/skRookies2team/Backend-Relay/internal/policy"
	"github.com/skRookies2team/Backend-Relay/internal/ratelimit"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := telemetry.NewLogger(os.Stdout, "json", level)
	slog.SetDefault(logger)

	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	level.Set(telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	logger = telemetry.NewLogger(os.Stdout, cfg.Telemetry.LogFormat, level)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	metrics := telemetry.NewMetrics()

	analysis := backend.NewAnalysisClient(cfg.Services.Analysis, metrics, logger)
	image := backend.NewImageClient(cfg.Services.Image, metrics, logger)
	chat := backend.NewChatClient(cfg.Services.Chat, metrics, logger)
	music := backend.NewMusicClient(cfg.Services.Music, metrics, logger)

	aggregator := health.NewAggregator([]health.Target{
		{Key: "analysisAi", Service: cfg.Services.Analysis.Name, Prober: analysis},
		{Key: "imageGenerationAi", Service: cfg.Services.Image.Name, Prober: image},
		{Key: "ragAi", Service: cfg.Services.Chat.Name, Prober: chat},
		{Key: "musicAi", Service: cfg.Services.Music.Name, Prober: music},
	}, metrics, logger)

	opts := gateway.RouterOptions{
		Gate:    auth.NewGate([]byte(cfg.Auth.JWTSecret)),
		Origins: gateway.NewOrigins(cfg.CORS.AllowedOrigins),
		CORS:    cfg.CORS,
		Metrics: metrics,
	}

	if cfg.RateLimit.Enabled {
		rdb := connectRedis(cfg.Redis, logger)
		if rdb != nil {
			defer rdb.Close()
		}
		opts.RateLimit = ratelimit.Middleware(ratelimit.NewLimiter(rdb), cfg.RateLimit.RequestsPerMinute, metrics)
	}

	if cfg.Policy.Enabled {
		evaluator := policy.NewEvaluator(cfg.Policy.EvaluationTimeout)
		if err := evaluator.Load(cfg.Policy.BundlePath); err != nil {
			logger.Error("failed to load authorization policy", "error", err)
			os.Exit(1)
		}
		opts.Policy = policy.Middleware(evaluator, metrics)
	}

	// Service descriptors and the secret are fixed for the process lifetime;
	// only origins and log level follow the file.
	loader.OnReload(func(c *config.Config) {
		opts.Origins.Set(c.CORS.AllowedOrigins)
		level.Set(telemetry.ParseLevel(c.Telemetry.LogLevel))
		logger.Info("runtime settings reloaded", "origins", len(c.CORS.AllowedOrigins), "log_level", c.Telemetry.LogLevel)
	})

	handler := gateway.NewHandler(analysis, image, chat, music, aggregator, cfg.Server.MaxBodyBytes)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      gateway.NewRouter(handler, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Telemetry.MetricsPort > 0 {
		go serveMetrics(cfg.Telemetry.MetricsPort, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay starting", "addr", addr, "version", version)
		for _, svc := range cfg.Services.All() {
			logger.Info("backend configured", "service", svc.Name, "base_url", svc.BaseURL)
		}
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}

// connectRedis returns nil when no address is set or the server is
// unreachable; the limiter then counts in process.
func connectRedis(cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if len(cfg.Addresses) == 0 || cfg.Addresses[0] == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addresses[0],
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis not reachable (rate limit is per instance)", "error", err)
		rdb.Close()
		return nil
	}
	logger.Info("redis connected", "addr", cfg.Addresses[0])
	return rdb
}

func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
