package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	apihttp "cineplayer/internal/api/http"
	"cineplayer/internal/app"
	"cineplayer/internal/manifest"
	"cineplayer/internal/metrics"
	mongorepo "cineplayer/internal/repository/mongo"
	"cineplayer/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "cineplayer")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "cineplayer"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("mongoDatabase", cfg.MongoDatabase),
		slog.Bool("redis", cfg.RedisURL != ""),
		slog.Duration("fetchTimeout", cfg.FetchTimeout),
		slog.Int64("fetchMaxBytes", cfg.FetchMaxBytes),
		slog.Duration("fallbackTTL", cfg.FallbackTTL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := mongorepo.NewMediaRepository(mongoClient, cfg.MongoDatabase)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo index creation failed", slog.String("error", err.Error()))
	}

	store, redisClient := newFallbackStore(ctx, cfg, logger)
	fetcherOpts := []manifest.FetcherOption{manifest.WithMaxBytes(cfg.FetchMaxBytes)}
	if root := cfg.FileRoot(); root != "" {
		fetcherOpts = append(fetcherOpts, manifest.WithFileRoot(root))
		logger.Info("local file urls enabled", slog.String("root", root))
	}
	fetcher := manifest.NewFetcher(cfg.FetchTimeout, fetcherOpts...)
	manifests := manifest.NewService(fetcher, store, logger)

	handler := apihttp.NewServer(repo, manifests,
		apihttp.WithLogger(logger),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		apihttp.WithMaxBodyBytes(cfg.FetchMaxBytes),
		apihttp.WithMetrics(cfg.MetricsEnabled),
		apihttp.WithFileRoot(cfg.FileRoot()),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close error", slog.String("error", err.Error()))
		}
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// newFallbackStore picks redis when REDIS_URL is set and reachable, and the
// in-process store otherwise. The returned client is nil for the latter.
func newFallbackStore(ctx context.Context, cfg app.Config, logger *slog.Logger) (manifest.Store, *redis.Client) {
	if cfg.RedisURL == "" {
		return manifest.NewMemoryStore(cfg.FallbackTTL), nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory fallback cache", slog.String("error", err.Error()))
		return manifest.NewMemoryStore(cfg.FallbackTTL), nil
	}
	client := redis.NewClient(redisOpts)
	store := manifest.NewRedisStore(client, cfg.FallbackTTL)
	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis not reachable, using in-memory fallback cache", slog.String("error", err.Error()))
		_ = client.Close()
		return manifest.NewMemoryStore(cfg.FallbackTTL), nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return store, client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
