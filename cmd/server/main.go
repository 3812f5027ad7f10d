package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/moodscope/internal/adapter/httpserver"
	"github.com/pscheid92/moodscope/internal/adapter/metrics"
	"github.com/pscheid92/moodscope/internal/adapter/postgres"
	"github.com/pscheid92/moodscope/internal/adapter/redis"
	"github.com/pscheid92/moodscope/internal/app"
	"github.com/pscheid92/moodscope/internal/emotion"
	"github.com/pscheid92/moodscope/internal/platform/config"
	"github.com/pscheid92/moodscope/internal/platform/logging"
	"github.com/pscheid92/moodscope/internal/platform/retry"
	"github.com/pscheid92/moodscope/internal/platform/version"
)

const (
	connectTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second

	// statsMemoryTTL fronts Redis with a short in-process copy of the public counters.
	statsMemoryTTL = 2 * time.Second
)

var startupRetry = retry.Policy{
	MaxAttempts:    6,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     8 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, dbMetrics *metrics.DBMetrics) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	tracer := postgres.NewMetricsTracer(dbMetrics)
	pool, err := retry.Do(ctx, startupRetry, retry.Always, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, nil
}

func setupRedis(ctx context.Context, cfg *config.Config, redisMetrics *metrics.RedisMetrics) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	hooks := []goredis.Hook{
		redis.NewMetricsHook(redisMetrics),
		redis.NewCircuitBreakerHook(redisMetrics),
	}
	client, err := retry.Do(ctx, startupRetry, retry.Always, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, hooks...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func setupScorer(cfg *config.Config) (*emotion.Scorer, error) {
	lexicon := emotion.DefaultLexicon()
	if cfg.EmotionLexiconPath != "" {
		var err error
		lexicon, err = emotion.LoadLexicon(cfg.EmotionLexiconPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded emotion lexicon", "path", cfg.EmotionLexiconPath, "keywords", lexicon.Size())
	}
	return emotion.NewScorer(lexicon), nil
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func run() error {
	ctx := context.Background()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	cacheMetrics := metrics.NewCacheMetrics(registry)
	analysisMetrics := metrics.NewAnalysisMetrics(registry)
	dbMetrics := metrics.NewDBMetrics(registry)
	redisMetrics := metrics.NewRedisMetrics(registry)

	scorer, err := setupScorer(cfg)
	if err != nil {
		return err
	}

	pool, err := setupDB(ctx, cfg, dbMetrics)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := setupRedis(ctx, cfg, redisMetrics)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	statsCache := redis.NewStatsCache(redisClient, clock, cfg.StatsCacheTTL, statsMemoryTTL, cacheMetrics)

	appSvc := app.NewService(
		postgres.NewUserRepo(pool),
		postgres.NewAnalysisRepo(pool),
		postgres.NewStatsRepo(pool),
		statsCache,
		scorer,
		analysisMetrics,
		clock,
	)

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv, err := httpserver.NewServer(cfg, appSvc, httpMetrics, metrics.Handler(registry), healthChecks)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}
