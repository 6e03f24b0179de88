// Package main is the entry point for the vidrank API server.
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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/vidrank/internal/api"
	"github.com/onnwee/vidrank/internal/config"
	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/health"
	"github.com/onnwee/vidrank/internal/middleware"
	"github.com/onnwee/vidrank/internal/quota"
	"github.com/onnwee/vidrank/internal/ranking"
	"github.com/onnwee/vidrank/internal/tracing"
	"github.com/onnwee/vidrank/internal/youtube"
)

const (
	serviceName              = "vidrank-api"
	shutdownTimeout          = 10 * time.Second
	rateLimitCleanupInterval = time.Minute
	corsMaxAge               = 600
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment variables take precedence)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("vidrank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, errs := config.Load(configPath)

	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		return fmt.Errorf("configuration has %d error(s)", len(errs))
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		ServiceName: serviceName,
		Version:     version,
		Environment: cfg.Env,
		Protocol:    cfg.TracingExporter,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.TracingInsecure,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	discoveryMetrics := discovery.NewMetrics()
	if err := discoveryMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register discovery metrics: %w", err)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}

	ledger := quota.NewLedger(rdb, int64(cfg.YouTubeDailyQuota))
	client, err := youtube.NewClient(ctx, youtube.Config{
		APIKey: cfg.YouTubeAPIKey,
		Quota:  ledger,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create youtube client: %w", err)
	}

	calibration, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Warn("using default ranking calibration", "error", err)
	}

	analyzer, err := discovery.NewAnalyzer(discovery.AnalyzerConfig{
		Search:      client,
		Statistics:  client,
		Calibration: calibration,
		MaxResults:  cfg.MaxSearchResults,
		Metrics:     discoveryMetrics,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	aggregator, err := discovery.NewAggregator(discovery.AggregatorConfig{
		Analyzer:        analyzer,
		Concurrency:     cfg.AggregatorConcurrency,
		FallbackKeyword: cfg.TrendingFallbackKeyword,
		Metrics:         discoveryMetrics,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	youtubeChecker := health.NewYouTubeChecker(cfg.YouTubeAPIKey)
	healthCfg := api.HealthHandlersConfig{
		YouTubeChecker: youtubeChecker,
		YouTubeEnabled: youtubeChecker.Enabled(),
		Version:        version,
	}
	if rdb != nil {
		healthCfg.RedisChecker = health.NewRedisChecker(rdb)
	}

	router := api.NewRouter(api.RouterConfig{
		Search:   api.NewSearchHandlers(analyzer),
		Trending: api.NewTrendingHandlers(aggregator, cfg.ActiveTrendingKeywords()),
		Quota:    api.NewQuotaHandlers(ledger),
		Health:   api.NewHealthHandlers(healthCfg),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Version:  version,
	})

	store := newRateLimitStore(rdb, httpMetrics, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           buildHandler(cfg, logger, router, store, httpMetrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if mem, ok := store.(*middleware.InMemoryRateLimitStore); ok && cfg.RateLimitPerMinute > 0 {
		g.Go(func() error {
			runCleanup(gctx, mem, rateLimitCleanupInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRedisClient parses url into a client. An empty url returns nil.
func newRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// newRateLimitStore shares limits across replicas through Redis when it is
// configured and keeps them in process memory otherwise.
func newRateLimitStore(rdb *redis.Client, metrics *middleware.Metrics, logger *slog.Logger) middleware.RateLimitStore {
	if rdb == nil {
		return middleware.NewInMemoryRateLimitStore()
	}
	return middleware.NewRedisRateLimitStore(rdb,
		middleware.WithStoreMetrics(metrics),
		middleware.WithStoreLogger(logger))
}

// buildHandler wraps router with the middleware chain:
// RequestID -> Logging -> Tracing -> CORS -> RateLimiter -> HTTPMetrics -> router.
// Tracing is skipped when disabled and the rate limiter when the limit is 0.
func buildHandler(cfg *config.Config, logger *slog.Logger, router http.Handler, store middleware.RateLimitStore, metrics *middleware.Metrics) http.Handler {
	h := middleware.HTTPMetrics(metrics)(router)
	if cfg.RateLimitPerMinute > 0 && store != nil {
		h = middleware.RateLimiter(store, middleware.PerMinute(cfg.RateLimitPerMinute), middleware.IPKeyFunc(), metrics)(h)
	}
	h = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSOrigins,
		MaxAge:         corsMaxAge,
	})(h)
	if cfg.TracingEnabled {
		h = middleware.Tracing(serviceName)(h)
	}
	h = middleware.Logging(logger)(h)
	return middleware.RequestID(h)
}

// runCleanup evicts expired rate limit windows until ctx is done.
func runCleanup(ctx context.Context, store *middleware.InMemoryRateLimitStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Cleanup()
		}
	}
}
