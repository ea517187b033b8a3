package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/ai"
	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/internal/adapters/database"
	"github.com/selivandex/risklattice/internal/adapters/market"
	metricsAdapter "github.com/selivandex/risklattice/internal/adapters/metrics"
	"github.com/selivandex/risklattice/internal/adapters/news"
	"github.com/selivandex/risklattice/internal/adapters/price"
	redisAdapter "github.com/selivandex/risklattice/internal/adapters/redis"
	"github.com/selivandex/risklattice/internal/adapters/telegram"
	"github.com/selivandex/risklattice/internal/backfill"
	"github.com/selivandex/risklattice/internal/forecast"
	"github.com/selivandex/risklattice/internal/health"
	"github.com/selivandex/risklattice/internal/risk"
	"github.com/selivandex/risklattice/internal/sentiment"
	"github.com/selivandex/risklattice/internal/workers"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/metrics"
	"github.com/selivandex/risklattice/pkg/templates"
	"github.com/selivandex/risklattice/pkg/worker"
)

const (
	forecastCacheTTL  = 24 * time.Hour
	workerStopTimeout = 20 * time.Second

	// readiness fails after this many refresh passes in a row failed for every symbol
	maxRefreshFailures = 3
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("risk engine starting...",
		zap.Strings("symbols", cfg.Symbols),
		zap.Duration("refresh_interval", cfg.Refresh.Interval),
	)

	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	// Redis is optional: without it refresh locks are process-local and forecasts are not cached
	redisClient := initRedis(cfg)

	metricsBuffer, metricsCloser := initMetrics(ctx, cfg)

	tmpl, err := templates.Default()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	analyzer := initAnalyzer(cfg, tmpl)
	components := buildPipeline(cfg, db, redisClient, analyzer, metricsBuffer, initNotifier(cfg, tmpl))

	// Periodic refresh
	group := worker.NewWorkerGroup(ctx)
	refreshRunner := group.Add(components.refresh, cfg.Refresh.Interval)
	group.Start()

	// Nightly backfill
	scheduler := workers.NewScheduler(ctx, components.backfill, components.newsRepo, cfg.Symbols, cfg.Risk.BackfillDays)
	if err := scheduler.Register(cfg.Refresh.BackfillCron); err != nil {
		return err
	}
	scheduler.Start()

	healthServer := startHealthServer(cfg, db, redisClient, refreshRunner)

	<-ctx.Done()

	return performGracefulShutdown(healthServer, group, scheduler, metricsCloser, db, redisClient)
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initDatabase connects to Postgres and applies migrations
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db.Conn(), cfg.Migrations.Path); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// initRedis connects to Redis when enabled; nil means disabled or unreachable
func initRedis(cfg *config.Config) *redisAdapter.Client {
	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, using in-process refresh locks")
		return nil
	}

	client, err := redisAdapter.New(&cfg.Redis, cfg.Refresh.LockTTL)
	if err != nil {
		logger.Warn("⚠️ redis not available, using in-process refresh locks", zap.Error(err))
		return nil
	}

	return client
}

// initMetrics returns a ClickHouse-backed buffer when enabled, a no-op recorder otherwise
func initMetrics(ctx context.Context, cfg *config.Config) (metrics.Recorder, func(context.Context) error) {
	noop := func(context.Context) error { return nil }

	if !cfg.ClickHouse.Enabled {
		return metrics.Nop{}, noop
	}

	chDB, err := database.NewClickHouse(&cfg.ClickHouse)
	if err != nil {
		logger.Warn("ClickHouse not available, pipeline metrics disabled", zap.Error(err))
		return metrics.Nop{}, noop
	}

	repo := metricsAdapter.NewClickHouseRepository(chDB.DB())
	if err := repo.EnsureTables(ctx); err != nil {
		logger.Warn("failed to create metric tables, pipeline metrics disabled", zap.Error(err))
		chDB.Close()
		return metrics.Nop{}, noop
	}

	buffer := metrics.NewBufferedMetrics(metrics.BufferConfig{
		Writer:        metricsAdapter.NewWriter(repo),
		BatchSize:     cfg.ClickHouse.BatchSize,
		FlushInterval: cfg.ClickHouse.FlushInterval,
	})

	logger.Info("✅ pipeline metrics writing to ClickHouse")
	return buffer, func(ctx context.Context) error {
		defer chDB.Close()
		return buffer.Close(ctx)
	}
}

// initAnalyzer picks the LLM analyzer when an API key is set, the lexicon analyzer otherwise
func initAnalyzer(cfg *config.Config, tmpl templates.Renderer) sentiment.Analyzer {
	keyword := sentiment.NewKeywordAnalyzer()

	provider := ai.NewOpenAIProvider(&cfg.AI)
	if !provider.IsEnabled() {
		logger.Info("LLM sentiment disabled (no API key), using lexicon analyzer")
		return keyword
	}

	logger.Info("LLM sentiment enabled",
		zap.String("provider", provider.GetName()),
		zap.String("model", cfg.AI.OpenAI.Model),
	)
	return sentiment.NewLLMAnalyzer(provider, tmpl, keyword)
}

// initNotifier creates Telegram alerting when enabled
func initNotifier(cfg *config.Config, tmpl templates.Renderer) workers.Alerter {
	if !cfg.Telegram.Enabled {
		return nil
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram, tmpl)
	if err != nil {
		logger.Warn("failed to initialize telegram notifier", zap.Error(err))
		return nil
	}

	logger.Info("📱 Telegram forecast alerts enabled",
		zap.Float64("threshold", cfg.Risk.AlertThreshold),
	)
	return notifier
}

// pipeline holds the wired components shared by the workers
type pipeline struct {
	refresh  *workers.RefreshWorker
	backfill *backfill.Engine
	newsRepo *news.Repository
}

func buildPipeline(
	cfg *config.Config,
	db *database.DB,
	redisClient *redisAdapter.Client,
	analyzer sentiment.Analyzer,
	recorder metrics.Recorder,
	alerter workers.Alerter,
) *pipeline {
	priceRepo := price.NewRepository(db.DB())
	newsRepo := news.NewRepository(db.DB())
	marketRepo := market.NewRepository(db.DB())
	scoreRepo := risk.NewRepository(db.DB())
	forecastRepo := forecast.NewRepository(db.DB())

	weights := risk.Weights{Market: cfg.Risk.MarketWeight, News: cfg.Risk.NewsWeight}

	var (
		locks redisAdapter.LockFactory = redisAdapter.NewLocalLockFactory()
		cache forecast.Cache
	)
	if redisClient != nil {
		locks = redisClient.GetLockFactory()
		cache = redisClient.ForecastCache(forecastCacheTTL)
	}

	aggregator := news.NewAggregator([]news.Provider{
		news.NewGoogleNewsProvider(cfg.News.GoogleEnabled, cfg.News.Timeout),
		news.NewCoinDeskProvider(cfg.News.CoinDeskEnabled, cfg.News.Timeout),
	}, cfg.News.MaxArticles)

	backfillEngine := backfill.NewEngine(priceRepo, newsRepo, analyzer, scoreRepo, recorder, backfill.Config{
		Weights:     weights,
		Days:        cfg.Risk.BackfillDays,
		CommitEvery: cfg.Risk.BackfillCommitEvery,
	})

	forecastService := forecast.NewService(scoreRepo, newsRepo, forecastRepo, cache, recorder, forecast.Windows{
		Trend:   time.Duration(cfg.Risk.TrendWindowDays) * 24 * time.Hour,
		Pattern: time.Duration(cfg.Risk.PatternWindowDays) * 24 * time.Hour,
		News:    time.Duration(cfg.Risk.NewsWindowDays) * 24 * time.Hour,
	})

	refresh := workers.NewRefreshWorker(workers.RefreshDeps{
		Prices:     price.NewDefaultRouter(&cfg.Prices),
		PriceStore: priceRepo,
		News:       aggregator,
		NewsStore:  newsRepo,
		Snapshots:  marketRepo,
		Analyzer:   analyzer,
		Scores:     scoreRepo,
		Scorer:     risk.NewScorer(scoreRepo, weights),
		Forecasts:  forecastService,
		Backfill:   backfillEngine,
		Locks:      locks,
		Alerts:     alerter,
		Metrics:    recorder,
	}, workers.RefreshConfig{
		Symbols:        cfg.Symbols,
		HistoryDays:    cfg.Prices.HistoryDays,
		BackfillDays:   cfg.Risk.BackfillDays,
		Horizons:       cfg.Risk.Horizons(),
		AlertHorizon:   cfg.Risk.ForecastDaysAhead,
		AlertThreshold: cfg.Risk.AlertThreshold,
		NewsWindow:     time.Duration(cfg.Risk.NewsWindowDays) * 24 * time.Hour,
		NewsLimit:      cfg.News.MaxArticles,
	})

	return &pipeline{
		refresh:  refresh,
		backfill: backfillEngine,
		newsRepo: newsRepo,
	}
}

// startHealthServer initializes and starts health check server for K8s probes
func startHealthServer(cfg *config.Config, db *database.DB, redisClient *redisAdapter.Client, refresh *worker.PeriodicWorker) *health.Server {
	checks := map[string]health.CheckFunc{
		"database": db.Health,
		"refresh":  refresh.HealthCheck(maxRefreshFailures),
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}

	healthServer := health.NewServer(cfg.Health.Port, checks, len(cfg.Symbols))

	go func() {
		if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	logger.Info("🚀 Risk engine ready",
		zap.Int("symbols", len(cfg.Symbols)),
		zap.String("health_port", cfg.Health.Port),
	)

	healthServer.SetReady(true)

	return healthServer
}

// performGracefulShutdown handles graceful shutdown of all components
func performGracefulShutdown(
	healthServer *health.Server,
	group *worker.WorkerGroup,
	scheduler *workers.Scheduler,
	closeMetrics func(context.Context) error,
	db *database.DB,
	redisClient *redisAdapter.Client,
) error {
	logger.Info("🛑 Shutdown signal received, starting graceful shutdown...")

	// Mark service as not ready (stop accepting new traffic)
	healthServer.SetReady(false)

	// K8s gives 30s terminationGracePeriodSeconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	group.Stop(workerStopTimeout)
	scheduler.Stop()

	logger.Info("flushing pipeline metrics...")
	if err := closeMetrics(shutdownCtx); err != nil {
		logger.Error("metrics flush error", zap.Error(err))
	}

	logger.Info("closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	if redisClient != nil {
		logger.Info("closing redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", zap.Error(err))
		}
	}

	logger.Info("stopping health server...")
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	logger.Sync()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("⚠️ shutdown timeout exceeded")
		return fmt.Errorf("graceful shutdown timeout")
	default:
		logger.Info("✅ shutdown completed successfully")
	}

	return nil
}
