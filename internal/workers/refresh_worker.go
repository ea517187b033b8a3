package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/redis"
	"github.com/selivandex/risklattice/internal/backfill"
	"github.com/selivandex/risklattice/internal/forecast"
	"github.com/selivandex/risklattice/internal/indicators"
	"github.com/selivandex/risklattice/internal/risk"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/metrics"
	"github.com/selivandex/risklattice/pkg/models"
)

// Refresh statuses recorded on RefreshRunMetric
const (
	StatusOK            = "ok"
	StatusSkippedLocked = "skipped_locked"
	StatusFailed        = "failed"
)

// metricsWindow is the number of closes the live metrics are derived from
const metricsWindow = 90

// PriceFetcher pulls daily bars from upstream providers
type PriceFetcher interface {
	FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// PriceStore persists daily bars
type PriceStore interface {
	SaveDaily(ctx context.Context, points []models.PricePoint) (int, error)
	LastN(ctx context.Context, symbol string, n int) ([]models.PricePoint, error)
}

// NewsFetcher pulls recent articles for one symbol
type NewsFetcher interface {
	FetchForSymbol(ctx context.Context, symbol string) []models.NewsItem
}

// NewsStore persists articles and lists them back
type NewsStore interface {
	SaveItems(ctx context.Context, items []models.NewsItem) (int, error)
	ListWindow(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error)
}

// SnapshotStore persists metric and sentiment snapshots
type SnapshotStore interface {
	SaveMetrics(ctx context.Context, snap *models.MetricsSnapshot) error
	SaveSentiment(ctx context.Context, snap *models.SentimentSnapshot) error
}

// Backfiller reconstructs score history for a symbol
type Backfiller interface {
	Run(ctx context.Context, symbol string, days int) (*backfill.Report, error)
}

// Alerter delivers forecast alerts
type Alerter interface {
	SendForecastAlert(ctx context.Context, f *models.RiskForecast) error
}

// RefreshDeps groups the collaborators of RefreshWorker
type RefreshDeps struct {
	Prices     PriceFetcher
	PriceStore PriceStore
	News       NewsFetcher
	NewsStore  NewsStore
	Snapshots  SnapshotStore
	Analyzer   backfill.SentimentAnalyzer
	Scores     risk.Store
	Scorer     *risk.Scorer
	Forecasts  *forecast.Service
	Backfill   Backfiller
	Locks      redis.LockFactory
	Alerts     Alerter          // optional
	Metrics    metrics.Recorder // optional
}

// RefreshConfig controls one refresh pass
type RefreshConfig struct {
	Symbols        []string
	HistoryDays    int
	BackfillDays   int
	Horizons       []int
	AlertHorizon   int
	AlertThreshold float64
	NewsWindow     time.Duration
	NewsLimit      int
}

// RefreshWorker runs the full ingest, score and forecast pipeline for every symbol
type RefreshWorker struct {
	deps       RefreshDeps
	cfg        RefreshConfig
	indicators *indicators.Calculator
	now        func() time.Time
}

// NewRefreshWorker creates new refresh worker
func NewRefreshWorker(deps RefreshDeps, cfg RefreshConfig) *RefreshWorker {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Locks == nil {
		deps.Locks = redis.NewLocalLockFactory()
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 120
	}
	if cfg.NewsWindow <= 0 {
		cfg.NewsWindow = 7 * 24 * time.Hour
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 20
	}
	if cfg.AlertHorizon <= 0 {
		cfg.AlertHorizon = forecast.DefaultDaysAhead
	}

	return &RefreshWorker{
		deps:       deps,
		cfg:        cfg,
		indicators: indicators.NewCalculator(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Name returns worker name
func (w *RefreshWorker) Name() string {
	return "risk_refresh"
}

// Run executes one iteration over all symbols.
// Called periodically by pkg/worker.PeriodicWorker
func (w *RefreshWorker) Run(ctx context.Context) error {
	runID := uuid.New().String()
	startTime := time.Now()

	refreshed := 0
	var errs []error
	for _, symbol := range w.cfg.Symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		status, err := w.RefreshSymbol(ctx, runID, symbol)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			logger.Error("symbol refresh failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		case status == StatusOK:
			refreshed++
		}
	}

	logger.Info("refresh pass completed",
		zap.String("run_id", runID),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", len(errs)),
		zap.Int("symbols", len(w.cfg.Symbols)),
		zap.Duration("duration", time.Since(startTime)),
	)

	// One bad symbol is logged above; a pass where every symbol failed is a worker failure
	if len(errs) > 0 && len(errs) == len(w.cfg.Symbols) {
		return errors.Join(errs...)
	}
	return nil
}

// RefreshSymbol runs the pipeline for one symbol under its refresh lock.
// A symbol whose lock is held elsewhere is skipped with StatusSkippedLocked.
func (w *RefreshWorker) RefreshSymbol(ctx context.Context, runID, symbol string) (string, error) {
	started := time.Now()
	run := &metrics.RefreshRunMetric{
		Timestamp: w.now(),
		RunID:     runID,
		Symbol:    symbol,
	}
	defer func() {
		run.DurationMs = time.Since(started).Milliseconds()
		_ = w.deps.Metrics.Add(run)
	}()

	lock := w.deps.Locks.ForSymbol(symbol)
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		run.Status, run.Error = StatusFailed, err.Error()
		return StatusFailed, fmt.Errorf("failed to acquire refresh lock: %w", err)
	}
	if !acquired {
		logger.Debug("refresh lock held elsewhere, skipping",
			zap.String("symbol", symbol),
		)
		run.Status = StatusSkippedLocked
		return StatusSkippedLocked, nil
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to release refresh lock",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}()

	if err := w.refresh(ctx, symbol, run); err != nil {
		run.Status, run.Error = StatusFailed, err.Error()
		return StatusFailed, err
	}

	run.Status = StatusOK
	return StatusOK, nil
}

func (w *RefreshWorker) refresh(ctx context.Context, symbol string, run *metrics.RefreshRunMetric) error {
	log := logger.With(zap.String("symbol", symbol))

	// Prices
	bars, err := w.deps.Prices.FetchDaily(ctx, symbol, w.cfg.HistoryDays)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch prices: %w", risk.ErrCollaborator, err)
	}
	saved, err := w.deps.PriceStore.SaveDaily(ctx, bars)
	if err != nil {
		return fmt.Errorf("failed to save prices: %w", err)
	}
	run.PricePoints = saved

	recent, err := w.deps.PriceStore.LastN(ctx, symbol, metricsWindow)
	if err != nil {
		return fmt.Errorf("failed to load recent prices: %w", err)
	}
	if len(recent) == 0 {
		return fmt.Errorf("%w: no stored prices", risk.ErrInsufficientData)
	}

	market := risk.DeriveMetrics(recent)
	snap := w.indicators.Snapshot(symbol, recent, market)
	snap.Timestamp = w.now()
	if err := w.deps.Snapshots.SaveMetrics(ctx, &snap); err != nil {
		log.Warn("failed to save metrics snapshot", zap.Error(err))
	}

	// News
	now := w.now()
	if fetched := w.deps.News.FetchForSymbol(ctx, symbol); len(fetched) > 0 {
		if _, err := w.deps.NewsStore.SaveItems(ctx, fetched); err != nil {
			log.Warn("failed to save news", zap.Error(err))
		}
	}
	items, err := w.deps.NewsStore.ListWindow(ctx, symbol, now.Add(-w.cfg.NewsWindow), now, w.cfg.NewsLimit)
	if err != nil {
		return fmt.Errorf("failed to list news: %w", err)
	}
	run.NewsItems = len(items)

	sent, err := w.deps.Analyzer.Analyze(ctx, items, &market)
	if err != nil {
		return fmt.Errorf("%w: sentiment analysis failed: %w", risk.ErrCollaborator, err)
	}
	sentSnap := models.NewSentimentSnapshot(symbol, now, sent)
	if err := w.deps.Snapshots.SaveSentiment(ctx, &sentSnap); err != nil {
		log.Warn("failed to save sentiment snapshot", zap.Error(err))
	}

	// History must exist before the live point, otherwise backfill would
	// skip today's neighbourhood and the forecast sees a single point.
	if err := w.ensureHistory(ctx, symbol); err != nil {
		log.Warn("backfill before first score failed", zap.Error(err))
	}

	point, err := w.deps.Scorer.ScoreNow(ctx, symbol, market, sent)
	if err != nil {
		return fmt.Errorf("failed to score: %w", err)
	}
	run.TotalScore = point.TotalScore

	results, err := w.deps.Forecasts.ForecastHorizons(ctx, symbol, w.cfg.Horizons, point)
	if err != nil {
		return fmt.Errorf("failed to forecast: %w", err)
	}

	w.maybeAlert(ctx, results)
	return nil
}

// ensureHistory backfills a symbol seen for the first time
func (w *RefreshWorker) ensureHistory(ctx context.Context, symbol string) error {
	if w.deps.Backfill == nil {
		return nil
	}

	count, err := w.deps.Scores.Count(ctx, symbol)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	logger.Info("no score history, running backfill",
		zap.String("symbol", symbol),
		zap.Int("days", w.cfg.BackfillDays),
	)

	report, err := w.deps.Backfill.Run(ctx, symbol, w.cfg.BackfillDays)
	if errors.Is(err, risk.ErrInsufficientData) {
		logger.Info("not enough price history to backfill yet",
			zap.String("symbol", symbol),
		)
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("initial backfill done",
		zap.String("symbol", symbol),
		zap.Int("created", report.Created),
	)
	return nil
}

// maybeAlert sends the alert horizon forecast when it reaches the threshold
func (w *RefreshWorker) maybeAlert(ctx context.Context, results []forecast.Result) {
	if w.deps.Alerts == nil || w.cfg.AlertThreshold <= 0 {
		return
	}

	for i := range results {
		f := &results[i].Forecast
		if f.DaysAhead != w.cfg.AlertHorizon || f.PredictedScore < w.cfg.AlertThreshold {
			continue
		}

		if err := w.deps.Alerts.SendForecastAlert(ctx, f); err != nil {
			logger.Warn("failed to send forecast alert",
				zap.String("symbol", f.Symbol),
				zap.Error(err),
			)
			continue
		}

		logger.Info("forecast alert sent",
			zap.String("symbol", f.Symbol),
			zap.Float64("predicted", f.PredictedScore),
		)
	}
}
