package backfill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/risk"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/metrics"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// MinTradingDates is the fewest distinct trading dates a backfill accepts
	MinTradingDates = 7

	// warmupDates are consumed by the 7-point return window before scoring starts
	warmupDates = MinTradingDates - 1

	newsLookback = 7 * 24 * time.Hour
	newsPerDay   = 15
)

// Run statuses reported in Report.Status
const (
	StatusCompleted        = "completed"
	StatusInsufficientData = "insufficient_data"
	StatusCancelled        = "cancelled"
	StatusFailed           = "failed"
)

// PriceHistory returns daily bars for a symbol within [from, to], oldest first
type PriceHistory interface {
	Window(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)
}

// NewsLister returns articles published within [from, to], newest first
type NewsLister interface {
	ListWindow(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error)
}

// SentimentAnalyzer scores a set of articles, optionally with market context
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, items []models.NewsItem, market *models.MarketMetrics) (models.NewsSentimentResult, error)
}

// Config holds backfill parameters
type Config struct {
	Weights     risk.Weights
	Days        int
	CommitEvery int
}

// DefaultConfig returns 90 days, commits every 10 points and 0.6/0.4 weights
func DefaultConfig() Config {
	return Config{
		Weights:     risk.DefaultWeights(),
		Days:        90,
		CommitEvery: 10,
	}
}

// Report summarizes one backfill run
type Report struct {
	RunID        string
	Symbol       string
	Status       string
	TradingDates int
	Created      int
	Skipped      int
	Failed       int
	Duration     time.Duration
}

// Engine reconstructs daily risk scores from stored price and news history
type Engine struct {
	prices   PriceHistory
	news     NewsLister
	analyzer SentimentAnalyzer
	store    risk.Store
	metrics  metrics.Recorder
	cfg      Config
	now      func() time.Time
}

// NewEngine creates new backfill engine. recorder may be nil.
func NewEngine(prices PriceHistory, news NewsLister, analyzer SentimentAnalyzer, store risk.Store, recorder metrics.Recorder, cfg Config) *Engine {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if cfg.CommitEvery <= 0 {
		cfg.CommitEvery = DefaultConfig().CommitEvery
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultConfig().Days
	}

	return &Engine{
		prices:   prices,
		news:     news,
		analyzer: analyzer,
		store:    store,
		metrics:  recorder,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run backfills the last days days for symbol (days <= 0 uses the configured default).
// Dates that already have a score within ±1 day are skipped, so repeated runs
// create nothing new. A failure on one date is logged and the loop continues.
func (e *Engine) Run(ctx context.Context, symbol string, days int) (*Report, error) {
	if days <= 0 {
		days = e.cfg.Days
	}

	started := e.now()
	report := &Report{
		RunID:  uuid.NewString(),
		Symbol: symbol,
		Status: StatusCompleted,
	}
	defer func() {
		report.Duration = time.Since(started)
		e.record(report, started)
	}()

	log := logger.With(zap.String("symbol", symbol), zap.String("run_id", report.RunID))

	bars, err := e.prices.Window(ctx, symbol, started.AddDate(0, 0, -days), started)
	if err != nil {
		report.Status = StatusFailed
		return report, fmt.Errorf("%w: failed to load price history: %w", risk.ErrCollaborator, err)
	}

	dates := tradingDates(bars)
	report.TradingDates = len(dates)

	if len(dates) < MinTradingDates {
		report.Status = StatusInsufficientData
		log.Warn("not enough trading dates for backfill",
			zap.Int("trading_dates", len(dates)),
			zap.Int("required", MinTradingDates),
		)
		return report, fmt.Errorf("%w: %d trading dates, need %d", risk.ErrInsufficientData, len(dates), MinTradingDates)
	}

	log.Info("starting backfill",
		zap.Int("days", days),
		zap.Int("price_points", len(bars)),
		zap.Int("trading_dates", len(dates)),
	)

	var (
		pending []models.RiskScorePoint
		last    *models.RiskScorePoint
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}

		inserted, err := e.store.InsertBatch(ctx, pending)
		if err != nil {
			report.Failed += len(pending)
			log.Error("failed to commit backfill batch", zap.Int("points", len(pending)), zap.Error(err))
		} else {
			report.Created += inserted
			report.Skipped += len(pending) - inserted
			log.Debug("committed backfill batch",
				zap.Int("created", report.Created),
				zap.Int("skipped", report.Skipped),
			)
		}
		pending = pending[:0]
	}

	for i, day := range dates {
		if i < warmupDates {
			continue
		}

		if err := ctx.Err(); err != nil {
			flush()
			report.Status = StatusCancelled
			return report, err
		}

		exists, err := e.store.ExistsNear(ctx, symbol, day)
		if err != nil {
			report.Failed++
			log.Warn("failed to check existing score", zap.Time("date", day), zap.Error(err))
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		previous, err := e.store.PreviousBefore(ctx, symbol, day)
		if err != nil {
			report.Failed++
			log.Warn("failed to load previous score", zap.Time("date", day), zap.Error(err))
			continue
		}
		if last != nil && (previous == nil || last.Timestamp.After(previous.Timestamp)) {
			previous = last
		}

		point, err := e.scoreDay(ctx, symbol, day, bars, previous)
		if err != nil {
			report.Failed++
			log.Warn("failed to score trading date", zap.Time("date", day), zap.Error(err))
			continue
		}

		pending = append(pending, point)
		built := point
		last = &built

		if len(pending) >= e.cfg.CommitEvery {
			flush()
		}
	}

	flush()

	log.Info("backfill finished",
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// scoreDay derives metrics and sentiment as of day and builds its score point
func (e *Engine) scoreDay(
	ctx context.Context,
	symbol string,
	day time.Time,
	bars []models.PricePoint,
	previous *models.RiskScorePoint,
) (models.RiskScorePoint, error) {
	window := barsThrough(bars, day)
	if len(window) > risk.MetricsWindow {
		window = window[len(window)-risk.MetricsWindow:]
	}
	if len(window) < MinTradingDates {
		return models.RiskScorePoint{}, fmt.Errorf("%w: %d bars through %s", risk.ErrInsufficientData, len(window), day.Format(time.DateOnly))
	}

	market := risk.DeriveMetrics(window)

	items, err := e.news.ListWindow(ctx, symbol, day.Add(-newsLookback), models.EndOfDay(day), newsPerDay)
	if err != nil {
		return models.RiskScorePoint{}, fmt.Errorf("%w: failed to load news: %w", risk.ErrCollaborator, err)
	}

	sentiment, err := e.analyzer.Analyze(ctx, items, &market)
	if err != nil {
		return models.RiskScorePoint{}, fmt.Errorf("%w: failed to analyze sentiment: %w", risk.ErrCollaborator, err)
	}

	return risk.NewPoint(symbol, day, market, sentiment, e.cfg.Weights, previous), nil
}

func (e *Engine) record(r *Report, started time.Time) {
	_ = e.metrics.Add(&metrics.BackfillRunMetric{
		Timestamp:    started,
		RunID:        r.RunID,
		Symbol:       r.Symbol,
		Status:       r.Status,
		TradingDates: r.TradingDates,
		Created:      r.Created,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
		DurationMs:   r.Duration.Milliseconds(),
	})
}

// tradingDates returns the distinct UTC calendar days of bars, oldest first
func tradingDates(bars []models.PricePoint) []time.Time {
	seen := make(map[time.Time]struct{}, len(bars))
	dates := make([]time.Time, 0, len(bars))

	for _, b := range bars {
		d := b.TradingDay()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// barsThrough returns bars whose trading day is on or before day, in input order
func barsThrough(bars []models.PricePoint, day time.Time) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(bars))
	for _, b := range bars {
		if !b.TradingDay().After(day) {
			out = append(out, b)
		}
	}
	return out
}
