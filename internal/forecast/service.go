package forecast

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/metrics"
	"github.com/selivandex/risklattice/pkg/models"
)

// neutralScore stands in for the current score of a symbol with no history
const neutralScore = 50.0

// ScoreHistory is the read side of the risk score store
type ScoreHistory interface {
	Range(ctx context.Context, symbol string, from, to time.Time) ([]models.RiskScorePoint, error)
	Count(ctx context.Context, symbol string) (int, error)
	Latest(ctx context.Context, symbol string) (*models.RiskScorePoint, error)
}

// NewsTimeline returns article publish times for a symbol
type NewsTimeline interface {
	PublishedBetween(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error)
}

// Cache keeps the latest forecast per symbol and horizon
type Cache interface {
	PutForecast(ctx context.Context, f *models.RiskForecast) error
}

// Windows are the trailing windows each analysis reads
type Windows struct {
	Trend   time.Duration
	Pattern time.Duration
	News    time.Duration
}

// DefaultWindows returns 30 day trend, 14 day pattern and 7 day news windows
func DefaultWindows() Windows {
	return Windows{
		Trend:   30 * 24 * time.Hour,
		Pattern: 14 * 24 * time.Hour,
		News:    7 * 24 * time.Hour,
	}
}

// Service loads history, generates forecasts and persists them
type Service struct {
	scores  ScoreHistory
	news    NewsTimeline
	store   Store
	cache   Cache
	metrics metrics.Recorder
	windows Windows
	now     func() time.Time
}

// NewService creates new forecast service. cache may be nil.
func NewService(scores ScoreHistory, news NewsTimeline, store Store, cache Cache, recorder metrics.Recorder, windows Windows) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Service{
		scores:  scores,
		news:    news,
		store:   store,
		cache:   cache,
		metrics: recorder,
		windows: windows,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Forecast generates, stores and returns a forecast for daysAhead days
// starting from the latest stored score
func (s *Service) Forecast(ctx context.Context, symbol string, daysAhead int) (*Result, error) {
	return s.forecast(ctx, symbol, daysAhead, nil)
}

func (s *Service) forecast(ctx context.Context, symbol string, daysAhead int, current *models.RiskScorePoint) (*Result, error) {
	now := s.now()

	in, err := s.loadInput(ctx, symbol, now)
	if err != nil {
		return nil, err
	}
	in.DaysAhead = daysAhead
	if current != nil {
		in.CurrentScore = current.TotalScore
	}

	res := Generate(in, now)

	if err := s.store.Save(ctx, &res.Forecast); err != nil {
		return nil, fmt.Errorf("failed to save forecast: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.PutForecast(ctx, &res.Forecast); err != nil {
			logger.Warn("failed to cache forecast",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}

	_ = s.metrics.Add(&metrics.ForecastMetric{
		Timestamp:      now,
		Symbol:         symbol,
		DaysAhead:      res.Forecast.DaysAhead,
		CurrentScore:   res.Forecast.CurrentScore,
		PredictedScore: res.Forecast.PredictedScore,
		Confidence:     res.Forecast.Confidence,
		TrendDirection: string(res.Forecast.TrendDirection),
		PatternMatch:   res.Forecast.PatternName(),
	})

	logger.Info("forecast generated",
		zap.String("symbol", symbol),
		zap.Int("days_ahead", res.Forecast.DaysAhead),
		zap.Float64("current", res.Forecast.CurrentScore),
		zap.Float64("predicted", res.Forecast.PredictedScore),
		zap.Float64("confidence", res.Forecast.Confidence),
		zap.String("trend", string(res.Forecast.TrendDirection)),
		zap.String("pattern", res.Forecast.PatternName()),
	)

	return &res, nil
}

// ForecastHorizons generates one forecast per horizon. A non-nil current
// overrides the latest stored score, e.g. a live score that was not stored
// because its day already had one.
func (s *Service) ForecastHorizons(ctx context.Context, symbol string, horizons []int, current *models.RiskScorePoint) ([]Result, error) {
	results := make([]Result, 0, len(horizons))
	for _, days := range horizons {
		res, err := s.forecast(ctx, symbol, days, current)
		if err != nil {
			return results, fmt.Errorf("failed to forecast %d days ahead: %w", days, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// Recent returns stored forecasts, newest first
func (s *Service) Recent(ctx context.Context, symbol string, limit int) ([]models.RiskForecast, error) {
	return s.store.Recent(ctx, symbol, limit)
}

func (s *Service) loadInput(ctx context.Context, symbol string, now time.Time) (Input, error) {
	trendPoints, err := s.scores.Range(ctx, symbol, now.Add(-s.windows.Trend), now)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load trend window: %w", err)
	}

	patternPoints, err := s.scores.Range(ctx, symbol, now.Add(-s.windows.Pattern), now)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load pattern window: %w", err)
	}

	count, err := s.scores.Count(ctx, symbol)
	if err != nil {
		return Input{}, fmt.Errorf("failed to count history: %w", err)
	}

	published, err := s.news.PublishedBetween(ctx, symbol, now.Add(-s.windows.News), now)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load news timeline: %w", err)
	}

	current := neutralScore
	latest, err := s.scores.Latest(ctx, symbol)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load current score: %w", err)
	}
	if latest != nil {
		current = latest.TotalScore
	}

	return Input{
		Symbol:        symbol,
		TrendScores:   totals(trendPoints),
		PatternScores: totals(patternPoints),
		NewsPublished: published,
		HistoryCount:  count,
		CurrentScore:  current,
	}, nil
}

func totals(points []models.RiskScorePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.TotalScore
	}
	return out
}
