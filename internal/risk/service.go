package risk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
)

// NewPoint scores one snapshot and labels it against previous (nil when none).
// It does not touch storage.
func NewPoint(
	symbol string,
	ts time.Time,
	m models.MarketMetrics,
	s models.NewsSentimentResult,
	w Weights,
	previous *models.RiskScorePoint,
) models.RiskScorePoint {
	score := Compute(m, s, w)

	var prev *float64
	if previous != nil {
		prev = &previous.TotalScore
	}

	return models.RiskScorePoint{
		Symbol:      symbol,
		Timestamp:   ts,
		MarketScore: score.MarketScore,
		NewsScore:   score.NewsScore,
		TotalScore:  score.TotalScore,
		Reasons:     score.Reasons,
		TrendLabel:  Label(score.TotalScore, prev),
	}
}

// Scorer computes live risk scores and appends them to the history
type Scorer struct {
	store   Store
	weights Weights
	now     func() time.Time
}

// NewScorer creates new live scorer
func NewScorer(store Store, weights Weights) *Scorer {
	return &Scorer{
		store:   store,
		weights: weights,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Weights returns the configured blend weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// ScoreNow scores the current snapshot and stores it as the day's point.
// A symbol keeps one point per calendar day: when today already has one the
// fresh score is returned but not stored, and its ID stays zero.
func (s *Scorer) ScoreNow(ctx context.Context, symbol string, m models.MarketMetrics, sent models.NewsSentimentResult) (*models.RiskScorePoint, error) {
	ts := s.now()

	previous, err := s.store.PreviousBefore(ctx, symbol, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous score: %w", err)
	}

	point := NewPoint(symbol, ts, m, sent, s.weights, previous)
	stored, err := s.store.AppendIfAbsentOnDay(ctx, &point)
	if err != nil {
		return nil, err
	}

	logger.Info("risk score computed",
		zap.String("symbol", symbol),
		zap.Float64("market_score", point.MarketScore),
		zap.Float64("news_score", point.NewsScore),
		zap.Float64("total_score", point.TotalScore),
		zap.String("trend", string(point.TrendLabel)),
		zap.Bool("stored", stored),
	)

	return &point, nil
}
