package forecast

import (
	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// MinTrendPoints is the fewest scores the trend analyzer will fit
	MinTrendPoints = 7

	slopeThreshold  = 0.5
	recentScoreSize = 7
)

// TrendAnalysis summarizes a window of historical total scores.
// Slope is the full-window regression; Momentum is the 3-point derivative
// used for extrapolation. They are reported separately.
type TrendAnalysis struct {
	Trend        models.TrendDirection `json:"trend"`
	RecentScores []float64             `json:"recent_scores,omitempty"`
	Slope        float64               `json:"slope"`
	Momentum     float64               `json:"momentum"`
	Volatility   float64               `json:"volatility"`
	Average      float64               `json:"average_score"`
}

// AnalyzeTrend characterizes a chronological series of total scores
func AnalyzeTrend(scores []float64) TrendAnalysis {
	if len(scores) < MinTrendPoints {
		return TrendAnalysis{
			Trend:      models.TrendInsufficientData,
			Momentum:   0,
			Volatility: 0,
			Average:    50,
		}
	}

	slope := stats.Slope(scores)

	trend := models.TrendStable
	if slope > slopeThreshold {
		trend = models.TrendIncreasing
	} else if slope < -slopeThreshold {
		trend = models.TrendDecreasing
	}

	recent := make([]float64, recentScoreSize)
	copy(recent, scores[len(scores)-recentScoreSize:])

	return TrendAnalysis{
		Trend:        trend,
		Slope:        slope,
		Momentum:     momentum(scores),
		Volatility:   stats.PopStdDev(scores),
		Average:      stats.Mean(scores),
		RecentScores: recent,
	}
}

// momentum is the change over the last three points divided by three
func momentum(scores []float64) float64 {
	n := len(scores)
	if n < 3 {
		return 0
	}
	return (scores[n-1] - scores[n-3]) / 3
}
