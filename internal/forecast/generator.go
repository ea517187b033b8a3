package forecast

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// DefaultDaysAhead is the horizon used when none is requested
	DefaultDaysAhead = 7

	minHistoryForConfidence = 7
	stableVolatility        = 5.0
	highVolatility          = 10.0
	defaultConfidence       = 0.5
)

// Input is everything the generator needs. It performs no I/O.
type Input struct {
	Symbol string
	// TrendScores are total scores from the trend window, oldest first
	TrendScores []float64
	// PatternScores are total scores from the pattern window, oldest first
	PatternScores []float64
	// NewsPublished are publish times of articles in the momentum window
	NewsPublished []time.Time
	// HistoryCount is the number of score points ever stored for the symbol
	HistoryCount int
	CurrentScore float64
	DaysAhead    int
}

// Result carries the forecast plus the component analyses behind it
type Result struct {
	Trend    TrendAnalysis
	News     NewsMomentum
	Forecast models.RiskForecast
}

// Generate projects the risk score DaysAhead days forward
func Generate(in Input, now time.Time) Result {
	daysAhead := in.DaysAhead
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}

	trend := AnalyzeTrend(in.TrendScores)
	news := EstimateNewsMomentum(in.NewsPublished)
	pattern := RecognizePattern(in.PatternScores)

	predicted := in.CurrentScore

	direction := models.TrendStable
	if trend.Trend == models.TrendIncreasing || trend.Trend == models.TrendDecreasing {
		predicted += trend.Momentum * float64(daysAhead)
		direction = trend.Trend
	}

	switch news.Momentum {
	case models.NewsMomentumIncreasing:
		predicted += 3
	case models.NewsMomentumDecreasing:
		predicted -= 2
	}

	predicted += patternAdjustment(pattern)
	predicted = stats.Clamp(predicted, 0, 100)

	return Result{
		Trend: trend,
		News:  news,
		Forecast: models.RiskForecast{
			Symbol:          in.Symbol,
			ForecastDate:    now,
			DaysAhead:       daysAhead,
			PredictedScore:  stats.Round(predicted, 1),
			Confidence:      confidence(in.HistoryCount, news, pattern, trend),
			TrendDirection:  direction,
			Reasons:         reasons(trend, news, pattern),
			PatternMatch:    pattern,
			CurrentScore:    in.CurrentScore,
			ProjectedChange: stats.Round(predicted-in.CurrentScore, 1),
		},
	}
}

// confidence adds independent weights; 0.5 when none apply. Max is 1.0.
func confidence(historyCount int, news NewsMomentum, pattern *models.Pattern, trend TrendAnalysis) float64 {
	total := 0.0
	applied := false

	if historyCount >= minHistoryForConfidence {
		total += 0.3
		applied = true
	}
	if news.NewsCount > 0 {
		total += 0.2
		applied = true
	}
	if pattern != nil {
		total += 0.2
		applied = true
	}
	if trend.Volatility < stableVolatility {
		total += 0.3
		applied = true
	}

	if !applied {
		return defaultConfidence
	}
	return stats.Round(total, 2)
}

func reasons(trend TrendAnalysis, news NewsMomentum, pattern *models.Pattern) []string {
	out := make([]string, 0, 4)

	if trend.Trend != models.TrendStable {
		out = append(out, fmt.Sprintf("Risk trend is %s (momentum: %.1f points/day)", trend.Trend, trend.Momentum))
	}
	if news.Momentum != models.NewsMomentumStable {
		out = append(out, fmt.Sprintf("News volume is %s (%d articles)", news.Momentum, news.NewsCount))
	}
	if pattern != nil {
		out = append(out, "Pattern detected: "+HumanPattern(*pattern))
	}
	if trend.Volatility > highVolatility {
		out = append(out, "High risk volatility detected")
	}

	if len(out) == 0 {
		out = append(out, "Based on current risk level and historical patterns")
	}

	return out
}

// HumanPattern renders risk_spike as "Risk Spike"
func HumanPattern(p models.Pattern) string {
	words := strings.Split(string(p), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
