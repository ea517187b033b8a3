package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

// Weights blend market and news scores into the total.
// They are applied as given, never renormalized.
type Weights struct {
	Market float64
	News   float64
}

// DefaultWeights returns 0.6 market / 0.4 news
func DefaultWeights() Weights {
	return Weights{Market: 0.6, News: 0.4}
}

// Score is the pure result of scoring one snapshot
type Score struct {
	Reasons     []string
	MarketScore float64
	NewsScore   float64
	TotalScore  float64
}

// Compute scores market metrics and a sentiment result
func Compute(m models.MarketMetrics, s models.NewsSentimentResult, w Weights) Score {
	market := MarketScore(m)
	news := NewsScore(s)

	return Score{
		MarketScore: market,
		NewsScore:   news,
		TotalScore:  TotalScore(market, news, w),
		Reasons:     Reasons(m, s),
	}
}

// MarketScore maps volatility, drawdown and negative weekly return to 0-100
func MarketScore(m models.MarketMetrics) float64 {
	volScore := stats.Clamp(m.VolAnn/50*100, 0, 100)
	drawdownScore := stats.Clamp(math.Abs(m.MaxDrawdown)/30*100, 0, 100)

	returnScore := 0.0
	if m.Return7d < 0 {
		returnScore = stats.Clamp(math.Abs(m.Return7d)/10*100, 0, 100)
	}

	return stats.Round(volScore*0.4+drawdownScore*0.4+returnScore*0.2, 2)
}

// NewsScore inverts sentiment to 0-100 and adds 5 points per theme
func NewsScore(s models.NewsSentimentResult) float64 {
	base := (1 - s.Sentiment) / 2 * 100
	penalty := float64(5 * len(s.Themes))

	return stats.Round(stats.Clamp(base+penalty, 0, 100), 2)
}

// TotalScore blends the two component scores
func TotalScore(market, news float64, w Weights) float64 {
	return stats.Round(stats.Clamp(market*w.Market+news*w.News, 0, 100), 2)
}

// Label compares total with the previous stored score (nil when none exists)
func Label(total float64, previous *float64) models.TrendLabel {
	if previous == nil {
		return models.TrendLabelNew
	}

	delta := total - *previous
	switch {
	case delta > 5:
		return models.TrendLabelUp
	case delta < -5:
		return models.TrendLabelDown
	default:
		return models.TrendLabelFlat
	}
}

// Reasons explains a score. Check order is fixed for display.
func Reasons(m models.MarketMetrics, s models.NewsSentimentResult) []string {
	reasons := make([]string, 0, 6)

	if m.VolAnn > 30 {
		reasons = append(reasons, fmt.Sprintf("Volatility elevated at %.1f%% (annualized)", m.VolAnn))
	}
	if m.MaxDrawdown < -15 {
		reasons = append(reasons, fmt.Sprintf("Significant drawdown: %.1f%%", m.MaxDrawdown))
	}
	if m.Return7d < -5 {
		reasons = append(reasons, fmt.Sprintf("7-day return negative: %.1f%%", m.Return7d))
	}

	if s.Sentiment < -0.3 {
		reasons = append(reasons, "News sentiment strongly negative")
	} else if s.Sentiment < 0 {
		reasons = append(reasons, "News sentiment negative")
	}

	if len(s.Themes) > 0 {
		themes := s.Themes
		if len(themes) > 3 {
			themes = themes[:3]
		}
		reasons = append(reasons, "Risk themes identified: "+strings.Join(themes, ", "))
	}

	switch s.Outlook {
	case models.OutlookNegative:
		reasons = append(reasons, "Market outlook: NEGATIVE (news + price movement indicate bearish conditions)")
	case models.OutlookPositive:
		reasons = append(reasons, "Market outlook: POSITIVE (news + price movement indicate bullish conditions)")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Risk levels within normal range")
	}

	return reasons
}
