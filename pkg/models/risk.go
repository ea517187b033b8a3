package models

import "time"

// TrendLabel compares a score with the previous stored score
type TrendLabel string

const (
	TrendLabelUp   TrendLabel = "up"
	TrendLabelDown TrendLabel = "down"
	TrendLabelFlat TrendLabel = "flat"
	TrendLabelNew  TrendLabel = "new"
)

// TrendDirection is the regression-based direction of a score series
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// NewsMomentum classifies recent news volume
type NewsMomentum string

const (
	NewsMomentumIncreasing NewsMomentum = "increasing"
	NewsMomentumDecreasing NewsMomentum = "decreasing"
	NewsMomentumStable     NewsMomentum = "stable"
	NewsMomentumNeutral    NewsMomentum = "neutral"
)

// Pattern names a recognized shape of recent risk scores
type Pattern string

const (
	PatternRiskSpike         Pattern = "risk_spike"
	PatternHighVolatility    Pattern = "high_volatility"
	PatternSustainedHighRisk Pattern = "sustained_high_risk"
	PatternRiskDeclining     Pattern = "risk_declining"
)

// RiskScorePoint is one stored composite risk score
type RiskScorePoint struct {
	Timestamp   time.Time  `json:"ts" db:"ts"`
	Symbol      string     `json:"symbol" db:"symbol"`
	TrendLabel  TrendLabel `json:"trend" db:"trend"`
	Reasons     []string   `json:"reasons" db:"reasons"`
	MarketScore float64    `json:"market_score" db:"market_score"`
	NewsScore   float64    `json:"news_score" db:"news_score"`
	TotalScore  float64    `json:"total_score" db:"total_score"`
	ID          int64      `json:"id" db:"id"`
}

// MarketMetrics are the price statistics for one trading day.
// MaxDrawdown is a negative percentage (e.g. -18.5).
type MarketMetrics struct {
	Price       float64 `json:"price" db:"price"`
	Return7d    float64 `json:"return_7d" db:"return_7d"`
	VolAnn      float64 `json:"vol_ann" db:"vol_ann"`
	MaxDrawdown float64 `json:"max_drawdown" db:"max_drawdown"`
}

// MetricsSnapshot is a persisted MarketMetrics with informational indicators
type MetricsSnapshot struct {
	Timestamp time.Time `json:"ts" db:"ts"`
	Symbol    string    `json:"symbol" db:"symbol"`
	MarketMetrics
	RSI14 *float64 `json:"rsi14,omitempty" db:"rsi14"`
	SMA20 *float64 `json:"sma20,omitempty" db:"sma20"`
	ID    int64    `json:"id" db:"id"`
}

// RiskForecast is a forward projection of an instrument's risk score
type RiskForecast struct {
	ForecastDate    time.Time      `json:"forecast_date" db:"forecast_date"`
	PatternMatch    *Pattern       `json:"pattern_match" db:"pattern_match"`
	Symbol          string         `json:"symbol" db:"symbol"`
	TrendDirection  TrendDirection `json:"trend_direction" db:"trend_direction"`
	Reasons         []string       `json:"reasons" db:"forecast_reasons"`
	DaysAhead       int            `json:"days_ahead" db:"days_ahead"`
	PredictedScore  float64        `json:"predicted_score" db:"predicted_score"`
	Confidence      float64        `json:"confidence" db:"confidence"`
	CurrentScore    float64        `json:"current_score" db:"-"`
	ProjectedChange float64        `json:"projected_change" db:"-"`
	ID              int64          `json:"id" db:"id"`
}

// PatternName returns the matched pattern or empty string
func (f *RiskForecast) PatternName() string {
	if f.PatternMatch == nil {
		return ""
	}
	return string(*f.PatternMatch)
}
