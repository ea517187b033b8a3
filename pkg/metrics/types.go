package metrics

import "time"

// RefreshRunMetric records one symbol pass of the refresh orchestrator
type RefreshRunMetric struct {
	Timestamp   time.Time
	RunID       string
	Symbol      string
	Status      string // ok, skipped_locked, failed
	Error       string
	PricePoints int
	NewsItems   int
	TotalScore  float64
	DurationMs  int64
}

func (m *RefreshRunMetric) TableName() string {
	return "refresh_run_metrics"
}

func (m *RefreshRunMetric) Values() []interface{} {
	return []interface{}{
		m.Timestamp,
		m.RunID,
		m.Symbol,
		m.Status,
		m.Error,
		m.PricePoints,
		m.NewsItems,
		m.TotalScore,
		m.DurationMs,
	}
}

// BackfillRunMetric records the outcome of one backfill
type BackfillRunMetric struct {
	Timestamp    time.Time
	RunID        string
	Symbol       string
	Status       string
	TradingDates int
	Created      int
	Skipped      int
	Failed       int
	DurationMs   int64
}

func (m *BackfillRunMetric) TableName() string {
	return "backfill_run_metrics"
}

func (m *BackfillRunMetric) Values() []interface{} {
	return []interface{}{
		m.Timestamp,
		m.RunID,
		m.Symbol,
		m.Status,
		m.TradingDates,
		m.Created,
		m.Skipped,
		m.Failed,
		m.DurationMs,
	}
}

// ForecastMetric records a generated forecast for accuracy tracking
type ForecastMetric struct {
	Timestamp      time.Time
	Symbol         string
	TrendDirection string
	PatternMatch   string
	DaysAhead      int
	CurrentScore   float64
	PredictedScore float64
	Confidence     float64
}

func (m *ForecastMetric) TableName() string {
	return "forecast_metrics"
}

func (m *ForecastMetric) Values() []interface{} {
	return []interface{}{
		m.Timestamp,
		m.Symbol,
		m.DaysAhead,
		m.CurrentScore,
		m.PredictedScore,
		m.Confidence,
		m.TrendDirection,
		m.PatternMatch,
	}
}
