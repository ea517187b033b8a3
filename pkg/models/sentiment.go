package models

import "time"

// MarketOutlook is the directional call produced by sentiment analysis
type MarketOutlook string

const (
	OutlookPositive MarketOutlook = "POSITIVE"
	OutlookNegative MarketOutlook = "NEGATIVE"
	OutlookNeutral  MarketOutlook = "NEUTRAL"
)

// MaxThemes caps the number of themes carried by a sentiment result
const MaxThemes = 5

// HeadlineImpact rates how much one headline moves risk, from -2 to 2
type HeadlineImpact struct {
	Title  string  `json:"title"`
	Reason string  `json:"reason"`
	Impact float64 `json:"impact"`
}

// NewsSentimentResult is the output of a sentiment analyzer
type NewsSentimentResult struct {
	Outlook         MarketOutlook    `json:"market_outlook"`
	Summary         string           `json:"summary"`
	Method          string           `json:"method"`
	Themes          []string         `json:"themes"`
	HeadlineImpacts []HeadlineImpact `json:"headline_impacts,omitempty"`
	Sentiment       float64          `json:"sentiment"` // -1..1
}

// NeutralSentiment returns a result carrying no signal
func NeutralSentiment(summary string) NewsSentimentResult {
	return NewsSentimentResult{
		Sentiment: 0,
		Themes:    []string{},
		Summary:   summary,
		Outlook:   OutlookNeutral,
		Method:    "neutral",
	}
}

// SentimentSnapshot is a persisted sentiment result
type SentimentSnapshot struct {
	Timestamp time.Time        `json:"ts" db:"ts"`
	Symbol    string           `json:"symbol" db:"symbol"`
	Outlook   MarketOutlook    `json:"market_outlook" db:"market_outlook"`
	Summary   string           `json:"summary" db:"summary"`
	Method    string           `json:"method" db:"method"`
	Themes    []string         `json:"themes" db:"themes"`
	Impacts   []HeadlineImpact `json:"headline_impacts" db:"headline_impacts"`
	Sentiment float64          `json:"sentiment" db:"sentiment"`
	ID        int64            `json:"id" db:"id"`
}

// NewSentimentSnapshot stamps a result for persistence
func NewSentimentSnapshot(symbol string, ts time.Time, r NewsSentimentResult) SentimentSnapshot {
	return SentimentSnapshot{
		Timestamp: ts,
		Symbol:    symbol,
		Outlook:   r.Outlook,
		Summary:   r.Summary,
		Method:    r.Method,
		Themes:    r.Themes,
		Impacts:   r.HeadlineImpacts,
		Sentiment: r.Sentiment,
	}
}
