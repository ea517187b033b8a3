package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily OHLCV bar for an instrument
type PricePoint struct {
	Date   time.Time       `json:"date" db:"date"`
	Symbol string          `json:"symbol" db:"symbol"`
	Source string          `json:"source" db:"source"`
	Open   decimal.Decimal `json:"open" db:"open"`
	High   decimal.Decimal `json:"high" db:"high"`
	Low    decimal.Decimal `json:"low" db:"low"`
	Close  decimal.Decimal `json:"close" db:"close"`
	Volume int64           `json:"volume" db:"volume"`
}

// ClosePrice returns close as float64 for statistics
func (p PricePoint) ClosePrice() float64 {
	return ToFloat64(p.Close)
}

// TradingDay returns the calendar date of the bar (UTC midnight)
func (p PricePoint) TradingDay() time.Time {
	return StartOfDay(p.Date)
}

// StartOfDay truncates t to 00:00:00 UTC of the same calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of t's calendar day (UTC)
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
