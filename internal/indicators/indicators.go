package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator"

	"github.com/selivandex/risklattice/pkg/models"
)

const (
	rsiPeriod = 14
	smaPeriod = 20
)

// Calculator calculates informational indicators from daily bars.
// They are stored next to the risk metrics but never feed the score.
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Snapshot derives market metrics for the last bar and attaches RSI(14) and
// SMA(20) when there are enough bars for them
func (c *Calculator) Snapshot(symbol string, points []models.PricePoint, metrics models.MarketMetrics) models.MetricsSnapshot {
	snap := models.MetricsSnapshot{
		Symbol:        symbol,
		MarketMetrics: metrics,
	}
	if len(points) > 0 {
		snap.Timestamp = points[len(points)-1].TradingDay()
	}

	if rsi, err := c.CalculateRSI(points); err == nil {
		snap.RSI14 = &rsi
	}
	if sma, err := c.CalculateSMA(points, smaPeriod); err == nil {
		snap.SMA20 = &sma
	}

	return snap
}

// CalculateRSI calculates RSI(14) of the closes
func (c *Calculator) CalculateRSI(points []models.PricePoint) (float64, error) {
	if len(points) < rsiPeriod+1 {
		return 0, fmt.Errorf("insufficient bars for RSI calculation (need %d, got %d)", rsiPeriod+1, len(points))
	}

	_, rsi := indicator.Rsi(closes(points))
	if len(rsi) == 0 {
		return 0, fmt.Errorf("RSI returned no data")
	}
	// flat closes leave RSI undefined
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return 0, fmt.Errorf("RSI undefined without price movement")
	}
	return last, nil
}

// CalculateSMA calculates Simple Moving Average
func (c *Calculator) CalculateSMA(points []models.PricePoint, period int) (float64, error) {
	if len(points) < period {
		return 0, fmt.Errorf("insufficient bars for SMA calculation (need %d, got %d)", period, len(points))
	}

	sma := indicator.Sma(period, closes(points))
	if len(sma) == 0 {
		return 0, fmt.Errorf("SMA calculation failed")
	}
	return sma[len(sma)-1], nil
}

func closes(points []models.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.ClosePrice()
	}
	return out
}
