package risk

import (
	"math"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// MetricsWindow is the most price points used to derive one day's metrics
	MetricsWindow = 90

	tradingDaysPerYear = 252
)

// DeriveMetrics computes market metrics from chronologically ordered bars.
// Callers pass the window ending at the day being scored.
func DeriveMetrics(points []models.PricePoint) models.MarketMetrics {
	if len(points) == 0 {
		return models.MarketMetrics{}
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.ClosePrice()
	}

	current := closes[len(closes)-1]

	return models.MarketMetrics{
		Price:       current,
		Return7d:    weeklyReturn(closes),
		VolAnn:      annualizedVolatility(closes),
		MaxDrawdown: maxDrawdown(closes),
	}
}

// weeklyReturn compares the last close with the close 7 points from the end
func weeklyReturn(closes []float64) float64 {
	if len(closes) < 7 {
		return 0
	}

	base := closes[len(closes)-7]
	if base == 0 {
		return 0
	}

	return (closes[len(closes)-1] - base) / base * 100
}

func annualizedVolatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}

	if len(returns) == 0 {
		return 0
	}

	return stats.PopStdDev(returns) * math.Sqrt(tradingDaysPerYear) * 100
}

// maxDrawdown tracks the running peak forward and returns the worst decline as a negative percentage
func maxDrawdown(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - c) / peak * 100; dd > worst {
			worst = dd
		}
	}

	if worst == 0 {
		return 0
	}
	return -worst
}
