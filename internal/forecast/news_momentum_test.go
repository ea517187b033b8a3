package forecast

import (
	"testing"
	"time"

	"github.com/selivandex/risklattice/pkg/models"
)

// publishedOn builds timestamps with counts[i] articles on day i
func publishedOn(counts ...int) []time.Time {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	var out []time.Time
	for day, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, start.AddDate(0, 0, day).Add(time.Duration(i)*time.Hour))
		}
	}
	return out
}

func TestEstimateNewsMomentum(t *testing.T) {
	tests := []struct {
		name      string
		published []time.Time
		momentum  models.NewsMomentum
		trend     models.NewsMomentum
		count     int
		average   float64
	}{
		{
			name:     "no news",
			momentum: models.NewsMomentumNeutral,
			trend:    models.NewsMomentumStable,
		},
		{
			name:      "fewer than three days",
			published: publishedOn(4, 2),
			momentum:  models.NewsMomentumStable,
			trend:     models.NewsMomentumIncreasing,
			count:     6,
			average:   3,
		},
		{
			name:      "exactly three days compares with itself",
			published: publishedOn(2, 2, 2),
			momentum:  models.NewsMomentumDecreasing,
			trend:     models.NewsMomentumIncreasing,
			count:     6,
			average:   2,
		},
		{
			name:      "recent volume above 1.2x earlier",
			published: publishedOn(1, 1, 1, 3, 3, 3),
			momentum:  models.NewsMomentumIncreasing,
			trend:     models.NewsMomentumIncreasing,
			count:     12,
			average:   2,
		},
		{
			name:      "recent volume drops",
			published: publishedOn(5, 5, 1, 1, 1),
			momentum:  models.NewsMomentumDecreasing,
			trend:     models.NewsMomentumIncreasing,
			count:     13,
			average:   2.6,
		},
		{
			name:      "many articles on few days count as busy",
			published: publishedOn(4, 4, 4),
			momentum:  models.NewsMomentumDecreasing,
			trend:     models.NewsMomentumIncreasing,
			count:     12,
			average:   4,
		},
		{
			name:      "five articles over six days stay stable",
			published: publishedOn(1, 1, 0, 1, 1, 1),
			momentum:  models.NewsMomentumDecreasing,
			trend:     models.NewsMomentumStable,
			count:     5,
			average:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateNewsMomentum(tt.published)

			if got.Momentum != tt.momentum {
				t.Errorf("momentum = %s, want %s", got.Momentum, tt.momentum)
			}
			if got.Trend != tt.trend {
				t.Errorf("trend = %s, want %s", got.Trend, tt.trend)
			}
			if got.NewsCount != tt.count {
				t.Errorf("count = %d, want %d", got.NewsCount, tt.count)
			}
			if got.DailyAverage != tt.average {
				t.Errorf("daily average = %v, want %v", got.DailyAverage, tt.average)
			}
		})
	}
}

func TestEstimateNewsMomentum_UnorderedInput(t *testing.T) {
	published := publishedOn(1, 1, 1, 3, 3, 3)
	for i, j := 0, len(published)-1; i < j; i, j = i+1, j-1 {
		published[i], published[j] = published[j], published[i]
	}

	if got := EstimateNewsMomentum(published); got.Momentum != models.NewsMomentumIncreasing {
		t.Errorf("bucket order should not depend on input order, got %s", got.Momentum)
	}
}
