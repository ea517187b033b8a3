package forecast

import (
	"sort"
	"time"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	recentNewsDays   = 3
	newsVolumeRatio  = 1.2
	busyNewsArticles = 5
)

// NewsMomentum summarizes news volume over the momentum window
type NewsMomentum struct {
	Momentum     models.NewsMomentum `json:"momentum"`
	Trend        models.NewsMomentum `json:"trend"`
	NewsCount    int                 `json:"news_count"`
	DailyAverage float64             `json:"daily_average"`
}

// EstimateNewsMomentum classifies news volume from article publish times.
// Only days that carry at least one article form buckets. Trend is a plain
// volume level: more than five articles in the window.
func EstimateNewsMomentum(published []time.Time) NewsMomentum {
	if len(published) == 0 {
		return NewsMomentum{
			Momentum:  models.NewsMomentumNeutral,
			Trend:     models.NewsMomentumStable,
			NewsCount: 0,
		}
	}

	counts := dailyCounts(published)

	volume := models.NewsMomentumStable
	if len(counts) >= recentNewsDays {
		recent := stats.Mean(counts[len(counts)-recentNewsDays:])
		earlier := recent
		if len(counts) > recentNewsDays {
			earlier = stats.Mean(counts[:len(counts)-recentNewsDays])
		}

		if recent > earlier*newsVolumeRatio {
			volume = models.NewsMomentumIncreasing
		} else {
			volume = models.NewsMomentumDecreasing
		}
	}

	trend := models.NewsMomentumStable
	if len(published) > busyNewsArticles {
		trend = models.NewsMomentumIncreasing
	}

	return NewsMomentum{
		Momentum:     volume,
		Trend:        trend,
		NewsCount:    len(published),
		DailyAverage: stats.Mean(counts),
	}
}

// dailyCounts buckets timestamps by UTC calendar day, oldest day first
func dailyCounts(published []time.Time) []float64 {
	byDay := make(map[time.Time]int)
	for _, ts := range published {
		byDay[models.StartOfDay(ts)]++
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	counts := make([]float64, len(days))
	for i, d := range days {
		counts[i] = float64(byDay[d])
	}

	return counts
}
