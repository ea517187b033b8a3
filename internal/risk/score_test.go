package risk

import (
	"math"
	"reflect"
	"testing"

	"github.com/selivandex/risklattice/pkg/models"
)

func TestMarketScore(t *testing.T) {
	tests := []struct {
		name    string
		metrics models.MarketMetrics
		want    float64
	}{
		{
			name:    "flat market",
			metrics: models.MarketMetrics{Price: 100},
			want:    0,
		},
		{
			name:    "moderate stress",
			metrics: models.MarketMetrics{VolAnn: 25, MaxDrawdown: -15, Return7d: -5},
			want:    50*0.4 + 50*0.4 + 50*0.2,
		},
		{
			name:    "positive return is ignored",
			metrics: models.MarketMetrics{VolAnn: 10, MaxDrawdown: -3, Return7d: 8},
			want:    20*0.4 + 10*0.4,
		},
		{
			name:    "all components saturate",
			metrics: models.MarketMetrics{VolAnn: 200, MaxDrawdown: -90, Return7d: -40},
			want:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarketScore(tt.metrics)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MarketScore = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestNewsScore(t *testing.T) {
	tests := []struct {
		name      string
		sentiment float64
		themes    []string
		want      float64
	}{
		{"neutral no themes", 0, nil, 50},
		{"very positive", 1, nil, 0},
		{"very negative", -1, nil, 100},
		{"themes add five each", 0, []string{"lawsuit", "fraud"}, 60},
		{"clamped at 100", -1, []string{"a", "b", "c", "d", "e"}, 100},
		{"rounded", 0.333, nil, 33.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewsScore(models.NewsSentimentResult{Sentiment: tt.sentiment, Themes: tt.themes})
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NewsScore = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestScoresStayInRange(t *testing.T) {
	vols := []float64{0, 15, 45, 300}
	drawdowns := []float64{0, -10, -50, -100}
	returns := []float64{-60, -3, 0, 12}
	sentiments := []float64{-1, -0.4, 0, 0.7, 1}

	for _, v := range vols {
		for _, dd := range drawdowns {
			for _, r := range returns {
				for _, s := range sentiments {
					m := models.MarketMetrics{VolAnn: v, MaxDrawdown: dd, Return7d: r}
					sent := models.NewsSentimentResult{Sentiment: s, Themes: []string{"loss", "drop"}}
					score := Compute(m, sent, DefaultWeights())

					for name, val := range map[string]float64{
						"market": score.MarketScore,
						"news":   score.NewsScore,
						"total":  score.TotalScore,
					} {
						if val < 0 || val > 100 {
							t.Fatalf("%s score %.2f out of range for %+v / %+v", name, val, m, sent)
						}
					}
				}
			}
		}
	}
}

func TestTotalScore_NoRenormalization(t *testing.T) {
	if got := TotalScore(0, 50, DefaultWeights()); got != 20 {
		t.Errorf("TotalScore(0, 50) = %v, want 20", got)
	}

	// Weights are used as given even when they do not sum to 1
	if got := TotalScore(50, 50, Weights{Market: 0.5, News: 0.2}); got != 35 {
		t.Errorf("TotalScore with 0.5/0.2 = %v, want 35", got)
	}

	if got := TotalScore(100, 100, Weights{Market: 1, News: 1}); got != 100 {
		t.Errorf("TotalScore should clamp to 100, got %v", got)
	}
}

func TestLabel(t *testing.T) {
	prev := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		total    float64
		previous *float64
		want     models.TrendLabel
	}{
		{"no previous", 40, nil, models.TrendLabelNew},
		{"up", 46, prev(40), models.TrendLabelUp},
		{"exactly five is flat", 45, prev(40), models.TrendLabelFlat},
		{"down", 30, prev(40), models.TrendLabelDown},
		{"flat", 38, prev(40), models.TrendLabelFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.total, tt.previous); got != tt.want {
				t.Errorf("Label = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReasons_Order(t *testing.T) {
	m := models.MarketMetrics{VolAnn: 42.34, MaxDrawdown: -22.5, Return7d: -7.26}
	s := models.NewsSentimentResult{
		Sentiment: -0.5,
		Themes:    []string{"lawsuit", "fraud", "crash", "drop"},
		Outlook:   models.OutlookNegative,
	}

	want := []string{
		"Volatility elevated at 42.3% (annualized)",
		"Significant drawdown: -22.5%",
		"7-day return negative: -7.3%",
		"News sentiment strongly negative",
		"Risk themes identified: lawsuit, fraud, crash",
		"Market outlook: NEGATIVE (news + price movement indicate bearish conditions)",
	}

	got := Reasons(m, s)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reasons mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestReasons_Variants(t *testing.T) {
	t.Run("mildly negative and positive outlook", func(t *testing.T) {
		got := Reasons(models.MarketMetrics{}, models.NewsSentimentResult{Sentiment: -0.1, Outlook: models.OutlookPositive})
		want := []string{
			"News sentiment negative",
			"Market outlook: POSITIVE (news + price movement indicate bullish conditions)",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("nothing triggers", func(t *testing.T) {
		got := Reasons(models.MarketMetrics{VolAnn: 12, MaxDrawdown: -4}, models.NewsSentimentResult{Outlook: models.OutlookNeutral})
		want := []string{"Risk levels within normal range"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
