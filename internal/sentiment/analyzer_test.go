package sentiment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
)

func headlines(titles ...string) []models.NewsItem {
	items := make([]models.NewsItem, len(titles))
	for i, title := range titles {
		items[i] = models.NewsItem{Symbol: "AAPL", Title: title}
	}
	return items
}

func TestKeywordAnalyzer_NoNews(t *testing.T) {
	a := NewKeywordAnalyzer()
	ctx := context.Background()

	tests := []struct {
		name    string
		market  *models.MarketMetrics
		outlook models.MarketOutlook
		summary string
	}{
		{
			name:    "no context",
			outlook: models.OutlookNeutral,
			summary: "Currently, no recent news available to analyze.",
		},
		{
			name:    "flat price",
			market:  &models.MarketMetrics{Return7d: 1.5},
			outlook: models.OutlookNeutral,
			summary: "Currently, no recent news available to analyze.",
		},
		{
			name:    "falling price",
			market:  &models.MarketMetrics{Return7d: -5},
			outlook: models.OutlookNegative,
			summary: "Currently, no news available but stock is down -5.0%, indicating negative momentum.",
		},
		{
			name:    "rising price",
			market:  &models.MarketMetrics{Return7d: 3},
			outlook: models.OutlookPositive,
			summary: "Right now, no news available but stock is up 3.0%, showing positive momentum.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(ctx, nil, tt.market)
			require.NoError(t, err)

			assert.Equal(t, 0.0, res.Sentiment)
			assert.Empty(t, res.Themes)
			assert.NotNil(t, res.Themes)
			assert.Equal(t, tt.outlook, res.Outlook)
			assert.Equal(t, tt.summary, res.Summary)
		})
	}
}

func TestKeywordAnalyzer_NegativeHeadlines(t *testing.T) {
	res, err := NewKeywordAnalyzer().Analyze(context.Background(), headlines(
		"Apple faces fraud lawsuit",
		"Shares crash after earnings miss",
	), nil)
	require.NoError(t, err)

	assert.Less(t, res.Sentiment, -0.1)
	assert.Equal(t, []string{"lawsuit", "miss", "fraud", "crash"}, res.Themes)
	assert.Equal(t, models.OutlookNegative, res.Outlook)
	assert.Equal(t, "Currently, analyzed 2 headlines showing negative sentiment overall.", res.Summary)
	assert.Equal(t, MethodLexicon, res.Method)

	require.Len(t, res.HeadlineImpacts, 2)
	assert.Equal(t, -2.0, res.HeadlineImpacts[0].Impact)
	assert.Equal(t, "Contains risk keywords", res.HeadlineImpacts[0].Reason)
}

func TestKeywordAnalyzer_MarketContext(t *testing.T) {
	a := NewKeywordAnalyzer()
	ctx := context.Background()

	negative := headlines("Apple faces fraud lawsuit")
	positive := headlines("Apple shares surge to record profit")
	neutral := headlines("Apple announces developer event")

	tests := []struct {
		name    string
		items   []models.NewsItem
		market  models.MarketMetrics
		outlook models.MarketOutlook
		summary string
	}{
		{
			name:    "down with negative news",
			items:   negative,
			market:  models.MarketMetrics{Return7d: -5, VolAnn: 42},
			outlook: models.OutlookNegative,
			summary: "Currently, the stock is down -5.0% amid negative news sentiment, indicating bearish momentum. High volatility (42.0%) suggests continued uncertainty.",
		},
		{
			name:    "up with positive news",
			items:   positive,
			market:  models.MarketMetrics{Return7d: 4},
			outlook: models.OutlookPositive,
			summary: "Right now, the stock is up 4.0% with positive news sentiment, showing bullish momentum. Market conditions appear favorable.",
		},
		{
			name:    "mild drop despite positive news",
			items:   positive,
			market:  models.MarketMetrics{Return7d: -2.5},
			outlook: models.OutlookNeutral,
			summary: "Currently, the stock is down -2.5% despite positive news, indicating mixed signals. Monitor for trend continuation.",
		},
		{
			name:    "sharp drop despite positive news",
			items:   positive,
			market:  models.MarketMetrics{Return7d: -4},
			outlook: models.OutlookNegative,
			summary: "Currently, the stock is down -4.0% despite positive news, indicating mixed signals. Monitor for trend continuation.",
		},
		{
			name:    "up with neutral news",
			items:   neutral,
			market:  models.MarketMetrics{Return7d: 4},
			outlook: models.OutlookPositive,
			summary: "Right now, the stock is up 4.0% with neutral news sentiment, showing positive momentum.",
		},
		{
			name:    "flat price",
			items:   neutral,
			market:  models.MarketMetrics{Return7d: 0.5},
			outlook: models.OutlookNeutral,
			summary: "Currently, neutral news sentiment with +0.5% price movement. Market conditions are relatively stable.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := tt.market
			res, err := a.Analyze(ctx, tt.items, &market)
			require.NoError(t, err)

			assert.Equal(t, tt.outlook, res.Outlook)
			assert.Equal(t, tt.summary, res.Summary)
		})
	}
}

func TestKeywordAnalyzer_Limits(t *testing.T) {
	titles := make([]string, 0, 20)
	titles = append(titles,
		"Lawsuit filed over regulation changes",
		"Investigation widens as decline continues",
		"Quarterly loss and revenue miss",
		"Warning issued after data breach",
	)
	for len(titles) < 20 {
		titles = append(titles, fmt.Sprintf("Routine update %d", len(titles)))
	}

	res, err := NewKeywordAnalyzer().Analyze(context.Background(), headlines(titles...), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"lawsuit", "regulation", "investigation", "decline", "loss"}, res.Themes)
	assert.Len(t, res.HeadlineImpacts, MaxHeadlines)
	assert.Contains(t, res.Summary, "analyzed 20 headlines")
	assert.GreaterOrEqual(t, res.Sentiment, -1.0)
}

func TestImpactScorer(t *testing.T) {
	scorer := NewImpactScorer(NewLexicon())

	assert.Equal(t, -2.0, scorer.ScoreHeadline("Exchange hit by breach").Impact)
	assert.Equal(t, 2.0, scorer.ScoreHeadline("Revenue growth tops forecasts").Impact)

	plain := scorer.ScoreHeadline("Company schedules annual meeting")
	assert.Equal(t, 0.0, plain.Impact)
	assert.Equal(t, "Sentiment analysis", plain.Reason)
}
