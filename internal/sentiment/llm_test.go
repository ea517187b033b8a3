package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
	"github.com/selivandex/risklattice/pkg/templates"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.prompt = system, user
	return f.reply, f.err
}

func (f *fakeCompleter) GetName() string { return "fake" }

func newLLM(c *fakeCompleter) *LLMAnalyzer {
	return NewLLMAnalyzer(c, templates.MustDefault(), NewKeywordAnalyzer())
}

func TestLLMAnalyzer_ParsesFencedReply(t *testing.T) {
	c := &fakeCompleter{reply: "```json\n" + `{
		"sentiment": -1.4,
		"themes": ["earnings concern", "regulatory risk", "volatility spike", "market selloff", "legal risk", "extra"],
		"summary": "the stock slides on weak guidance.",
		"market_outlook": "negative",
		"headline_impacts": [{"title": "Apple faces fraud lawsuit", "impact": -3, "reason": "legal exposure"}]
	}` + "\n```"}

	market := &models.MarketMetrics{Price: 180, Return7d: -5, VolAnn: 35, MaxDrawdown: -12}
	res, err := newLLM(c).Analyze(context.Background(), headlines("Apple faces fraud lawsuit"), market)
	require.NoError(t, err)

	assert.Equal(t, -1.0, res.Sentiment)
	assert.Len(t, res.Themes, models.MaxThemes)
	assert.Equal(t, models.OutlookNegative, res.Outlook)
	assert.Equal(t, "Currently, the stock slides on weak guidance.", res.Summary)
	assert.Equal(t, MethodLLM, res.Method)
	require.Len(t, res.HeadlineImpacts, 1)
	assert.Equal(t, -2.0, res.HeadlineImpacts[0].Impact)

	assert.Equal(t, "You are a financial risk analyst. Return only valid JSON.", c.system)
	assert.Contains(t, c.prompt, "- Price Movement: DOWN (-5.00% over 7 days)")
	assert.Contains(t, c.prompt, "- Volatility: HIGH (35.0% annualized)")
	assert.Contains(t, c.prompt, "- Market Trend: BEARISH")
	assert.Contains(t, c.prompt, "- Apple faces fraud lawsuit")
}

func TestLLMAnalyzer_PromptWithoutMarket(t *testing.T) {
	c := &fakeCompleter{reply: `{"sentiment": 0.2, "summary": "Right now, things look calm.", "market_outlook": "NEUTRAL"}`}

	res, err := newLLM(c).Analyze(context.Background(), headlines("Apple announces developer event"), nil)
	require.NoError(t, err)

	assert.Equal(t, 0.2, res.Sentiment)
	assert.NotNil(t, res.Themes)
	assert.Equal(t, "Right now, things look calm.", res.Summary)
	assert.NotContains(t, c.prompt, "CURRENT MARKET CONDITIONS")
}

func TestLLMAnalyzer_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		c    *fakeCompleter
	}{
		{"provider error", &fakeCompleter{err: errors.New("circuit breaker is open")}},
		{"malformed reply", &fakeCompleter{reply: "I cannot help with that"}},
		{"missing sentiment", &fakeCompleter{reply: `{"summary": "Currently, unclear."}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := &models.MarketMetrics{Return7d: -5}
			res, err := newLLM(tt.c).Analyze(context.Background(), nil, market)
			require.NoError(t, err)

			assert.Equal(t, MethodLexicon, res.Method)
			assert.Equal(t, models.OutlookNegative, res.Outlook)
			assert.Equal(t, 0.0, res.Sentiment)
		})
	}
}

func TestActiveSummary(t *testing.T) {
	assert.Equal(t, "No summary available.", activeSummary("", nil))
	assert.Equal(t, "Currently, fine.", activeSummary("Currently, fine.", &models.MarketMetrics{}))
	assert.Equal(t, "Right now, shares climb.", activeSummary("Shares climb.", &models.MarketMetrics{Return7d: 5}))
	assert.Equal(t, "The stock holds steady.", activeSummary("Holds steady.", &models.MarketMetrics{Return7d: 0}))
	assert.Equal(t, "Shares climb.", activeSummary("Shares climb.", nil))
}
