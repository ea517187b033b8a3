package sentiment

import (
	"context"
	"fmt"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// MaxHeadlines is how many articles a single analysis reads
	MaxHeadlines = 15

	MethodLexicon = "lexicon"
	MethodLLM     = "llm"

	sentimentBand   = 0.1
	priceMoveBand   = 2.0
	sharpDropBand   = 3.0
	noRecentNewsMsg = "Currently, no recent news available to analyze."
)

// Analyzer turns articles plus optional market context into a sentiment result.
// Analyzers must accept an empty article list.
type Analyzer interface {
	Analyze(ctx context.Context, items []models.NewsItem, market *models.MarketMetrics) (models.NewsSentimentResult, error)
}

// KeywordAnalyzer scores headlines with the lexicon. It never fails.
type KeywordAnalyzer struct {
	lexicon *Lexicon
	impacts *ImpactScorer
}

// NewKeywordAnalyzer creates new keyword analyzer
func NewKeywordAnalyzer() *KeywordAnalyzer {
	lexicon := NewLexicon()
	return &KeywordAnalyzer{
		lexicon: lexicon,
		impacts: NewImpactScorer(lexicon),
	}
}

// Analyze averages per-headline scores and derives outlook and summary
func (a *KeywordAnalyzer) Analyze(_ context.Context, items []models.NewsItem, market *models.MarketMetrics) (models.NewsSentimentResult, error) {
	if len(items) == 0 {
		return noNewsResult(market), nil
	}

	head := items
	if len(head) > MaxHeadlines {
		head = head[:MaxHeadlines]
	}

	scores := make([]float64, len(head))
	impacts := make([]models.HeadlineImpact, len(head))
	for i, item := range head {
		scores[i] = a.lexicon.Score(item.Title)
		impacts[i] = a.impacts.ScoreHeadline(item.Title)
	}

	avg := stats.Mean(scores)
	word := sentimentWord(avg)
	outlook, summary := describe(avg, word, len(items), market)

	return models.NewsSentimentResult{
		Sentiment:       stats.Clamp(avg, -1, 1),
		Themes:          Themes(items),
		Summary:         summary,
		Outlook:         outlook,
		Method:          MethodLexicon,
		HeadlineImpacts: impacts,
	}, nil
}

func noNewsResult(market *models.MarketMetrics) models.NewsSentimentResult {
	res := models.NeutralSentiment(noRecentNewsMsg)
	res.Method = MethodLexicon

	if market == nil {
		return res
	}

	switch change := market.Return7d; {
	case change < -priceMoveBand:
		res.Outlook = models.OutlookNegative
		res.Summary = fmt.Sprintf("Currently, no news available but stock is down %.1f%%, indicating negative momentum.", change)
	case change > priceMoveBand:
		res.Outlook = models.OutlookPositive
		res.Summary = fmt.Sprintf("Right now, no news available but stock is up %.1f%%, showing positive momentum.", change)
	}

	return res
}

func sentimentWord(avg float64) string {
	switch {
	case avg > sentimentBand:
		return "positive"
	case avg < -sentimentBand:
		return "negative"
	default:
		return "neutral"
	}
}

// describe combines headline sentiment with the 7 day price move
func describe(avg float64, word string, count int, market *models.MarketMetrics) (models.MarketOutlook, string) {
	if market == nil {
		outlook := models.OutlookNeutral
		if avg > sentimentBand {
			outlook = models.OutlookPositive
		} else if avg < -sentimentBand {
			outlook = models.OutlookNegative
		}
		return outlook, fmt.Sprintf("Currently, analyzed %d headlines showing %s sentiment overall.", count, word)
	}

	change := market.Return7d

	switch {
	case change < -priceMoveBand && avg < -sentimentBand:
		return models.OutlookNegative, fmt.Sprintf(
			"Currently, the stock is down %.1f%% amid %s news sentiment, indicating bearish momentum. High volatility (%.1f%%) suggests continued uncertainty.",
			change, word, market.VolAnn)
	case change > priceMoveBand && avg > sentimentBand:
		return models.OutlookPositive, fmt.Sprintf(
			"Right now, the stock is up %.1f%% with %s news sentiment, showing bullish momentum. Market conditions appear favorable.",
			change, word)
	case change < -priceMoveBand:
		outlook := models.OutlookNeutral
		if change < -sharpDropBand {
			outlook = models.OutlookNegative
		}
		return outlook, fmt.Sprintf(
			"Currently, the stock is down %.1f%% despite %s news, indicating mixed signals. Monitor for trend continuation.",
			change, word)
	case change > priceMoveBand:
		return models.OutlookPositive, fmt.Sprintf(
			"Right now, the stock is up %.1f%% with %s news sentiment, showing positive momentum.",
			change, word)
	default:
		return models.OutlookNeutral, fmt.Sprintf(
			"Currently, %s news sentiment with %+.1f%% price movement. Market conditions are relatively stable.",
			word, change)
	}
}
