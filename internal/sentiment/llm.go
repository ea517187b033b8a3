package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/ai"
	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
	"github.com/selivandex/risklattice/pkg/templates"
)

var activeOpenings = []string{"Currently", "Right now", "The stock", "The market"}

// LLMAnalyzer asks a chat model for sentiment and falls back to another
// analyzer on any failure
type LLMAnalyzer struct {
	completer ai.Completer
	prompts   templates.Renderer
	fallback  Analyzer
}

// NewLLMAnalyzer creates new LLM analyzer
func NewLLMAnalyzer(completer ai.Completer, prompts templates.Renderer, fallback Analyzer) *LLMAnalyzer {
	return &LLMAnalyzer{
		completer: completer,
		prompts:   prompts,
		fallback:  fallback,
	}
}

// Analyze never returns an error unless the fallback does
func (a *LLMAnalyzer) Analyze(ctx context.Context, items []models.NewsItem, market *models.MarketMetrics) (models.NewsSentimentResult, error) {
	res, err := a.analyze(ctx, items, market)
	if err == nil {
		return res, nil
	}

	logger.Warn("LLM sentiment failed, using lexicon fallback",
		zap.String("provider", a.completer.GetName()),
		zap.Int("articles", len(items)),
		zap.Error(err),
	)

	return a.fallback.Analyze(ctx, items, market)
}

func (a *LLMAnalyzer) analyze(ctx context.Context, items []models.NewsItem, market *models.MarketMetrics) (models.NewsSentimentResult, error) {
	system, err := a.prompts.ExecuteTemplate("sentiment_system", nil)
	if err != nil {
		return models.NewsSentimentResult{}, err
	}

	prompt, err := a.prompts.ExecuteTemplate("sentiment_prompt", newPromptData(items, market))
	if err != nil {
		return models.NewsSentimentResult{}, err
	}

	reply, err := a.completer.Complete(ctx, system, prompt)
	if err != nil {
		return models.NewsSentimentResult{}, err
	}

	return parseReply(reply, market)
}

type promptData struct {
	Market           *models.MarketMetrics
	PriceDirection   string
	VolatilityStatus string
	MarketTrend      string
	Headlines        []string
}

func newPromptData(items []models.NewsItem, market *models.MarketMetrics) promptData {
	head := items
	if len(head) > MaxHeadlines {
		head = head[:MaxHeadlines]
	}

	data := promptData{Market: market, Headlines: make([]string, len(head))}
	for i, item := range head {
		data.Headlines[i] = item.Title
	}

	if market == nil {
		return data
	}

	change, vol := market.Return7d, market.VolAnn

	switch {
	case change < -priceMoveBand:
		data.PriceDirection = "DOWN"
	case change > priceMoveBand:
		data.PriceDirection = "UP"
	default:
		data.PriceDirection = "FLAT"
	}

	switch {
	case vol > 30:
		data.VolatilityStatus = "HIGH"
	case vol > 20:
		data.VolatilityStatus = "MODERATE"
	default:
		data.VolatilityStatus = "LOW"
	}

	switch {
	case change < -3 && vol > 25:
		data.MarketTrend = "BEARISH"
	case change > 3 && vol < 20:
		data.MarketTrend = "BULLISH"
	default:
		data.MarketTrend = "MIXED"
	}

	return data
}

type llmReply struct {
	Sentiment       *float64 `json:"sentiment"`
	Themes          []string `json:"themes"`
	Summary         string   `json:"summary"`
	MarketOutlook   string   `json:"market_outlook"`
	HeadlineImpacts []struct {
		Title  string  `json:"title"`
		Reason string  `json:"reason"`
		Impact float64 `json:"impact"`
	} `json:"headline_impacts"`
}

// parseReply validates and normalizes a model reply
func parseReply(reply string, market *models.MarketMetrics) (models.NewsSentimentResult, error) {
	var r llmReply
	if err := json.Unmarshal([]byte(ai.ExtractJSON(reply)), &r); err != nil {
		return models.NewsSentimentResult{}, fmt.Errorf("failed to parse LLM reply: %w", err)
	}

	if r.Sentiment == nil {
		return models.NewsSentimentResult{}, fmt.Errorf("LLM reply has no sentiment")
	}

	themes := r.Themes
	if themes == nil {
		themes = []string{}
	}
	if len(themes) > models.MaxThemes {
		themes = themes[:models.MaxThemes]
	}

	outlook := models.MarketOutlook(strings.ToUpper(strings.TrimSpace(r.MarketOutlook)))
	switch outlook {
	case models.OutlookPositive, models.OutlookNegative, models.OutlookNeutral:
	default:
		outlook = models.OutlookNeutral
	}

	impacts := make([]models.HeadlineImpact, 0, len(r.HeadlineImpacts))
	for i, h := range r.HeadlineImpacts {
		if i == MaxHeadlines {
			break
		}
		impacts = append(impacts, models.HeadlineImpact{
			Title:  h.Title,
			Reason: h.Reason,
			Impact: stats.Clamp(h.Impact, -maxImpact, maxImpact),
		})
	}

	return models.NewsSentimentResult{
		Sentiment:       stats.Clamp(*r.Sentiment, -1, 1),
		Themes:          themes,
		Summary:         activeSummary(r.Summary, market),
		Outlook:         outlook,
		Method:          MethodLLM,
		HeadlineImpacts: impacts,
	}, nil
}

// activeSummary prefixes summaries that do not open in the present tense
func activeSummary(summary string, market *models.MarketMetrics) string {
	if summary == "" {
		summary = "No summary available."
	}

	for _, opening := range activeOpenings {
		if strings.HasPrefix(summary, opening) {
			return summary
		}
	}

	if market == nil {
		return summary
	}

	lower := strings.ToLower(summary)
	switch {
	case market.Return7d < -priceMoveBand:
		return "Currently, " + lower
	case market.Return7d > priceMoveBand:
		return "Right now, " + lower
	default:
		return "The stock " + lower
	}
}
