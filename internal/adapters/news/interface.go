package news

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
)

// Provider represents news source provider interface
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchForSymbol fetches recent articles about symbol, newest first
	FetchForSymbol(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)

	// IsEnabled returns whether provider is enabled
	IsEnabled() bool
}

// Aggregator aggregates news from multiple sources
type Aggregator struct {
	providers []Provider
	limit     int
}

// NewAggregator creates new news aggregator returning at most limit articles
func NewAggregator(providers []Provider, limit int) *Aggregator {
	if limit <= 0 {
		limit = 20
	}
	return &Aggregator{
		providers: providers,
		limit:     limit,
	}
}

// FetchForSymbol queries all enabled providers in parallel, drops repeated
// URLs and returns the newest articles first. Provider failures are logged
// and skipped.
func (a *Aggregator) FetchForSymbol(ctx context.Context, symbol string) []models.NewsItem {
	type result struct {
		provider string
		err      error
		news     []models.NewsItem
	}

	results := make(chan result, len(a.providers))
	enabledCount := 0

	for _, provider := range a.providers {
		if !provider.IsEnabled() {
			continue
		}
		enabledCount++

		go func(p Provider) {
			news, err := p.FetchForSymbol(ctx, symbol, a.limit)
			results <- result{provider: p.GetName(), news: news, err: err}
		}(provider)
	}

	seen := make(map[string]bool)
	all := make([]models.NewsItem, 0)

	for i := 0; i < enabledCount; i++ {
		res := <-results
		if res.err != nil {
			logger.Warn("news provider failed",
				zap.String("provider", res.provider),
				zap.String("symbol", symbol),
				zap.Error(res.err),
			)
			continue
		}

		for _, item := range res.news {
			if item.URL == "" || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			item.Symbol = symbol
			all = append(all, item)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	if len(all) > a.limit {
		all = all[:a.limit]
	}

	return all
}

// isRelevant checks if text mentions any of the keywords
func isRelevant(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	lowerText := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lowerText, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}

func withinCutoff(published time.Time, cutoff time.Time) bool {
	return !published.IsZero() && !published.Before(cutoff)
}
