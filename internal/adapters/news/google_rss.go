package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/price"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	googleNewsURL = "https://news.google.com/rss/search"

	// entriesPerFeed is how many entries of each query's feed are inspected
	entriesPerFeed = 20
	// enoughArticles stops trying further query variants
	enoughArticles = 10
	lookback       = 7 * 24 * time.Hour
)

var (
	cryptoRelevance = []string{"crypto", "cryptocurrency", "bitcoin", "ethereum", "blockchain", "trading", "market", "price"}
	equityRelevance = []string{"stock", "share", "trading", "market", "earnings", "revenue"}
)

// GoogleNewsProvider searches Google News RSS with several query variants
// until it has enough relevant articles
type GoogleNewsProvider struct {
	enabled bool
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// NewGoogleNewsProvider creates new Google News provider
func NewGoogleNewsProvider(enabled bool, timeout time.Duration) *GoogleNewsProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleNewsProvider{
		enabled: enabled,
		client:  &http.Client{Timeout: timeout},
		baseURL: googleNewsURL,
		now:     time.Now,
	}
}

func (g *GoogleNewsProvider) GetName() string {
	return "google_news"
}

func (g *GoogleNewsProvider) IsEnabled() bool {
	return g.enabled
}

// FetchForSymbol returns relevant articles from the last 7 days, newest first
func (g *GoogleNewsProvider) FetchForSymbol(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if !g.enabled {
		return nil, nil
	}

	crypto := price.IsCrypto(symbol)
	keywords := relevanceKeywords(symbol, crypto)
	cutoff := g.now().Add(-lookback)

	seen := make(map[string]bool)
	articles := make([]models.NewsItem, 0)
	failures := 0
	queries := searchQueries(symbol, crypto)

	for _, query := range queries {
		entries, err := g.fetchFeed(ctx, query)
		if err != nil {
			failures++
			logger.Debug("google news query failed",
				zap.String("symbol", symbol),
				zap.String("query", query),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if len(entries) > entriesPerFeed {
			entries = entries[:entriesPerFeed]
		}

		for _, entry := range entries {
			if entry.Link == "" || seen[entry.Link] || entry.PubDateParsed == nil {
				continue
			}
			published := entry.PubDateParsed.UTC()
			if !withinCutoff(published, cutoff) || !isRelevant(entry.Title, keywords) {
				continue
			}

			source := "Unknown"
			if entry.Source != nil && entry.Source.Title != "" {
				source = entry.Source.Title
			}

			articles = append(articles, models.NewsItem{
				Symbol:      symbol,
				Title:       entry.Title,
				URL:         entry.Link,
				Source:      source,
				PublishedAt: published,
			})
			seen[entry.Link] = true
		}

		if len(articles) >= enoughArticles {
			break
		}
	}

	if failures == len(queries) {
		return nil, fmt.Errorf("all %d google news queries failed for %s", failures, symbol)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	return articles, nil
}

func (g *GoogleNewsProvider) fetchFeed(ctx context.Context, query string) ([]*rss.Item, error) {
	url := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", g.baseURL, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return feed.Items, nil
}

// searchQueries lists query variants in the order they are tried
func searchQueries(symbol string, crypto bool) []string {
	if !crypto {
		return []string{
			symbol + "+stock",
			symbol + "+NYSE",
			symbol + "+NASDAQ",
			symbol,
		}
	}

	base := price.BaseSymbol(symbol)
	fourth := base + "+blockchain"
	if base == "BTC" {
		fourth = base + "+bitcoin"
	}

	return []string{
		base + "+crypto",
		base + "+cryptocurrency",
		symbol + "+crypto",
		fourth,
		base,
	}
}

// relevanceKeywords returns the words of which a title must contain at least one
func relevanceKeywords(symbol string, crypto bool) []string {
	lower := strings.ToLower(symbol)
	if !crypto {
		return append([]string{lower}, equityRelevance...)
	}

	base := strings.ToLower(price.BaseSymbol(symbol))
	return append([]string{base, lower}, cryptoRelevance...)
}
