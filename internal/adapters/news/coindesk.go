package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/price"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
)

const coindeskAPIURL = "https://www.coindesk.com/arc/outboundfeeds/news/?outputType=json&size=%d"

var coinNames = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ether",
	"SOL":  "solana",
	"XRP":  "xrp",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"BNB":  "bnb",
	"AVAX": "avalanche",
	"LINK": "chainlink",
	"LTC":  "litecoin",
}

// CoinDeskProvider fetches news from CoinDesk; only crypto symbols get results
type CoinDeskProvider struct {
	enabled bool
	client  *http.Client
	feedURL string
	now     func() time.Time
}

// NewCoinDeskProvider creates new CoinDesk provider
func NewCoinDeskProvider(enabled bool, timeout time.Duration) *CoinDeskProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinDeskProvider{
		enabled: enabled,
		client:  &http.Client{Timeout: timeout},
		feedURL: coindeskAPIURL,
		now:     time.Now,
	}
}

func (c *CoinDeskProvider) GetName() string {
	return "coindesk"
}

func (c *CoinDeskProvider) IsEnabled() bool {
	return c.enabled
}

func (c *CoinDeskProvider) FetchForSymbol(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if !c.enabled || !price.IsCrypto(symbol) {
		return nil, nil
	}

	url := fmt.Sprintf(c.feedURL, limit*2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var result []struct {
		ID        string `json:"_id"`
		Type      string `json:"type"`
		Canonical string `json:"canonical_url"`
		Headlines struct {
			Basic string `json:"basic"`
		} `json:"headlines"`
		Description struct {
			Basic string `json:"basic"`
		} `json:"description"`
		DisplayDate time.Time `json:"display_date"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	keywords := coinKeywords(symbol)
	cutoff := c.now().Add(-lookback)

	news := make([]models.NewsItem, 0)
	for _, article := range result {
		// Skip non-story types
		if article.Type != "story" {
			continue
		}

		title := article.Headlines.Basic
		if !isRelevant(title+" "+article.Description.Basic, keywords) || !withinCutoff(article.DisplayDate, cutoff) {
			continue
		}

		news = append(news, models.NewsItem{
			Symbol:      symbol,
			Source:      "CoinDesk",
			Title:       title,
			URL:         "https://www.coindesk.com" + article.Canonical,
			PublishedAt: article.DisplayDate.UTC(),
		})

		if len(news) >= limit {
			break
		}
	}

	logger.Debug("fetched CoinDesk news",
		zap.String("symbol", symbol),
		zap.Int("count", len(news)),
	)

	return news, nil
}

func coinKeywords(symbol string) []string {
	base := price.BaseSymbol(symbol)
	keywords := []string{strings.ToLower(base)}
	if name, ok := coinNames[base]; ok {
		keywords = append(keywords, name)
	}
	return keywords
}
