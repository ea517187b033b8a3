package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/selivandex/risklattice/pkg/models"
)

const coingeckoAPIURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider implements HistoryProvider using the CoinGecko market_chart
// endpoint (free, no API key needed). The endpoint only carries closes and
// volumes, so open/high/low repeat the close.
type CoinGeckoProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewCoinGeckoProvider creates new CoinGecko provider limited to ~10 calls per minute
func NewCoinGeckoProvider(timeout time.Duration) *CoinGeckoProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 2),
		baseURL: coingeckoAPIURL,
	}
}

func (cg *CoinGeckoProvider) GetName() string {
	return "coingecko"
}

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// FetchDaily returns one bar per UTC day; the last sample of a day wins
func (cg *CoinGeckoProvider) FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if err := cg.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	coinID := mapSymbolToCoinGeckoID(BaseSymbol(symbol))
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=daily",
		cg.baseURL, coinID, strings.ToLower(quoteSymbol(symbol)), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := cg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	volumes := make(map[time.Time]float64, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		volumes[models.StartOfDay(time.UnixMilli(int64(v[0])))] = v[1]
	}

	points := make([]models.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		day := models.StartOfDay(time.UnixMilli(int64(p[0])))
		closePrice := models.NewDecimal(p[1])
		point := models.PricePoint{
			Date:   day,
			Symbol: symbol,
			Source: cg.GetName(),
			Open:   closePrice,
			High:   closePrice,
			Low:    closePrice,
			Close:  closePrice,
			Volume: int64(volumes[day]),
		}

		if n := len(points); n > 0 && points[n-1].Date.Equal(day) {
			points[n-1] = point
			continue
		}
		points = append(points, point)
	}

	return trimToDays(points, days), nil
}

// mapSymbolToCoinGeckoID maps trading symbols to CoinGecko IDs
func mapSymbolToCoinGeckoID(symbol string) string {
	symbolMap := map[string]string{
		"BTC":   "bitcoin",
		"ETH":   "ethereum",
		"USDT":  "tether",
		"USDC":  "usd-coin",
		"BNB":   "binancecoin",
		"SOL":   "solana",
		"XRP":   "ripple",
		"ADA":   "cardano",
		"DOGE":  "dogecoin",
		"DOT":   "polkadot",
		"MATIC": "matic-network",
		"LTC":   "litecoin",
		"AVAX":  "avalanche-2",
		"UNI":   "uniswap",
		"LINK":  "chainlink",
		"ATOM":  "cosmos",
		"ETC":   "ethereum-classic",
		"XLM":   "stellar",
		"ALGO":  "algorand",
		"ZEC":   "zcash",
	}

	if id, ok := symbolMap[symbol]; ok {
		return id
	}

	// Default: lowercase
	return strings.ToLower(symbol)
}
