package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/selivandex/risklattice/pkg/models"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements HistoryProvider using the Yahoo Finance chart API
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider creates new Yahoo provider
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: yahooChartURL,
	}
}

func (y *YahooProvider) GetName() string {
	return "yahoo"
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily fetches daily bars; null bars (holidays, halted sessions) are dropped
func (y *YahooProvider) FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=%s", y.baseURL, url.PathEscape(symbol), yahooRange(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo API error %d: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	points := make([]models.PricePoint, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}
		point := models.PricePoint{
			Date:   models.StartOfDay(time.Unix(ts, 0)),
			Symbol: symbol,
			Source: y.GetName(),
			Open:   models.NewDecimal(valueOr(at(quote.Open, i), *closePrice)),
			High:   models.NewDecimal(valueOr(at(quote.High, i), *closePrice)),
			Low:    models.NewDecimal(valueOr(at(quote.Low, i), *closePrice)),
			Close:  models.NewDecimal(*closePrice),
			Volume: int64(valueOr(at(quote.Volume, i), 0)),
		}
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return trimToDays(points, days), nil
}

// yahooRange picks the smallest chart range covering days
func yahooRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
