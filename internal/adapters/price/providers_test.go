package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
)

func TestIsCrypto(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"BTC-USD", true},
		{"eth-usd", true},
		{"SOL", true},
		{"XYZ-EUR", true},
		{"AAPL", false},
		{"TSLA", false},
		{"BRK-B", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCrypto(tt.symbol))
		})
	}
}

func TestToBinancePair(t *testing.T) {
	assert.Equal(t, "BTC/USDT", toBinancePair("BTC-USD"))
	assert.Equal(t, "ETH/EUR", toBinancePair("ETH-EUR"))
	assert.Equal(t, "SOL/USDT", toBinancePair("SOL"))
}

func TestYahooProvider_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart": {"result": [{
			"timestamp": [1741615200, 1741701600, 1741788000],
			"indicators": {"quote": [{
				"open":   [100.0, null, 102.0],
				"high":   [101.0, null, 103.5],
				"low":    [99.0,  null, 101.0],
				"close":  [100.5, null, 103.0],
				"volume": [1000,  null, 1200]
			}]}
		}], "error": null}}`))
	}))
	defer srv.Close()

	y := NewYahooProvider(time.Second)
	y.baseURL = srv.URL

	points, err := y.FetchDaily(context.Background(), "AAPL", 90)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 100.5, points[0].ClosePrice())
	assert.Equal(t, int64(1000), points[0].Volume)
	assert.Equal(t, "yahoo", points[0].Source)
	assert.Equal(t, 103.0, points[1].ClosePrice())
}

func TestYahooProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahooProvider(time.Second)
	y.baseURL = srv.URL

	_, err := y.FetchDaily(context.Background(), "ZZZZ", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooRange(t *testing.T) {
	assert.Equal(t, "1mo", yahooRange(20))
	assert.Equal(t, "3mo", yahooRange(90))
	assert.Equal(t, "6mo", yahooRange(120))
	assert.Equal(t, "1y", yahooRange(365))
	assert.Equal(t, "2y", yahooRange(500))
}

func TestCoinGeckoProvider_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "3", r.URL.Query().Get("days"))

		// 2025-03-10 00:00, 2025-03-11 00:00, 2025-03-11 09:00 (intraday latest)
		_, _ = w.Write([]byte(`{
			"prices": [[1741564800000, 80000.5], [1741651200000, 81000], [1741683600000, 81500]],
			"total_volumes": [[1741564800000, 1.5e10], [1741651200000, 2.0e10], [1741683600000, 2.1e10]]
		}`))
	}))
	defer srv.Close()

	cg := NewCoinGeckoProvider(time.Second)
	cg.baseURL = srv.URL

	points, err := cg.FetchDaily(context.Background(), "BTC-USD", 3)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 80000.5, points[0].ClosePrice())
	assert.True(t, points[0].Open.Equal(points[0].Close))
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), points[1].Date)
	assert.Equal(t, 81500.0, points[1].ClosePrice())
	assert.Equal(t, int64(2.1e10), points[1].Volume)
}

func TestMapSymbolToCoinGeckoID(t *testing.T) {
	assert.Equal(t, "bitcoin", mapSymbolToCoinGeckoID("BTC"))
	assert.Equal(t, "avalanche-2", mapSymbolToCoinGeckoID("AVAX"))
	assert.Equal(t, "pepe", mapSymbolToCoinGeckoID("PEPE"))
}

type fakeOHLCV struct {
	symbol string
	bars   []ccxt.OHLCV
	err    error
}

func (f *fakeOHLCV) FetchOHLCV(symbol string, _ ...ccxt.FetchOHLCVOptions) ([]ccxt.OHLCV, error) {
	f.symbol = symbol
	return f.bars, f.err
}

func TestBinanceProvider_FetchDaily(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	fake := &fakeOHLCV{bars: []ccxt.OHLCV{
		{Timestamp: day.UnixMilli(), Open: 80000, High: 82000, Low: 79000, Close: 81000, Volume: 1234.5},
		{Timestamp: day.AddDate(0, 0, 1).UnixMilli(), Open: 81000, High: 83000, Low: 80500, Close: 82500, Volume: 999},
	}}

	b := NewBinanceProviderWith(fake)
	points, err := b.FetchDaily(context.Background(), "BTC-USD", 30)
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", fake.symbol)
	require.Len(t, points, 2)
	assert.Equal(t, day, points[0].Date)
	assert.Equal(t, "BTC-USD", points[0].Symbol)
	assert.Equal(t, 82500.0, points[1].ClosePrice())
	assert.Equal(t, int64(1234), points[0].Volume)
}

type stubProvider struct {
	name   string
	points []models.PricePoint
	err    error
	calls  int
}

func (s *stubProvider) GetName() string { return s.name }

func (s *stubProvider) FetchDaily(_ context.Context, symbol string, _ int) ([]models.PricePoint, error) {
	s.calls++
	return s.points, s.err
}

func TestRouter_FetchDaily(t *testing.T) {
	bar := models.PricePoint{Symbol: "X", Close: models.NewDecimal(10)}

	t.Run("crypto falls back when primary fails", func(t *testing.T) {
		primary := &stubProvider{name: "binance", err: errors.New("451 restricted location")}
		fallback := &stubProvider{name: "coingecko", points: []models.PricePoint{bar}}
		equity := &stubProvider{name: "yahoo"}

		r := NewRouter([]HistoryProvider{primary, fallback}, []HistoryProvider{equity})
		points, err := r.FetchDaily(context.Background(), "BTC-USD", 30)

		require.NoError(t, err)
		assert.Len(t, points, 1)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, fallback.calls)
		assert.Zero(t, equity.calls)
	})

	t.Run("empty result counts as failure", func(t *testing.T) {
		primary := &stubProvider{name: "binance"}
		fallback := &stubProvider{name: "coingecko", points: []models.PricePoint{bar}}

		r := NewRouter([]HistoryProvider{primary, fallback}, nil)
		points, err := r.FetchDaily(context.Background(), "ETH", 30)

		require.NoError(t, err)
		assert.Len(t, points, 1)
	})

	t.Run("equity uses equity chain", func(t *testing.T) {
		crypto := &stubProvider{name: "binance"}
		equity := &stubProvider{name: "yahoo", points: []models.PricePoint{bar}}

		r := NewRouter([]HistoryProvider{crypto}, []HistoryProvider{equity})
		_, err := r.FetchDaily(context.Background(), "AAPL", 30)

		require.NoError(t, err)
		assert.Zero(t, crypto.calls)
		assert.Equal(t, 1, equity.calls)
	})

	t.Run("all providers fail", func(t *testing.T) {
		equity := &stubProvider{name: "yahoo", err: errors.New("timeout")}

		r := NewRouter(nil, []HistoryProvider{equity})
		_, err := r.FetchDaily(context.Background(), "AAPL", 30)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Contains(t, err.Error(), "yahoo: timeout")
	})
}
