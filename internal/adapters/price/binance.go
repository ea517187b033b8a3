package price

import (
	"context"
	"fmt"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"

	"github.com/selivandex/risklattice/pkg/models"
)

// OHLCVFetcher is the slice of the CCXT exchange API the Binance provider uses
type OHLCVFetcher interface {
	FetchOHLCV(symbol string, options ...ccxt.FetchOHLCVOptions) ([]ccxt.OHLCV, error)
}

// BinanceProvider implements HistoryProvider over CCXT Binance spot daily candles
type BinanceProvider struct {
	exchange OHLCVFetcher
}

// NewBinanceProvider creates new Binance provider. Markets load lazily on
// the first request, so construction never touches the network.
func NewBinanceProvider() *BinanceProvider {
	exchange := ccxt.NewBinance(map[string]interface{}{
		"enableRateLimit": true,
	})
	exchange.SetOption("defaultType", "spot")

	return &BinanceProvider{exchange: exchange}
}

// NewBinanceProviderWith wraps an existing CCXT client
func NewBinanceProviderWith(exchange OHLCVFetcher) *BinanceProvider {
	return &BinanceProvider{exchange: exchange}
}

func (b *BinanceProvider) GetName() string {
	return "binance"
}

// FetchDaily fetches the last days 1d candles for symbol (BTC-USD is traded as BTC/USDT)
func (b *BinanceProvider) FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days).UnixMilli()
	ohlcv, err := b.exchange.FetchOHLCV(
		toBinancePair(symbol),
		ccxt.WithFetchOHLCVTimeframe("1d"),
		ccxt.WithFetchOHLCVSince(since),
		ccxt.WithFetchOHLCVLimit(int64(days)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch OHLCV: %w", err)
	}

	points := make([]models.PricePoint, 0, len(ohlcv))
	for _, bar := range ohlcv {
		points = append(points, models.PricePoint{
			Date:   models.StartOfDay(time.UnixMilli(bar.Timestamp)),
			Symbol: symbol,
			Source: b.GetName(),
			Open:   models.NewDecimal(bar.Open),
			High:   models.NewDecimal(bar.High),
			Low:    models.NewDecimal(bar.Low),
			Close:  models.NewDecimal(bar.Close),
			Volume: int64(bar.Volume),
		})
	}

	return trimToDays(points, days), nil
}

// toBinancePair converts BTC-USD to BTC/USDT; other quotes keep their code
func toBinancePair(symbol string) string {
	quote := quoteSymbol(symbol)
	if quote == "USD" {
		quote = "USDT"
	}
	return BaseSymbol(symbol) + "/" + quote
}
