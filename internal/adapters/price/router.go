package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
)

// ErrNoData is returned when every provider in the chain came back empty
var ErrNoData = errors.New("no price data")

type guardedProvider struct {
	provider HistoryProvider
	breaker  *gobreaker.CircuitBreaker
}

// Router picks providers by asset class: crypto goes to Binance then
// CoinGecko, equities to Yahoo. Each provider sits behind its own breaker
// so a dead upstream is skipped without waiting on its timeout.
type Router struct {
	crypto []guardedProvider
	equity []guardedProvider
}

// NewRouter creates router from explicit provider chains
func NewRouter(crypto, equity []HistoryProvider) *Router {
	return &Router{
		crypto: guardAll(crypto),
		equity: guardAll(equity),
	}
}

// NewDefaultRouter builds the production chains from config
func NewDefaultRouter(cfg *config.PricesConfig) *Router {
	var crypto []HistoryProvider
	if cfg.BinanceEnabled {
		crypto = append(crypto, NewBinanceProvider())
	}
	crypto = append(crypto, NewCoinGeckoProvider(cfg.Timeout))

	return NewRouter(crypto, []HistoryProvider{NewYahooProvider(cfg.Timeout)})
}

func guardAll(providers []HistoryProvider) []guardedProvider {
	guarded := make([]guardedProvider, 0, len(providers))
	for _, p := range providers {
		guarded = append(guarded, guardedProvider{
			provider: p,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        p.GetName(),
				MaxRequests: 1,
				Timeout:     5 * time.Minute,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= 5
				},
			}),
		})
	}
	return guarded
}

func (r *Router) GetName() string {
	return "router"
}

// FetchDaily tries each provider of the symbol's chain in order and returns
// the first non-empty result
func (r *Router) FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	chain := r.equity
	if IsCrypto(symbol) {
		chain = r.crypto
	}

	var errs []error
	for _, g := range chain {
		out, err := g.breaker.Execute(func() (interface{}, error) {
			points, err := g.provider.FetchDaily(ctx, symbol, days)
			if err != nil {
				return nil, err
			}
			if len(points) == 0 {
				return nil, ErrNoData
			}
			return points, nil
		})
		if err != nil {
			logger.Warn("price provider failed",
				zap.String("provider", g.provider.GetName()),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", g.provider.GetName(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		points := out.([]models.PricePoint)
		logger.Debug("fetched daily bars",
			zap.String("provider", g.provider.GetName()),
			zap.String("symbol", symbol),
			zap.Int("bars", len(points)),
		)
		return points, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w for %s: no providers configured", ErrNoData, symbol)
	}
	return nil, fmt.Errorf("%w for %s: %w", ErrNoData, symbol, errors.Join(errs...))
}
