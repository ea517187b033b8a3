package price

import (
	"context"
	"strings"

	"github.com/selivandex/risklattice/pkg/models"
)

// HistoryProvider returns daily bars for an instrument, oldest first.
// Providers may return fewer bars than requested and never fill gaps.
type HistoryProvider interface {
	FetchDaily(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)

	// GetName returns provider name
	GetName() string
}

var cryptoSuffixes = []string{"-USD", "-EUR", "-BTC", "-ETH"}

var cryptoBases = map[string]bool{
	"BTC": true, "ETH": true, "BNB": true, "SOL": true, "ADA": true, "XRP": true,
	"DOT": true, "DOGE": true, "MATIC": true, "LTC": true, "AVAX": true, "UNI": true,
	"ATOM": true, "LINK": true, "ETC": true, "XLM": true, "ALGO": true, "VET": true,
	"FIL": true, "TRX": true, "EOS": true, "AAVE": true, "AXS": true, "SAND": true,
	"MANA": true, "ENJ": true, "CHZ": true, "BAT": true, "ZEC": true, "XTZ": true,
	"THETA": true, "HOT": true, "DASH": true,
}

// IsCrypto reports whether symbol names a cryptocurrency pair (BTC-USD) or a bare coin (ETH)
func IsCrypto(symbol string) bool {
	upper := strings.ToUpper(symbol)
	for _, suffix := range cryptoSuffixes {
		if strings.Contains(upper, suffix) {
			return true
		}
	}
	return cryptoBases[BaseSymbol(upper)]
}

// BaseSymbol strips the quote currency: BTC-USD -> BTC
func BaseSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)
	if i := strings.Index(upper, "-"); i > 0 {
		return upper[:i]
	}
	return upper
}

// quoteSymbol returns the quote currency of a dashed pair, USD otherwise
func quoteSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)
	if i := strings.Index(upper, "-"); i > 0 && i < len(upper)-1 {
		return upper[i+1:]
	}
	return "USD"
}

// trimToDays keeps the last days bars
func trimToDays(points []models.PricePoint, days int) []models.PricePoint {
	if days > 0 && len(points) > days {
		return points[len(points)-days:]
	}
	return points
}
