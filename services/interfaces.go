package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuoteProvider fetches the latest traded price for an instrument from
// an upstream feed. assetID is the feed's instrument key (a CoinGecko
// coin id, an equity ticker, ...).
type QuoteProvider interface {
	LatestPrice(ctx context.Context, assetID string) (decimal.Decimal, error)
}

// Compile-time interface verification
var _ QuoteProvider = (*CoinGeckoService)(nil)
var _ QuoteProvider = (*AlpacaService)(nil)
