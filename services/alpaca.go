package services

import (
	"context"
	"fmt"

	"paper-trader/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaService fetches equity prices from the Alpaca market data API.
// Asset ids are exchange tickers ("AAPL", "SPY", ...).
type AlpacaService struct {
	dataClient *marketdata.Client
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &AlpacaService{dataClient: dataClient}
}

// LatestPrice returns the price of the latest trade for a ticker.
func (s *AlpacaService) LatestPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return WithCircuitBreaker(ctx, BreakerAlpaca, func() (decimal.Decimal, error) {
		metrics := observability.GetMetrics()
		metrics.RecordPriceFeedRequest("alpaca", "latest_trade")
		timer := metrics.NewTimer()
		defer timer.ObservePriceFeed("alpaca", "latest_trade")

		trade, err := s.dataClient.GetLatestTrade(assetID, marketdata.GetLatestTradeRequest{})
		if err != nil {
			metrics.RecordPriceFeedError("alpaca", "latest_trade")
			return decimal.Zero, fmt.Errorf("failed to get latest trade for %s: %w", assetID, err)
		}

		return decimal.NewFromFloat(trade.Price), nil
	})
}
