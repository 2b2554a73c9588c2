package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-trader/observability"

	"github.com/shopspring/decimal"
)

// CoinGeckoService fetches crypto spot prices from the CoinGecko
// simple-price API. Asset ids are CoinGecko coin ids ("bitcoin",
// "ethereum", ...). An API key is optional; without one the client
// uses the public rate-limited endpoint.
type CoinGeckoService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewCoinGeckoService creates a new CoinGeckoService instance
func NewCoinGeckoService(apiKey string) *CoinGeckoService {
	return &CoinGeckoService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.coingecko.com/api/v3",
	}
}

// GetSimplePrices returns the current USD price for each of the given
// coin ids. Ids unknown to CoinGecko are absent from the result.
func (s *CoinGeckoService) GetSimplePrices(ctx context.Context, assetIDs []string) (map[string]decimal.Decimal, error) {
	if len(assetIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	metrics := observability.GetMetrics()
	metrics.RecordPriceFeedRequest("coingecko", "simple_price")
	timer := metrics.NewTimer()
	defer timer.ObservePriceFeed("coingecko", "simple_price")

	var prices map[string]decimal.Decimal

	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		params := url.Values{}
		params.Set("ids", strings.Join(assetIDs, ","))
		params.Set("vs_currencies", "usd")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/simple/price?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if s.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", s.apiKey)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch prices: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("coingecko returned status %d", resp.StatusCode)
		}

		// Response shape: {"bitcoin": {"usd": 50000.12}, ...}
		var body map[string]map[string]decimal.Decimal
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("failed to decode prices: %w", err)
		}

		prices = make(map[string]decimal.Decimal, len(body))
		for id, quotes := range body {
			if usd, ok := quotes["usd"]; ok {
				prices[id] = usd
			}
		}
		return nil
	})

	if err != nil {
		metrics.RecordPriceFeedError("coingecko", "simple_price")
		return nil, err
	}

	return prices, nil
}

// LatestPrice returns the current USD price for a single coin id.
func (s *CoinGeckoService) LatestPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return WithCircuitBreaker(ctx, BreakerCoinGecko, func() (decimal.Decimal, error) {
		prices, err := s.GetSimplePrices(ctx, []string{assetID})
		if err != nil {
			return decimal.Zero, err
		}
		price, ok := prices[assetID]
		if !ok {
			return decimal.Zero, fmt.Errorf("no price returned for %s", assetID)
		}
		return price, nil
	})
}
