package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"paper-trader/models"
	"paper-trader/observability"

	"github.com/shopspring/decimal"
)

// DefaultPriceTTL is how long a cached quote stays usable without a
// successful refresh.
const DefaultPriceTTL = 2 * time.Minute

// PriceCache is a TTL snapshot of the latest quotes for every tracked
// asset. A background poller (Start) keeps the snapshot warm so the
// ledger's price lookups never block on the network; Ensure fetches
// synchronously the first time an asset is seen.
//
// It implements ledger.PriceSource: Price returns (price, false) for
// unknown or expired assets, never an error.
type PriceCache struct {
	mu       sync.RWMutex
	provider QuoteProvider
	ttl      time.Duration
	quotes   map[string]models.Quote
	tracked  map[string]struct{}
}

// NewPriceCache creates a cache over the given feed. A ttl of 0 uses
// DefaultPriceTTL.
func NewPriceCache(provider QuoteProvider, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &PriceCache{
		provider: provider,
		ttl:      ttl,
		quotes:   make(map[string]models.Quote),
		tracked:  make(map[string]struct{}),
	}
}

// Price returns the cached price for assetID, or false when the asset
// is unknown or its quote has expired.
func (c *PriceCache) Price(assetID string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.quotes[assetID]
	if !ok || time.Since(q.Timestamp) > c.ttl {
		return decimal.Zero, false
	}
	return q.Price, true
}

// Quote returns the full cached quote, expired or not.
func (c *PriceCache) Quote(assetID string) (models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[assetID]
	return q, ok
}

// Set stores a quote directly, bypassing the provider.
func (c *PriceCache) Set(q models.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.AssetID] = q
	c.tracked[q.AssetID] = struct{}{}
}

// Ensure makes assetID's price available: it marks the asset as
// tracked and, if there is no fresh quote yet, fetches one from the
// provider synchronously.
func (c *PriceCache) Ensure(ctx context.Context, assetID string) error {
	c.mu.Lock()
	c.tracked[assetID] = struct{}{}
	q, ok := c.quotes[assetID]
	c.mu.Unlock()

	if ok && time.Since(q.Timestamp) <= c.ttl {
		return nil
	}
	return c.refreshOne(ctx, assetID)
}

// Refresh re-fetches every tracked asset, keeping the last good quote
// for assets whose fetch fails.
func (c *PriceCache) Refresh(ctx context.Context) {
	for _, assetID := range c.trackedIDs() {
		if err := c.refreshOne(ctx, assetID); err != nil {
			observability.Warn("price refresh failed", "asset_id", assetID, "error", err)
		}
	}
}

// Start polls the provider every interval until ctx is cancelled.
func (c *PriceCache) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()
}

func (c *PriceCache) refreshOne(ctx context.Context, assetID string) error {
	price, err := c.provider.LatestPrice(ctx, assetID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.quotes[assetID] = models.Quote{
		AssetID:   assetID,
		Price:     price,
		Timestamp: time.Now(),
	}
	c.mu.Unlock()
	return nil
}

func (c *PriceCache) trackedIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.tracked))
	for id := range c.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
