package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"paper-trader/models"

	"github.com/shopspring/decimal"
)

// fakeProvider counts calls and serves a fixed price table.
type fakeProvider struct {
	prices map[string]decimal.Decimal
	calls  int
	err    error
}

func (f *fakeProvider) LatestPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.prices[assetID]
	if !ok {
		return decimal.Zero, errors.New("unknown asset")
	}
	return p, nil
}

func TestPriceCache_EnsureAndPrice(t *testing.T) {
	provider := &fakeProvider{prices: map[string]decimal.Decimal{
		"bitcoin": decimal.NewFromInt(50000),
	}}
	cache := NewPriceCache(provider, time.Minute)

	if _, ok := cache.Price("bitcoin"); ok {
		t.Error("expected no price before Ensure")
	}

	if err := cache.Ensure(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	price, ok := cache.Price("bitcoin")
	if !ok {
		t.Fatal("expected price after Ensure")
	}
	if !price.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("price = %s, want 50000", price)
	}

	// A fresh quote short-circuits the provider.
	if err := cache.Ensure(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestPriceCache_ExpiredQuoteNotServed(t *testing.T) {
	cache := NewPriceCache(&fakeProvider{}, time.Minute)
	cache.Set(models.Quote{
		AssetID:   "bitcoin",
		Price:     decimal.NewFromInt(50000),
		Timestamp: time.Now().Add(-2 * time.Minute),
	})

	if _, ok := cache.Price("bitcoin"); ok {
		t.Error("expected expired quote to be unavailable")
	}
}

func TestPriceCache_RefreshKeepsLastGoodQuote(t *testing.T) {
	provider := &fakeProvider{prices: map[string]decimal.Decimal{
		"bitcoin": decimal.NewFromInt(50000),
	}}
	cache := NewPriceCache(provider, time.Hour)

	if err := cache.Ensure(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	// Feed goes down; refresh fails but the cached quote survives.
	provider.err = errors.New("feed down")
	cache.Refresh(context.Background())

	price, ok := cache.Price("bitcoin")
	if !ok {
		t.Fatal("expected last good quote to survive a failed refresh")
	}
	if !price.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("price = %s, want 50000", price)
	}
}

func TestPriceCache_Set(t *testing.T) {
	cache := NewPriceCache(&fakeProvider{}, time.Minute)
	cache.Set(models.Quote{
		AssetID:   "ethereum",
		Price:     decimal.NewFromInt(3000),
		Timestamp: time.Now(),
	})

	price, ok := cache.Price("ethereum")
	if !ok {
		t.Fatal("expected price after Set")
	}
	if !price.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("price = %s, want 3000", price)
	}
}
