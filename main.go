// Package main runs the paper-trading ledger HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trader/config"
	"paper-trader/internal/api"
	"paper-trader/internal/app"
	"paper-trader/observability"
	"paper-trader/repository"
	"paper-trader/services"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	production := os.Getenv("ENVIRONMENT") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Pick the ledger store: Postgres when configured, in-memory otherwise.
	var store app.LedgerStore
	if cfg.HasDatabase() {
		repo, err := repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Fatal("failed to connect to database", "error", err)
		}
		store = repo
		observability.Info("connected to database")
	} else {
		store = repository.NewMemoryStore()
		observability.Warn("DATABASE_URL not set, ledgers are held in memory and lost on restart")
	}

	// Pick the quote provider: Alpaca when credentials are configured,
	// CoinGecko otherwise. CoinGecko works without a key.
	var provider services.QuoteProvider
	if cfg.HasAlpaca() {
		provider = services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
		observability.Info("using Alpaca market data for prices")
	} else {
		provider = services.NewCoinGeckoService(cfg.CoinGecko.APIKey)
		observability.Info("using CoinGecko for prices")
	}

	cache := services.NewPriceCache(provider, time.Duration(cfg.PriceCache.TTLSeconds)*time.Second)
	cache.Start(ctx, time.Duration(cfg.PriceCache.PollIntervalSeconds)*time.Second)

	application := app.New(cfg, store, cache)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		observability.Info("starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}
