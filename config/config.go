package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// External price feed configurations
	CoinGecko CoinGeckoConfig
	Alpaca    AlpacaConfig

	// Ledger configuration
	Ledger LedgerConfig

	// Price cache configuration
	PriceCache PriceCacheConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	APIKey string
}

// AlpacaConfig holds Alpaca market data API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
}

// LedgerConfig holds paper-trading ledger configuration
type LedgerConfig struct {
	// OpeningBalance is the cash balance a fresh or reset ledger
	// starts with, in dollars.
	OpeningBalance float64
}

// PriceCacheConfig holds price cache configuration
type PriceCacheConfig struct {
	PollIntervalSeconds int
	TTLSeconds          int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               string
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		CoinGecko: CoinGeckoConfig{
			APIKey: os.Getenv("COINGECKO_API_KEY"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
		},
		Ledger: LedgerConfig{
			OpeningBalance: getEnvFloat("LEDGER_OPENING_BALANCE", 10_000),
		},
		PriceCache: PriceCacheConfig{
			PollIntervalSeconds: getEnvInt("PRICE_POLL_INTERVAL_SECONDS", 30),
			TTLSeconds:          getEnvInt("PRICE_TTL_SECONDS", 120),
		},
		HTTP: HTTPConfig{
			Port:               getEnvString("PORT", "8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Ledger.OpeningBalance < 0 {
		return fmt.Errorf("LEDGER_OPENING_BALANCE must not be negative, got %.2f", c.Ledger.OpeningBalance)
	}
	if c.PriceCache.PollIntervalSeconds <= 0 {
		return fmt.Errorf("PRICE_POLL_INTERVAL_SECONDS must be positive, got %d", c.PriceCache.PollIntervalSeconds)
	}
	if c.PriceCache.TTLSeconds <= 0 {
		return fmt.Errorf("PRICE_TTL_SECONDS must be positive, got %d", c.PriceCache.TTLSeconds)
	}
	if c.PriceCache.TTLSeconds < c.PriceCache.PollIntervalSeconds {
		return fmt.Errorf("PRICE_TTL_SECONDS (%d) must not be below PRICE_POLL_INTERVAL_SECONDS (%d), or quotes expire between polls",
			c.PriceCache.TTLSeconds, c.PriceCache.PollIntervalSeconds)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		CoinGecko: CoinGeckoConfig{
			APIKey: "",
		},
		Alpaca: AlpacaConfig{
			APIKey:    "",
			APISecret: "",
		},
		Ledger: LedgerConfig{
			OpeningBalance: 10_000,
		},
		PriceCache: PriceCacheConfig{
			PollIntervalSeconds: 30,
			TTLSeconds:          120,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     30,
		},
	}
}
