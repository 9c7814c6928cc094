package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Market   MarketConfig
	Ledger   LedgerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggerConfig holds the configuration for the logger.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig holds the key and lifetime of authentication tokens.
// An empty Secret makes the server generate an ephemeral key at startup.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// MarketConfig holds credentials and tuning for the upstream market data sources.
// A source with an empty API key is treated as not configured.
type MarketConfig struct {
	FinnhubAPIKey      string
	FinnhubBaseURL     string
	AlphaVantageAPIKey string
	AlphaVantageURL    string
	CoinGeckoAPIKey    string
	CoinGeckoBaseURL   string
	YahooEnabled       bool
	YahooBaseURL       string

	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, per source
	RateLimitBurst int

	SyntheticWhenUnconfigured bool
	MaxConcurrentFetches      int

	CacheTTL           time.Duration
	CachePruneSchedule string
}

// LedgerConfig holds holdings ledger policies.
type LedgerConfig struct {
	SellPolicy string
}

// envBindings maps configuration keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":                        "SERVER_PORT",
	"server.host":                        "SERVER_HOST",
	"database.path":                      "DB_PATH",
	"cors.allowed_origins":               "FRONTEND_URL",
	"logger.level":                       "LOG_LEVEL",
	"logger.format":                      "LOG_FORMAT",
	"auth.secret":                        "AUTH_SECRET",
	"auth.token_ttl":                     "AUTH_TOKEN_TTL",
	"market.finnhub_api_key":             "FINNHUB_API",
	"market.finnhub_base_url":            "FINNHUB_BASE_URL",
	"market.alpha_vantage_api_key":       "ALPHA_VANTAGE_API",
	"market.alpha_vantage_base_url":      "ALPHA_VANTAGE_BASE_URL",
	"market.coingecko_api_key":           "COINGECKO_API",
	"market.coingecko_base_url":          "COINGECKO_BASE_URL",
	"market.yahoo_enabled":               "MARKET_YAHOO_ENABLED",
	"market.yahoo_base_url":              "MARKET_YAHOO_BASE_URL",
	"market.request_timeout":             "MARKET_REQUEST_TIMEOUT",
	"market.rate_limit":                  "MARKET_RATE_LIMIT",
	"market.rate_limit_burst":            "MARKET_RATE_LIMIT_BURST",
	"market.synthetic_when_unconfigured": "MARKET_SYNTHETIC_WHEN_UNCONFIGURED",
	"market.max_concurrent_fetches":      "MARKET_MAX_CONCURRENT_FETCHES",
	"market.cache_ttl":                   "MARKET_CACHE_TTL",
	"market.cache_prune_schedule":        "MARKET_CACHE_PRUNE_SCHEDULE",
	"ledger.sell_policy":                 "LEDGER_SELL_POLICY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("database.path", "./data/fincrate.db")
	v.SetDefault("cors.allowed_origins", "http://localhost:3000")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("market.finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("market.alpha_vantage_base_url", "https://www.alphavantage.co")
	v.SetDefault("market.coingecko_base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.yahoo_enabled", false)
	v.SetDefault("market.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.request_timeout", "10s")
	v.SetDefault("market.rate_limit", 5)
	v.SetDefault("market.rate_limit_burst", 5)
	v.SetDefault("market.synthetic_when_unconfigured", false)
	v.SetDefault("market.max_concurrent_fetches", 0)
	v.SetDefault("market.cache_ttl", "0s")
	v.SetDefault("market.cache_prune_schedule", "@every 10m")
	v.SetDefault("ledger.sell_policy", "reject")
}

// Load reads configuration from environment variables, an optional .env file
// and an optional config.yml in the working directory.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
			Host: v.GetString("server.host"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
		Auth: AuthConfig{
			Secret:   strings.TrimSpace(v.GetString("auth.secret")),
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		Market: MarketConfig{
			FinnhubAPIKey:             strings.TrimSpace(v.GetString("market.finnhub_api_key")),
			FinnhubBaseURL:            v.GetString("market.finnhub_base_url"),
			AlphaVantageAPIKey:        strings.TrimSpace(v.GetString("market.alpha_vantage_api_key")),
			AlphaVantageURL:           v.GetString("market.alpha_vantage_base_url"),
			CoinGeckoAPIKey:           strings.TrimSpace(v.GetString("market.coingecko_api_key")),
			CoinGeckoBaseURL:          v.GetString("market.coingecko_base_url"),
			YahooEnabled:              v.GetBool("market.yahoo_enabled"),
			YahooBaseURL:              v.GetString("market.yahoo_base_url"),
			RequestTimeout:            v.GetDuration("market.request_timeout"),
			RateLimit:                 v.GetFloat64("market.rate_limit"),
			RateLimitBurst:            v.GetInt("market.rate_limit_burst"),
			SyntheticWhenUnconfigured: v.GetBool("market.synthetic_when_unconfigured"),
			MaxConcurrentFetches:      v.GetInt("market.max_concurrent_fetches"),
			CacheTTL:                  v.GetDuration("market.cache_ttl"),
			CachePruneSchedule:        v.GetString("market.cache_prune_schedule"),
		},
		Ledger: LedgerConfig{
			SellPolicy: strings.ToLower(strings.TrimSpace(v.GetString("ledger.sell_policy"))),
		},
	}

	switch config.Ledger.SellPolicy {
	case "reject", "clamp", "allow":
	default:
		return nil, fmt.Errorf("invalid LEDGER_SELL_POLICY %q: must be reject, clamp or allow", config.Ledger.SellPolicy)
	}

	if config.Market.RateLimitBurst < 1 {
		config.Market.RateLimitBurst = 1
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// splitList splits a comma separated value and drops empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
