package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:4000", cfg.Server.Addr)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "reject", cfg.Ledger.SellPolicy)
		assert.Equal(t, 10*time.Second, cfg.Market.RequestTimeout)
		assert.Equal(t, time.Duration(0), cfg.Market.CacheTTL)
		assert.False(t, cfg.Market.YahooEnabled)
		assert.Empty(t, cfg.Market.FinnhubAPIKey)
	})

	t.Run("reads credentials and overrides from the environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "5001")
		t.Setenv("FINNHUB_API", " fh-key ")
		t.Setenv("ALPHA_VANTAGE_API", "av-key")
		t.Setenv("FRONTEND_URL", "https://app.example.com, http://localhost:3000")
		t.Setenv("MARKET_CACHE_TTL", "2m")
		t.Setenv("LEDGER_SELL_POLICY", "Clamp")
		t.Setenv("MARKET_YAHOO_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:5001", cfg.Server.Addr)
		assert.Equal(t, "fh-key", cfg.Market.FinnhubAPIKey)
		assert.Equal(t, "av-key", cfg.Market.AlphaVantageAPIKey)
		assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, 2*time.Minute, cfg.Market.CacheTTL)
		assert.Equal(t, "clamp", cfg.Ledger.SellPolicy)
		assert.True(t, cfg.Market.YahooEnabled)
	})

	t.Run("rejects unknown sell policy", func(t *testing.T) {
		t.Setenv("LEDGER_SELL_POLICY", "sometimes")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("clamps burst to at least one", func(t *testing.T) {
		t.Setenv("MARKET_RATE_LIMIT_BURST", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Market.RateLimitBurst)
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b ,"))
	assert.Empty(t, splitList(""))
}
