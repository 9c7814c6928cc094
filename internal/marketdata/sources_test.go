package marketdata

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testMarketConfig returns a config with every base URL pointing at url and no rate limiting.
func testMarketConfig(url string) config.MarketConfig {
	return config.MarketConfig{
		FinnhubBaseURL:   url,
		AlphaVantageURL:  url,
		CoinGeckoBaseURL: url,
		YahooBaseURL:     url,
		RequestTimeout:   5 * time.Second,
		RateLimitBurst:   1,
	}
}

// jsonServer serves body with the given status for every request and records the last request.
func jsonServer(t *testing.T, status int, body string, last **http.Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if last != nil {
			*last = r
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

var testNow = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

func TestFinnhubQuote(t *testing.T) {
	t.Run("parses a successful response", func(t *testing.T) {
		var req *http.Request
		server := jsonServer(t, http.StatusOK, `{"c":150,"h":151,"l":149,"o":149.5,"pc":145}`, &req)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		quote, err := NewFinnhub(cfg, zap.NewNop()).Quote(t.Context(), "AAPL")

		require.NoError(t, err)
		assert.Equal(t, "/quote", req.URL.Path)
		assert.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
		assert.Equal(t, "fh-key", req.URL.Query().Get("token"))
		assert.Equal(t, 150.0, quote.Price)
		assert.Equal(t, 5.0, quote.Change)
		assert.Equal(t, 3.45, quote.ChangePercent)
		assert.Equal(t, "finnhub", quote.Source)
	})

	t.Run("treats an all-zero quote as not found", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, `{"c":0,"h":0,"l":0,"o":0,"pc":0}`, nil)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		_, err := NewFinnhub(cfg, zap.NewNop()).Quote(t.Context(), "NOPE")
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("maps 429 to ErrRateLimited", func(t *testing.T) {
		server := jsonServer(t, http.StatusTooManyRequests, `{"error":"API limit reached"}`, nil)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		_, err := NewFinnhub(cfg, zap.NewNop()).Quote(t.Context(), "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	})

	t.Run("maps 5xx to ErrUpstream", func(t *testing.T) {
		server := jsonServer(t, http.StatusInternalServerError, `{}`, nil)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		_, err := NewFinnhub(cfg, zap.NewNop()).Quote(t.Context(), "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})
}

func TestFinnhubHistory(t *testing.T) {
	t.Run("parses a successful response", func(t *testing.T) {
		var req *http.Request
		body := `{"s":"ok","t":[1710288000,1710374400],"o":[10,11],"h":[12,13],"l":[9,10],"c":[11,12],"v":[1000,2000]}`
		server := jsonServer(t, http.StatusOK, body, &req)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		points, err := NewFinnhub(cfg, zap.NewNop()).History(t.Context(), "AAPL", Compact, testNow)

		require.NoError(t, err)
		assert.Equal(t, "/stock/candle", req.URL.Path)
		assert.Equal(t, "D", req.URL.Query().Get("resolution"))
		require.Len(t, points, 2)
		assert.Equal(t, "2024-03-13", points[0].Date)
		assert.Equal(t, 12.0, points[1].Close)
		assert.Equal(t, 2000.0, points[1].Volume)
	})

	t.Run("maps no_data to ErrSymbolNotFound", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, `{"s":"no_data"}`, nil)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		_, err := NewFinnhub(cfg, zap.NewNop()).History(t.Context(), "AAPL", Compact, testNow)
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("maps a missing candle entitlement to ErrUpstream", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, `{"error":"You don't have access to this resource."}`, nil)
		cfg := testMarketConfig(server.URL)
		cfg.FinnhubAPIKey = "fh-key"

		_, err := NewFinnhub(cfg, zap.NewNop()).History(t.Context(), "AAPL", Compact, testNow)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
		assert.Contains(t, err.Error(), "paid Finnhub plan")
	})
}

// TestAlphaVantageQuote tests how Alpha Vantage failure bodies are classified.
//
// WHY: Alpha Vantage answers throttling and bad symbols with HTTP 200 and an
// informational body, so the status code alone cannot tell them apart.
func TestAlphaVantageQuote(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"rate limit note", `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`, apperrors.ErrRateLimited},
		{"daily quota information", `{"Information":"We have detected your API key and our standard API rate limit is 25 requests per day."}`, apperrors.ErrRateLimited},
		{"other information is upstream", `{"Information":"This is a premium endpoint."}`, apperrors.ErrUpstream},
		{"error message is an unknown symbol", `{"Error Message":"Invalid API call."}`, apperrors.ErrSymbolNotFound},
		{"empty global quote", `{"Global Quote":{}}`, apperrors.ErrSymbolNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, tt.body, nil)
			cfg := testMarketConfig(server.URL)
			cfg.AlphaVantageAPIKey = "av-key"

			_, err := NewAlphaVantage(cfg, zap.NewNop()).Quote(t.Context(), "MSFT")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("parses a successful response", func(t *testing.T) {
		var req *http.Request
		body := `{"Global Quote":{"01. symbol":"MSFT","05. price":"410.5000","09. change":"-2.2500","10. change percent":"-0.5451%"}}`
		server := jsonServer(t, http.StatusOK, body, &req)
		cfg := testMarketConfig(server.URL)
		cfg.AlphaVantageAPIKey = "av-key"

		quote, err := NewAlphaVantage(cfg, zap.NewNop()).Quote(t.Context(), "MSFT")

		require.NoError(t, err)
		assert.Equal(t, "GLOBAL_QUOTE", req.URL.Query().Get("function"))
		assert.Equal(t, "av-key", req.URL.Query().Get("apikey"))
		assert.Equal(t, 410.5, quote.Price)
		assert.Equal(t, -2.25, quote.Change)
		assert.Equal(t, -0.5451, quote.ChangePercent)
		assert.Equal(t, "alphavantage", quote.Source)
	})
}

func TestAlphaVantageHistory(t *testing.T) {
	var req *http.Request
	body := `{"Time Series (Daily)":{
		"2024-03-14":{"1. open":"11","2. high":"13","3. low":"10","4. close":"12","5. volume":"2000"},
		"2024-03-13":{"1. open":"10","2. high":"12","3. low":"9","4. close":"11","5. volume":"1000"}}}`
	server := jsonServer(t, http.StatusOK, body, &req)
	cfg := testMarketConfig(server.URL)
	cfg.AlphaVantageAPIKey = "av-key"

	points, err := NewAlphaVantage(cfg, zap.NewNop()).History(t.Context(), "MSFT", Full, testNow)

	require.NoError(t, err)
	assert.Equal(t, "TIME_SERIES_DAILY", req.URL.Query().Get("function"))
	assert.Equal(t, "full", req.URL.Query().Get("outputsize"))
	assert.Len(t, points, 2)
}

func TestYahooHistory(t *testing.T) {
	t.Run("skips days without prices", func(t *testing.T) {
		var req *http.Request
		body := `{"chart":{"result":[{"meta":{"symbol":"VWRL.AS","currency":"EUR"},
			"timestamp":[1710288000,1710374400],
			"indicators":{"quote":[{"open":[10,null],"high":[12,null],"low":[9,null],"close":[11,null],"volume":[100,null]}]}}],"error":null}}`
		server := jsonServer(t, http.StatusOK, body, &req)
		cfg := testMarketConfig(server.URL)
		cfg.YahooEnabled = true

		points, err := NewYahoo(cfg, zap.NewNop()).History(t.Context(), "VWRL.AS", Compact, testNow)

		require.NoError(t, err)
		assert.Equal(t, "/v8/finance/chart/VWRL.AS", req.URL.Path)
		assert.Equal(t, "1d", req.URL.Query().Get("interval"))
		require.Len(t, points, 1)
		assert.Equal(t, "2024-03-13", points[0].Date)
		assert.Equal(t, 100.0, points[0].Volume)
	})

	t.Run("maps an unknown symbol to ErrSymbolNotFound", func(t *testing.T) {
		body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
		server := jsonServer(t, http.StatusOK, body, nil)
		cfg := testMarketConfig(server.URL)
		cfg.YahooEnabled = true

		_, err := NewYahoo(cfg, zap.NewNop()).History(t.Context(), "NOPE", Compact, testNow)
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})
}

func TestCoinGeckoQuote(t *testing.T) {
	t.Run("parses a successful response", func(t *testing.T) {
		var req *http.Request
		server := jsonServer(t, http.StatusOK, `{"bitcoin":{"usd":50000,"usd_24h_change":2.5}}`, &req)
		cfg := testMarketConfig(server.URL)
		cfg.CoinGeckoAPIKey = "cg-key"

		quote, err := NewCoinGecko(cfg, zap.NewNop()).Quote(t.Context(), "bitcoin")

		require.NoError(t, err)
		assert.Equal(t, "/simple/price", req.URL.Path)
		assert.Equal(t, "usd", req.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", req.URL.Query().Get("include_24hr_change"))
		assert.Equal(t, "cg-key", req.Header.Get("x-cg-demo-api-key"))
		assert.Equal(t, 50000.0, quote.Price)
		assert.Equal(t, 2.5, quote.ChangePercent)
		assert.Equal(t, 1219.51, quote.Change)
	})

	t.Run("maps an unknown coin to ErrSymbolNotFound", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, `{}`, nil)

		_, err := NewCoinGecko(testMarketConfig(server.URL), zap.NewNop()).Quote(t.Context(), "nocoin")
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("maps 429 to ErrRateLimited", func(t *testing.T) {
		server := jsonServer(t, http.StatusTooManyRequests, `{"status":{"error_code":429}}`, nil)

		_, err := NewCoinGecko(testMarketConfig(server.URL), zap.NewNop()).Quote(t.Context(), "bitcoin")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	})
}
