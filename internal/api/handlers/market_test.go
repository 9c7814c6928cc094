package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fincrate/fincrate-backend/internal/api/handlers"
	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketHandler(t *testing.T, market *testutil.MockMarketData) *handlers.MarketHandler {
	t.Helper()
	return handlers.NewMarketHandler(market, testutil.NewTestValuationService(t, market))
}

func TestMarketHandler_Quote(t *testing.T) {
	t.Run("passes the quote through", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithQuote("AAPL", 187.5)
		handler := newMarketHandler(t, market)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/market/quote/aapl", map[string]string{"symbol": "aapl"})
		w := httptest.NewRecorder()
		handler.Quote(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var quote model.Quote
		require.NoError(t, json.NewDecoder(w.Body).Decode(&quote))
		assert.Equal(t, 187.5, quote.Price)
	})

	// WHY: Each market data failure class has its own status so clients can
	// tell a missing credential from a throttled or unknown symbol.
	for _, tt := range []struct {
		name string
		err  error
		want int
	}{
		{"not configured", apperrors.ErrNotConfigured, http.StatusServiceUnavailable},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests},
		{"unknown symbol", apperrors.ErrSymbolNotFound, http.StatusNotFound},
		{"upstream failure", apperrors.ErrUpstream, http.StatusBadGateway},
	} {
		t.Run("maps "+tt.name, func(t *testing.T) {
			market := testutil.NewMockMarketData().WithError("AAPL", tt.err)
			handler := newMarketHandler(t, market)

			req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/market/quote/AAPL", map[string]string{"symbol": "AAPL"})
			w := httptest.NewRecorder()
			handler.Quote(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMarketHandler_CryptoQuote(t *testing.T) {
	market := testutil.NewMockMarketData().WithQuote("bitcoin", 65000)
	handler := newMarketHandler(t, market)

	req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/market/crypto/Bitcoin", map[string]string{"id": "Bitcoin"})
	w := httptest.NewRecorder()
	handler.CryptoQuote(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, market.Calls("bitcoin"))
}

func TestMarketHandler_History(t *testing.T) {
	t.Run("returns symbol and history", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithHistory("MSFT", testutil.MakeHistory("2024-02-01", 400, 401))
		handler := newMarketHandler(t, market)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/market/history/msft", map[string]string{"outputsize": "compact"})
		req = testutil.WithURLParams(req, map[string]string{"symbol": "msft"})
		w := httptest.NewRecorder()
		handler.History(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response handlers.HistoryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "MSFT", response.Symbol)
		assert.Len(t, response.History, 2)
	})

	t.Run("rejects an unknown outputsize", func(t *testing.T) {
		handler := newMarketHandler(t, testutil.NewMockMarketData())

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/market/history/MSFT", map[string]string{"outputsize": "tiny"})
		req = testutil.WithURLParams(req, map[string]string{"symbol": "MSFT"})
		w := httptest.NewRecorder()
		handler.History(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestMarketHandler_Portfolio tests POST /api/market/portfolio.
//
// WHY: This endpoint values unsaved holdings, so it must tolerate messy input
// and report partial failures instead of failing the whole request.
func TestMarketHandler_Portfolio(t *testing.T) {
	post := func(t *testing.T, handler *handlers.MarketHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		w := httptest.NewRecorder()
		handler.Portfolio(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/market/portfolio", body))
		return w
	}

	t.Run("values holdings and warns about skipped symbols", func(t *testing.T) {
		market := testutil.NewMockMarketData().
			WithHistory("AAPL", testutil.MakeHistory("2024-01-01", 100, 102)).
			WithError("ZZZZ", apperrors.ErrSymbolNotFound)
		handler := newMarketHandler(t, market)

		w := post(t, handler, `{"outputsize":"compact","holdings":[
			{"symbol":"aapl","shares":"1.5"},
			{"symbol":"ZZZZ","shares":1},
			{"symbol":"","shares":5},
			{"symbol":"MSFT","shares":0}
		]}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response handlers.TimelineResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		assert.Equal(t, []model.TimelinePoint{{Date: "2024-01-01", Value: 150}, {Date: "2024-01-02", Value: 153}}, response.Timeline)
		require.Len(t, response.Holdings, 1)
		assert.Equal(t, 1.5, response.Holdings[0].Shares)
		assert.Equal(t, "compact", string(response.Meta.OutputSize))
		assert.False(t, response.Meta.LastUpdated.IsZero())
		require.NotNil(t, response.Warnings)
		assert.Equal(t, []string{"ZZZZ"}, response.Warnings.SkippedSymbols)
		assert.Equal(t, 0, market.Calls("MSFT"))
	})

	t.Run("omits warnings when everything was valued", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithHistory("AAPL", testutil.MakeHistory("2024-01-01", 100))
		handler := newMarketHandler(t, market)

		w := post(t, handler, map[string]any{"holdings": []map[string]any{{"symbol": "AAPL", "shares": 1}}})

		require.Equal(t, http.StatusOK, w.Code)
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
		assert.NotContains(t, raw, "warnings")
	})

	t.Run("returns 429 with failedSymbols when every symbol fails", func(t *testing.T) {
		market := testutil.NewMockMarketData().
			WithError("AAPL", apperrors.ErrRateLimited).
			WithError("MSFT", apperrors.ErrRateLimited)
		handler := newMarketHandler(t, market)

		w := post(t, handler, map[string]any{"holdings": []map[string]any{
			{"symbol": "AAPL", "shares": 1},
			{"symbol": "MSFT", "shares": 2},
		}})

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		var response handlers.UpstreamUnavailableResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, []string{"AAPL", "MSFT"}, response.FailedSymbols)
	})

	t.Run("returns 400 without holdings", func(t *testing.T) {
		handler := newMarketHandler(t, testutil.NewMockMarketData())

		w := post(t, handler, map[string]any{"holdings": []any{}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Holdings array is required")
	})

	t.Run("returns 400 when no holding is valid", func(t *testing.T) {
		handler := newMarketHandler(t, testutil.NewMockMarketData())

		w := post(t, handler, map[string]any{"holdings": []map[string]any{{"symbol": "AAPL", "shares": -1}}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid holdings supplied")
	})

	t.Run("returns 400 for an unknown outputsize", func(t *testing.T) {
		handler := newMarketHandler(t, testutil.NewMockMarketData())

		w := post(t, handler, map[string]any{
			"outputsize": "weekly",
			"holdings":   []map[string]any{{"symbol": "AAPL", "shares": 1}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
