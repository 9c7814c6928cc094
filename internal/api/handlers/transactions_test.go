package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fincrate/fincrate-backend/internal/api/handlers"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransactionHandler_CreateTransaction tests POST /api/portfolios/{uuid}/transactions.
//
// WHY: This is the only write path into the holdings ledger. Status codes tell
// the frontend whether to show a validation message or an oversell warning.
func TestTransactionHandler_CreateTransaction(t *testing.T) {
	setup := func(t *testing.T) (*handlers.TransactionHandler, model.Portfolio) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		portfolio := testutil.NewPortfolio().Build(t, db)
		return handlers.NewTransactionHandler(testutil.NewTestTransactionService(t, db)), portfolio
	}

	post := func(t *testing.T, handler *handlers.TransactionHandler, portfolio model.Portfolio, userID string, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/portfolios/"+portfolio.ID+"/transactions", body)
		req = testutil.WithURLParams(req, map[string]string{"uuid": portfolio.ID})
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.WithUser(req, userID))
		return w
	}

	t.Run("returns 201 with the stored transaction", func(t *testing.T) {
		handler, portfolio := setup(t)

		w := post(t, handler, portfolio, portfolio.UserID, map[string]any{
			"assetSymbol": "aapl",
			"type":        "buy",
			"quantity":    10,
			"price":       "100.50",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var response model.Transaction
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "AAPL", response.Symbol)
		assert.True(t, response.TotalAmount.Equal(decimal.RequireFromString("1005")), "total %s", response.TotalAmount)
	})

	t.Run("returns 400 with field errors", func(t *testing.T) {
		handler, portfolio := setup(t)

		w := post(t, handler, portfolio, portfolio.UserID, map[string]any{
			"assetSymbol": "",
			"type":        "gift",
			"quantity":    -1,
			"price":       0,
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		var response struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Contains(t, response.Details, "assetSymbol")
		assert.Contains(t, response.Details, "type")
		assert.Contains(t, response.Details, "quantity")
		assert.Contains(t, response.Details, "price")
	})

	t.Run("returns 409 when selling more than held", func(t *testing.T) {
		handler, portfolio := setup(t)

		w := post(t, handler, portfolio, portfolio.UserID, map[string]any{
			"assetSymbol": "AAPL",
			"type":        "sell",
			"quantity":    1,
			"price":       100,
		})

		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("returns 404 for another user's portfolio", func(t *testing.T) {
		handler, portfolio := setup(t)

		w := post(t, handler, portfolio, testutil.MakeID(), map[string]any{
			"assetSymbol": "AAPL",
			"type":        "buy",
			"quantity":    1,
			"price":       100,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransactionHandler_Transactions(t *testing.T) {
	t.Run("returns the history newest first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewTransactionHandler(testutil.NewTestTransactionService(t, db))
		portfolio := testutil.NewPortfolio().Build(t, db)
		asset := testutil.NewAsset().WithSymbol("MSFT").Build(t, db)
		testutil.NewTransaction(portfolio.ID, asset.ID).Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolios/"+portfolio.ID+"/transactions",
			map[string]string{"uuid": portfolio.ID})
		w := httptest.NewRecorder()

		handler.Transactions(w, testutil.WithUser(req, portfolio.UserID))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response []model.Transaction
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response, 1)
		assert.Equal(t, "MSFT", response[0].Symbol)
	})

	t.Run("returns 404 for an unknown portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewTransactionHandler(testutil.NewTestTransactionService(t, db))
		id := testutil.MakeID()

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolios/"+id+"/transactions",
			map[string]string{"uuid": id})
		w := httptest.NewRecorder()

		handler.Transactions(w, testutil.WithUser(req, testutil.MakeID()))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
