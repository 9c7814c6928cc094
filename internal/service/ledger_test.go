package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/repository"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/fincrate/fincrate-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("Expected %s %s, got %s", field, want, got)
	}
}

// TestApplyTrade covers the pure holding arithmetic.
//
// WHY: Average cost and quantity are derived incrementally, never recomputed
// from the transaction log, so each step must be exact.
func TestApplyTrade(t *testing.T) {
	buy := func(qty, price string) service.Trade {
		return service.Trade{Kind: model.TransactionBuy, Quantity: d(qty), Price: d(price)}
	}
	sell := func(qty, price string) service.Trade {
		return service.Trade{Kind: model.TransactionSell, Quantity: d(qty), Price: d(price)}
	}

	t.Run("first buy creates the holding at the trade price", func(t *testing.T) {
		next, executed, err := service.ApplyTrade(nil, buy("10", "100"), service.SellReject)
		require.NoError(t, err)
		require.NotNil(t, next)

		assertDecimal(t, "10", next.Quantity, "quantity")
		assertDecimal(t, "100", next.AverageBuyPrice, "average buy price")
		assertDecimal(t, "10", executed, "executed quantity")
	})

	t.Run("second buy moves the average to the weighted mean", func(t *testing.T) {
		current := &model.Holding{Quantity: d("10"), AverageBuyPrice: d("100")}

		next, _, err := service.ApplyTrade(current, buy("10", "120"), service.SellReject)
		require.NoError(t, err)

		assertDecimal(t, "20", next.Quantity, "quantity")
		assertDecimal(t, "110", next.AverageBuyPrice, "average buy price")
		assertDecimal(t, "10", current.Quantity, "input quantity (must not be mutated)")
	})

	t.Run("sell reduces quantity and keeps the average", func(t *testing.T) {
		current := &model.Holding{Quantity: d("20"), AverageBuyPrice: d("110")}

		next, _, err := service.ApplyTrade(current, sell("5", "150"), service.SellReject)
		require.NoError(t, err)

		assertDecimal(t, "15", next.Quantity, "quantity")
		assertDecimal(t, "110", next.AverageBuyPrice, "average buy price")
		assertDecimal(t, "1650", next.InvestedValue(), "invested value")
	})

	t.Run("selling the full position removes the holding", func(t *testing.T) {
		current := &model.Holding{Quantity: d("15"), AverageBuyPrice: d("110")}

		next, executed, err := service.ApplyTrade(current, sell("15", "90"), service.SellReject)
		require.NoError(t, err)
		assert.Nil(t, next)
		assertDecimal(t, "15", executed, "executed quantity")
	})

	t.Run("fractional quantities stay exact", func(t *testing.T) {
		current := &model.Holding{Quantity: d("0.1"), AverageBuyPrice: d("30000")}

		next, _, err := service.ApplyTrade(current, buy("0.2", "30000"), service.SellReject)
		require.NoError(t, err)
		assertDecimal(t, "0.3", next.Quantity, "quantity")
		assertDecimal(t, "30000", next.AverageBuyPrice, "average buy price")
	})

	t.Run("average is the weighted mean whatever the buy order", func(t *testing.T) {
		type lot struct{ qty, price string }
		lots := []lot{{"3", "7"}, {"7", "11"}, {"1", "13"}, {"9", "17.33"}}

		// sum(q*p) = 266.97 over sum(q) = 20
		orders := []struct {
			name  string
			order []int
		}{
			{"as entered", []int{0, 1, 2, 3}},
			{"reversed", []int{3, 2, 1, 0}},
			{"interleaved", []int{2, 0, 3, 1}},
			{"largest first", []int{3, 1, 0, 2}},
		}

		for _, tt := range orders {
			t.Run(tt.name, func(t *testing.T) {
				var current *model.Holding
				for _, i := range tt.order {
					next, _, err := service.ApplyTrade(current, buy(lots[i].qty, lots[i].price), service.SellReject)
					require.NoError(t, err)
					current = next
				}

				assertDecimal(t, "20", current.Quantity, "quantity")
				assertDecimal(t, "13.3485", current.AverageBuyPrice.Round(8), "average buy price")
				assertDecimal(t, "266.97", current.InvestedValue().Round(8), "invested value")
			})
		}
	})

	t.Run("oversell is rejected by default", func(t *testing.T) {
		current := &model.Holding{Quantity: d("5"), AverageBuyPrice: d("10")}

		_, _, err := service.ApplyTrade(current, sell("6", "10"), service.SellReject)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientShares)
	})

	t.Run("selling without a position is rejected by default", func(t *testing.T) {
		_, _, err := service.ApplyTrade(nil, sell("1", "10"), service.SellReject)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientShares)
	})

	t.Run("clamp sells only the held quantity", func(t *testing.T) {
		current := &model.Holding{Quantity: d("5"), AverageBuyPrice: d("10")}

		next, executed, err := service.ApplyTrade(current, sell("8", "10"), service.SellClamp)
		require.NoError(t, err)
		assert.Nil(t, next)
		assertDecimal(t, "5", executed, "executed quantity")
	})

	t.Run("allow removes the holding when quantity goes negative", func(t *testing.T) {
		current := &model.Holding{Quantity: d("5"), AverageBuyPrice: d("10")}

		next, executed, err := service.ApplyTrade(current, sell("8", "10"), service.SellAllow)
		require.NoError(t, err)
		assert.Nil(t, next)
		assertDecimal(t, "8", executed, "executed quantity")
	})

	t.Run("allow ignores a sell without a position", func(t *testing.T) {
		next, executed, err := service.ApplyTrade(nil, sell("1", "10"), service.SellAllow)
		require.NoError(t, err)
		assert.Nil(t, next)
		assertDecimal(t, "1", executed, "executed quantity")
	})

	t.Run("rejects non-positive quantity and price", func(t *testing.T) {
		_, _, err := service.ApplyTrade(nil, buy("0", "10"), service.SellReject)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, _, err = service.ApplyTrade(nil, buy("1", "-1"), service.SellReject)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		_, _, err := service.ApplyTrade(nil, service.Trade{Kind: "dividend", Quantity: d("1"), Price: d("1")}, service.SellReject)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTradeKind)
	})
}

func TestParseSellPolicy(t *testing.T) {
	for in, want := range map[string]service.SellPolicy{
		"":        service.SellReject,
		"reject":  service.SellReject,
		" Clamp ": service.SellClamp,
		"ALLOW":   service.SellAllow,
	} {
		got, err := service.ParseSellPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := service.ParseSellPolicy("sometimes")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// TestHoldingsLedger_ApplyTransaction runs the ledger against a real database.
//
// WHY: The read-modify-write happens inside one database transaction; the stored
// row, not the returned value, is what later reads observe.
func TestHoldingsLedger_ApplyTransaction(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, policy service.SellPolicy) (*service.HoldingsLedger, *repository.HoldingRepository, string, string) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		portfolio := testutil.NewPortfolio().Build(t, db)
		asset := testutil.NewAsset().WithSymbol("AAPL").Build(t, db)
		return testutil.NewTestLedger(t, db, policy), repository.NewHoldingRepository(db), portfolio.ID, asset.ID
	}

	t.Run("buy, buy, sell keeps average cost", func(t *testing.T) {
		ledger, holdings, portfolioID, assetID := setup(t, service.SellReject)

		_, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("10"), d("100"))
		require.NoError(t, err)
		_, err = ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("10"), d("120"))
		require.NoError(t, err)

		h, err := holdings.GetHolding(ctx, portfolioID, assetID)
		require.NoError(t, err)
		assertDecimal(t, "20", h.Quantity, "quantity")
		assertDecimal(t, "110", h.AverageBuyPrice, "average buy price")

		next, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionSell, d("5"), d("150"))
		require.NoError(t, err)
		require.NotNil(t, next)

		h, err = holdings.GetHolding(ctx, portfolioID, assetID)
		require.NoError(t, err)
		assertDecimal(t, "15", h.Quantity, "quantity")
		assertDecimal(t, "110", h.AverageBuyPrice, "average buy price")
		assertDecimal(t, "1650", h.InvestedValue(), "invested value")
	})

	t.Run("selling everything deletes the row", func(t *testing.T) {
		ledger, holdings, portfolioID, assetID := setup(t, service.SellReject)

		_, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("3"), d("10"))
		require.NoError(t, err)
		next, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionSell, d("3"), d("12"))
		require.NoError(t, err)
		assert.Nil(t, next)

		_, err = holdings.GetHolding(ctx, portfolioID, assetID)
		assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)
	})

	t.Run("rejected oversell leaves the holding unchanged", func(t *testing.T) {
		ledger, holdings, portfolioID, assetID := setup(t, service.SellReject)

		_, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("2"), d("10"))
		require.NoError(t, err)
		_, err = ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionSell, d("5"), d("10"))
		assert.ErrorIs(t, err, apperrors.ErrInsufficientShares)

		h, err := holdings.GetHolding(ctx, portfolioID, assetID)
		require.NoError(t, err)
		assertDecimal(t, "2", h.Quantity, "quantity")
	})

	t.Run("clamp removes the holding on oversell", func(t *testing.T) {
		ledger, holdings, portfolioID, assetID := setup(t, service.SellClamp)

		_, err := ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("2"), d("10"))
		require.NoError(t, err)
		_, err = ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionSell, d("5"), d("10"))
		require.NoError(t, err)

		_, err = holdings.GetHolding(ctx, portfolioID, assetID)
		assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)
	})

	t.Run("concurrent buys are all applied", func(t *testing.T) {
		ledger, holdings, portfolioID, assetID := setup(t, service.SellReject)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = ledger.ApplyTransaction(ctx, portfolioID, assetID, model.TransactionBuy, d("1"), d("10"))
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		h, err := holdings.GetHolding(ctx, portfolioID, assetID)
		require.NoError(t, err)
		assertDecimal(t, "8", h.Quantity, "quantity")
		assertDecimal(t, "10", h.AverageBuyPrice, "average buy price")
	})
}

// TestHoldingsLedger_RecordTrade checks that the log and the holding move together.
func TestHoldingsLedger_RecordTrade(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the executed quantity under clamp", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		portfolio := testutil.NewPortfolio().Build(t, db)
		asset := testutil.NewAsset().Build(t, db)
		testutil.NewHolding(portfolio.ID, asset.ID).WithQuantity("4").WithAverageBuyPrice("10").Build(t, db)
		ledger := testutil.NewTestLedger(t, db, service.SellClamp)

		tx := &model.Transaction{
			PortfolioID: portfolio.ID,
			AssetID:     asset.ID,
			Type:        model.TransactionSell,
			Quantity:    d("10"),
			Price:       d("12.5"),
		}
		_, err := ledger.RecordTrade(ctx, tx)
		require.NoError(t, err)

		assertDecimal(t, "4", tx.Quantity, "stored quantity")
		assertDecimal(t, "50", tx.TotalAmount, "total amount")
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, 1, testutil.CountRows(t, db, "transactions"))
		assert.Equal(t, 0, testutil.CountRows(t, db, "portfolio_holdings"))
	})

	t.Run("a rejected trade writes nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		portfolio := testutil.NewPortfolio().Build(t, db)
		asset := testutil.NewAsset().Build(t, db)
		ledger := testutil.NewTestLedger(t, db, service.SellReject)

		_, err := ledger.RecordTrade(ctx, &model.Transaction{
			PortfolioID: portfolio.ID,
			AssetID:     asset.ID,
			Type:        model.TransactionSell,
			Quantity:    d("1"),
			Price:       d("1"),
		})
		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Fatalf("Expected ErrInsufficientShares, got %v", err)
		}
		assert.Equal(t, 0, testutil.CountRows(t, db, "transactions"))
	})
}
