package service_test

import (
	"context"
	"testing"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/fincrate/fincrate-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// TestPositionPricer_PriceHolding tests live valuation of one position.
//
// WHY: A single failed quote must not fail the whole portfolio view; the
// holding is returned degraded instead.
func TestPositionPricer_PriceHolding(t *testing.T) {
	ctx := context.Background()

	t.Run("values a stock at the quote", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithQuote("AAPL", 120)
		pricer := service.NewPositionPricer(market, zap.NewNop())

		h := pricer.PriceHolding(ctx, "aapl", model.AssetTypeStock, d("15"), d("110"))

		assert.Equal(t, 120.0, h.CurrentPrice)
		assert.Equal(t, 1800.0, h.CurrentValue)
		assert.Equal(t, 1650.0, h.InvestedValue)
		assert.Equal(t, 150.0, h.GainLoss)
		assert.Equal(t, 9.09, h.GainLossPercent)
		assert.Empty(t, h.PriceError)
	})

	t.Run("quotes crypto by lower-case id", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithQuote("bitcoin", 50000)
		pricer := service.NewPositionPricer(market, zap.NewNop())

		h := pricer.PriceHolding(ctx, "Bitcoin", model.AssetTypeCrypto, d("0.5"), d("40000"))

		assert.Equal(t, 25000.0, h.CurrentValue)
		assert.Equal(t, 25.0, h.GainLossPercent)
		assert.Equal(t, 1, market.Calls("bitcoin"))
	})

	t.Run("degrades when the quote fails", func(t *testing.T) {
		market := testutil.NewMockMarketData().WithError("AAPL", apperrors.ErrRateLimited)
		pricer := service.NewPositionPricer(market, zap.NewNop())

		h := pricer.PriceHolding(ctx, "AAPL", model.AssetTypeStock, d("10"), d("100"))

		assert.Equal(t, 0.0, h.CurrentPrice)
		assert.Equal(t, 0.0, h.CurrentValue)
		assert.Equal(t, 1000.0, h.InvestedValue)
		assert.Equal(t, -1000.0, h.GainLoss)
		assert.Equal(t, -100.0, h.GainLossPercent)
		assert.Contains(t, h.PriceError, "rate limit")
	})
}
