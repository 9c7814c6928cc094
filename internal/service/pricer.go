package service

import (
	"context"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PositionPricer enriches holdings with a live quote.
type PositionPricer struct {
	market marketdata.Service
	logger *zap.Logger
}

// NewPositionPricer creates a new PositionPricer.
func NewPositionPricer(market marketdata.Service, logger *zap.Logger) *PositionPricer {
	return &PositionPricer{market: market, logger: logger}
}

// PriceHolding values quantity units of symbol at the current market price.
//
// Crypto assets are quoted by lower-cased CoinGecko id, everything else by
// upper-cased ticker. A failed quote never fails the call: the holding comes
// back with a zero price and value, a gain equal to minus the invested value,
// -100 percent, and PriceError describing the failure.
func (p *PositionPricer) PriceHolding(ctx context.Context, symbol, assetType string, quantity, averageBuyPrice decimal.Decimal) model.EnrichedHolding {
	invested := quantity.Mul(averageBuyPrice)

	holding := model.EnrichedHolding{
		Symbol:          symbol,
		Type:            assetType,
		Quantity:        quantity.InexactFloat64(),
		AverageBuyPrice: averageBuyPrice.InexactFloat64(),
		InvestedValue:   invested.Round(2).InexactFloat64(),
	}

	var quote model.Quote
	var err error
	if assetType == model.AssetTypeCrypto {
		quote, err = p.market.GetCryptoQuote(ctx, strings.ToLower(symbol))
	} else {
		quote, err = p.market.GetQuote(ctx, strings.ToUpper(symbol))
	}

	if err != nil {
		p.logger.Warn("Failed to price holding",
			zap.String("symbol", symbol),
			zap.String("type", assetType),
			zap.Error(err))

		holding.GainLoss = invested.Neg().Round(2).InexactFloat64()
		holding.GainLossPercent = -100
		holding.PriceError = err.Error()
		return holding
	}

	price := decimal.NewFromFloat(quote.Price)
	value := price.Mul(quantity)
	gain := value.Sub(invested)

	holding.CurrentPrice = quote.Price
	holding.CurrentValue = value.Round(2).InexactFloat64()
	holding.GainLoss = gain.Round(2).InexactFloat64()
	if !invested.IsZero() {
		holding.GainLossPercent = gain.Div(invested).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return holding
}
