package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the current aggregate position of one asset within one portfolio.
// A stored holding always has a positive quantity.
type Holding struct {
	PortfolioID     string          `json:"portfolioId"`
	AssetID         string          `json:"assetId"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageBuyPrice decimal.Decimal `json:"averageBuyPrice"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// InvestedValue is the cost basis of the remaining quantity.
func (h Holding) InvestedValue() decimal.Decimal {
	return h.Quantity.Mul(h.AverageBuyPrice)
}

// HoldingWithAsset is a holding joined with its asset metadata.
type HoldingWithAsset struct {
	Holding
	Asset Asset `json:"asset"`
}

// EnrichedHolding is a holding priced against a live quote.
//
// When the quote is unavailable the holding is still returned with a zero current
// price and value, a gain/loss equal to minus the invested value and -100 percent,
// and PriceError set to the reason.
type EnrichedHolding struct {
	AssetID           string  `json:"assetId"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	Currency          string  `json:"currency"`
	Quantity          float64 `json:"quantity"`
	AverageBuyPrice   float64 `json:"averageBuyPrice"`
	CurrentPrice      float64 `json:"currentPrice"`
	CurrentValue      float64 `json:"currentValue"`
	InvestedValue     float64 `json:"investedValue"`
	GainLoss          float64 `json:"gainLoss"`
	GainLossPercent   float64 `json:"gainLossPercent"`
	AllocationPercent float64 `json:"allocationPercent"`
	PriceError        string  `json:"priceError,omitempty"`
}
