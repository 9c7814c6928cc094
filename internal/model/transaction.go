package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Transaction represents one immutable buy or sell of an asset within a portfolio.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	AssetID     string          `json:"assetId"`
	Symbol      string          `json:"symbol,omitempty"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Fees        decimal.Decimal `json:"fees"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"createdAt"`
}
