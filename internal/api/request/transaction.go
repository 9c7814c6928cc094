package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest represents the request body for recording a trade.
// Quantity, Price and Fees accept JSON numbers or numeric strings.
// AssetType, AssetName and Currency are only used when the symbol is new.
type CreateTransactionRequest struct {
	AssetSymbol string          `json:"assetSymbol"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Fees        decimal.Decimal `json:"fees"`
	Notes       string          `json:"notes"`
	AssetType   string          `json:"assetType,omitempty"`
	AssetName   string          `json:"assetName,omitempty"`
	Currency    string          `json:"currency,omitempty"`
}
