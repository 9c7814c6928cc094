package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/fincrate/fincrate-backend/internal/api/request"
	"github.com/fincrate/fincrate-backend/internal/model"
)

// ValidTransactionType contains the allowed transaction type values.
var ValidTransactionType = map[string]bool{
	model.TransactionBuy:  true,
	model.TransactionSell: true,
}

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - assetSymbol: non-empty, at most 32 characters
//   - type: buy or sell
//   - quantity: positive
//   - price: positive
//
// fees must not be negative. currency, when given, must be a known ISO 4217 code.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	symbol := strings.TrimSpace(req.AssetSymbol)
	if symbol == "" {
		errors["assetSymbol"] = "assetSymbol is required"
	} else if utf8.RuneCountInString(symbol) > 32 {
		errors["assetSymbol"] = "assetSymbol must be 32 characters or less"
	}

	if strings.TrimSpace(req.Type) == "" {
		errors["type"] = "type is required"
	} else if !ValidTransactionType[strings.ToLower(strings.TrimSpace(req.Type))] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if !req.Quantity.IsPositive() {
		errors["quantity"] = "quantity must be positive"
	}
	if !req.Price.IsPositive() {
		errors["price"] = "price must be positive"
	}
	if req.Fees.IsNegative() {
		errors["fees"] = "fees cannot be negative"
	}

	if utf8.RuneCountInString(req.AssetType) > 16 {
		errors["assetType"] = "assetType must be 16 characters or less"
	}
	if req.Currency != "" && money.GetCurrency(strings.ToUpper(req.Currency)) == nil {
		errors["currency"] = fmt.Sprintf("unknown currency: %s", req.Currency)
	}

	return result(errors)
}
