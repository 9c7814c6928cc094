package service

import (
	"context"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/api/request"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/repository"
)

// TransactionService handles transaction-related business logic operations.
type TransactionService struct {
	portfolioRepo   *repository.PortfolioRepository
	transactionRepo *repository.TransactionRepository
	ledger          *HoldingsLedger
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	portfolioRepo *repository.PortfolioRepository,
	transactionRepo *repository.TransactionRepository,
	ledger *HoldingsLedger,
) *TransactionService {
	return &TransactionService{
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
	}
}

// GetTransactions retrieves the transaction history of a portfolio owned by userID, newest first.
func (s *TransactionService) GetTransactions(ctx context.Context, userID, portfolioID string) ([]model.Transaction, error) {
	if _, err := s.portfolioRepo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactions(ctx, portfolioID)
}

// CreateTransaction records a trade in a portfolio owned by userID and updates its holding.
//
// Unknown symbols create a new asset; crypto ids are stored lower-case and
// every other symbol upper-case. The request is expected to be validated.
func (s *TransactionService) CreateTransaction(
	ctx context.Context,
	userID, portfolioID string,
	req request.CreateTransactionRequest,
) (*model.Transaction, error) {
	if _, err := s.portfolioRepo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		PortfolioID: portfolioID,
		Type:        strings.ToLower(strings.TrimSpace(req.Type)),
		Quantity:    req.Quantity,
		Price:       req.Price,
		Fees:        req.Fees,
		Notes:       req.Notes,
	}

	if _, err := s.ledger.RecordAssetTrade(ctx, newAsset(req), transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// newAsset builds the asset to create for a transaction naming an unknown symbol.
func newAsset(req request.CreateTransactionRequest) model.Asset {
	assetType := strings.ToLower(strings.TrimSpace(req.AssetType))
	if assetType == "" {
		assetType = model.AssetTypeStock
	}

	symbol := strings.TrimSpace(req.AssetSymbol)
	if assetType == model.AssetTypeCrypto {
		symbol = strings.ToLower(symbol)
	} else {
		symbol = strings.ToUpper(symbol)
	}

	name := strings.TrimSpace(req.AssetName)
	if name == "" {
		name = symbol
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	return model.Asset{
		Symbol:   symbol,
		Name:     name,
		Type:     assetType,
		Currency: currency,
	}
}
