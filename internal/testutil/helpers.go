package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/repository"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewTestLedger creates a HoldingsLedger over db with the given sell policy.
func NewTestLedger(t *testing.T, db *sql.DB, policy service.SellPolicy) *service.HoldingsLedger {
	t.Helper()

	return service.NewHoldingsLedger(
		db,
		repository.NewAssetRepository(db),
		repository.NewHoldingRepository(db),
		repository.NewTransactionRepository(db),
		policy,
	)
}

// NewTestPortfolioService creates a PortfolioService whose prices and
// histories come from market.
func NewTestPortfolioService(t *testing.T, db *sql.DB, market marketdata.Service) *service.PortfolioService {
	t.Helper()

	logger := zap.NewNop()
	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewHoldingRepository(db),
		service.NewPositionPricer(market, logger),
		service.NewValuationService(market, 0, logger),
	)
}

// NewTestTransactionService creates a TransactionService with the default reject sell policy.
func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewPortfolioRepository(db),
		repository.NewTransactionRepository(db),
		NewTestLedger(t, db, service.SellReject),
	)
}

// NewTestValuationService creates a ValuationService without a concurrency cap.
func NewTestValuationService(t *testing.T, market marketdata.Service) *service.ValuationService {
	t.Helper()
	return service.NewValuationService(market, 0, zap.NewNop())
}

// NewTestSystemService creates a SystemService with no optional features.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, map[string]bool{})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeEmail generates a unique email address for testing.
func MakeEmail(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "-" + randomAlphanumeric(8) + "@example.com"
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeSymbolName generates an asset name for a symbol.
func MakeSymbolName(base string) string {
	if base == "" {
		base = "Symbol"
	}
	return base + " Inc."
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
