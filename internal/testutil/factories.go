package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/shopspring/decimal"
)

// timeLayout matches the fixed-width timestamps written by the repositories.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().Build(t, db)
//	user := testutil.NewUser().WithEmail("ada@example.com").Build(t, db)
type UserBuilder struct {
	ID        string
	Email     string
	Name      string
	Plan      string
	CreatedAt time.Time
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:        MakeID(),
		Email:     MakeEmail("user"),
		Name:      "Test User",
		Plan:      "free",
		CreatedAt: time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.ID = id
	return b
}

// WithEmail sets a custom email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.Email = email
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO users (id, email, name, plan, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Email, b.Name, b.Plan, b.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:        b.ID,
		Email:     b.Email,
		Name:      b.Name,
		Plan:      b.Plan,
		CreatedAt: b.CreatedAt,
	}
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults; the owner is created too
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio owned by an existing user
//	portfolio := testutil.NewPortfolio().
//	    ForUser(user.ID).
//	    WithName("Custom Portfolio").
//	    Build(t, db)
type PortfolioBuilder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        MakePortfolioName("Test Portfolio"),
		Description: "Test description",
		CreatedAt:   time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// ForUser sets the owning user. Without it Build creates a new user.
func (b *PortfolioBuilder) ForUser(userID string) *PortfolioBuilder {
	b.UserID = userID
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithDescription sets a custom description.
func (b *PortfolioBuilder) WithDescription(desc string) *PortfolioBuilder {
	b.Description = desc
	return b
}

// WithCreatedAt sets the creation time, which orders portfolio listings.
func (b *PortfolioBuilder) WithCreatedAt(at time.Time) *PortfolioBuilder {
	b.CreatedAt = at
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	if b.UserID == "" {
		b.UserID = NewUser().Build(t, db).ID
	}

	_, err := db.Exec(
		`INSERT INTO portfolios (id, user_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Description, b.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}
}

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset().WithSymbol("AAPL").Build(t, db)
//	coin := testutil.NewAsset().WithSymbol("bitcoin").Crypto().Build(t, db)
type AssetBuilder struct {
	ID       string
	Symbol   string
	Name     string
	Type     string
	Currency string
}

// NewAsset creates an AssetBuilder for a USD stock with a random symbol.
func NewAsset() *AssetBuilder {
	symbol := MakeSymbol("TST")
	return &AssetBuilder{
		ID:       MakeID(),
		Symbol:   symbol,
		Name:     MakeSymbolName(symbol),
		Type:     model.AssetTypeStock,
		Currency: "USD",
	}
}

// WithSymbol sets a custom symbol.
func (b *AssetBuilder) WithSymbol(symbol string) *AssetBuilder {
	b.Symbol = symbol
	return b
}

// WithName sets a custom name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// Crypto marks the asset as a crypto coin.
func (b *AssetBuilder) Crypto() *AssetBuilder {
	b.Type = model.AssetTypeCrypto
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO assets (id, symbol, name, type, currency) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Symbol, b.Name, b.Type, b.Currency,
	)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:       b.ID,
		Symbol:   b.Symbol,
		Name:     b.Name,
		Type:     b.Type,
		Currency: b.Currency,
	}
}

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	holding := testutil.NewHolding(portfolio.ID, asset.ID).
//	    WithQuantity("10").
//	    WithAverageBuyPrice("100").
//	    Build(t, db)
type HoldingBuilder struct {
	PortfolioID     string
	AssetID         string
	Quantity        decimal.Decimal
	AverageBuyPrice decimal.Decimal
	UpdatedAt       time.Time
}

// NewHolding creates a HoldingBuilder for one share bought at 100.
func NewHolding(portfolioID, assetID string) *HoldingBuilder {
	return &HoldingBuilder{
		PortfolioID:     portfolioID,
		AssetID:         assetID,
		Quantity:        decimal.NewFromInt(1),
		AverageBuyPrice: decimal.NewFromInt(100),
		UpdatedAt:       time.Now().UTC(),
	}
}

// WithQuantity sets the quantity from a decimal string.
func (b *HoldingBuilder) WithQuantity(qty string) *HoldingBuilder {
	b.Quantity = decimal.RequireFromString(qty)
	return b
}

// WithAverageBuyPrice sets the average buy price from a decimal string.
func (b *HoldingBuilder) WithAverageBuyPrice(price string) *HoldingBuilder {
	b.AverageBuyPrice = decimal.RequireFromString(price)
	return b
}

// Build creates the holding in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO portfolio_holdings (portfolio_id, asset_id, quantity, average_buy_price, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.PortfolioID, b.AssetID, b.Quantity.String(), b.AverageBuyPrice.String(), b.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return model.Holding{
		PortfolioID:     b.PortfolioID,
		AssetID:         b.AssetID,
		Quantity:        b.Quantity,
		AverageBuyPrice: b.AverageBuyPrice,
		UpdatedAt:       b.UpdatedAt,
	}
}

// TransactionBuilder provides a fluent interface for creating test transactions.
// Build only inserts the transaction row; holdings are not touched.
//
// Example usage:
//
//	tx := testutil.NewTransaction(portfolio.ID, asset.ID).Sell().WithQuantity("5").Build(t, db)
type TransactionBuilder struct {
	ID          string
	PortfolioID string
	AssetID     string
	Type        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Fees        decimal.Decimal
	Notes       string
	CreatedAt   time.Time
}

// NewTransaction creates a TransactionBuilder for a buy of one share at 100.
func NewTransaction(portfolioID, assetID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
		Type:        model.TransactionBuy,
		Quantity:    decimal.NewFromInt(1),
		Price:       decimal.NewFromInt(100),
		Fees:        decimal.Zero,
		CreatedAt:   time.Now().UTC(),
	}
}

// Sell marks the transaction as a sell.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.Type = model.TransactionSell
	return b
}

// WithQuantity sets the quantity from a decimal string.
func (b *TransactionBuilder) WithQuantity(qty string) *TransactionBuilder {
	b.Quantity = decimal.RequireFromString(qty)
	return b
}

// WithPrice sets the price from a decimal string.
func (b *TransactionBuilder) WithPrice(price string) *TransactionBuilder {
	b.Price = decimal.RequireFromString(price)
	return b
}

// WithCreatedAt sets the creation time, which orders the history.
func (b *TransactionBuilder) WithCreatedAt(at time.Time) *TransactionBuilder {
	b.CreatedAt = at
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	total := b.Quantity.Mul(b.Price)
	_, err := db.Exec(
		`INSERT INTO transactions (id, portfolio_id, asset_id, type, quantity, price, total_amount, fees, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PortfolioID, b.AssetID, b.Type,
		b.Quantity.String(), b.Price.String(), total.String(), b.Fees.String(),
		b.Notes, b.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.Transaction{
		ID:          b.ID,
		PortfolioID: b.PortfolioID,
		AssetID:     b.AssetID,
		Type:        b.Type,
		Quantity:    b.Quantity,
		Price:       b.Price,
		TotalAmount: total,
		Fees:        b.Fees,
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
	}
}
