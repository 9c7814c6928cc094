package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/google/uuid"
)

// TransactionRepository provides data access methods for the append-only transactions table.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertTransaction appends a transaction. ID and CreatedAt are filled in when empty.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (id, portfolio_id, asset_id, type, quantity, price, total_amount, fees, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		t.AssetID,
		t.Type,
		t.Quantity.String(),
		t.Price.String(),
		t.TotalAmount.String(),
		t.Fees.String(),
		t.Notes,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransactions retrieves the transactions of a portfolio, newest first, with the asset symbol attached.
// Returns an empty slice if there are none.
func (r *TransactionRepository) GetTransactions(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	query := `
		SELECT t.id, t.portfolio_id, t.asset_id, a.symbol, t.type, t.quantity, t.price,
		       t.total_amount, t.fees, t.notes, t.created_at
		FROM transactions t
		JOIN assets a ON a.id = t.asset_id
		WHERE t.portfolio_id = ?
		ORDER BY t.created_at DESC, t.rowid DESC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var createdAtStr string

		err := rows.Scan(
			&t.ID,
			&t.PortfolioID,
			&t.AssetID,
			&t.Symbol,
			&t.Type,
			&t.Quantity,
			&t.Price,
			&t.TotalAmount,
			&t.Fees,
			&t.Notes,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transactions results: %w", err)
		}
		if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
			return nil, err
		}

		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions table: %w", err)
	}

	return transactions, nil
}
