package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
)

// HoldingRepository provides data access methods for the portfolio_holdings table.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetHolding retrieves the holding of one asset in one portfolio.
// Returns ErrHoldingNotFound if the portfolio holds no position in the asset.
func (r *HoldingRepository) GetHolding(ctx context.Context, portfolioID, assetID string) (model.Holding, error) {
	query := `
		SELECT portfolio_id, asset_id, quantity, average_buy_price, updated_at
		FROM portfolio_holdings
		WHERE portfolio_id = ? AND asset_id = ?
	`

	var h model.Holding
	var updatedAtStr string
	err := r.getQuerier().QueryRowContext(ctx, query, portfolioID, assetID).Scan(
		&h.PortfolioID,
		&h.AssetID,
		&h.Quantity,
		&h.AverageBuyPrice,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to query holding: %w", err)
	}

	if h.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// UpsertHolding inserts the holding or replaces the quantity and average of the existing row.
func (r *HoldingRepository) UpsertHolding(ctx context.Context, h model.Holding) error {
	query := `
		INSERT INTO portfolio_holdings (portfolio_id, asset_id, quantity, average_buy_price, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, asset_id) DO UPDATE SET
			quantity = excluded.quantity,
			average_buy_price = excluded.average_buy_price,
			updated_at = excluded.updated_at
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		h.PortfolioID,
		h.AssetID,
		h.Quantity.String(),
		h.AverageBuyPrice.String(),
		formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// DeleteHolding removes the holding of one asset in one portfolio.
// Deleting an absent holding is not an error.
func (r *HoldingRepository) DeleteHolding(ctx context.Context, portfolioID, assetID string) error {
	query := `DELETE FROM portfolio_holdings WHERE portfolio_id = ? AND asset_id = ?`

	if _, err := r.getQuerier().ExecContext(ctx, query, portfolioID, assetID); err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

// GetHoldingsWithAssets retrieves every holding of a portfolio joined with its asset, ordered by symbol.
func (r *HoldingRepository) GetHoldingsWithAssets(ctx context.Context, portfolioID string) ([]model.HoldingWithAsset, error) {
	query := `
		SELECT h.portfolio_id, h.asset_id, h.quantity, h.average_buy_price, h.updated_at,
		       a.id, a.symbol, a.name, a.type, a.currency
		FROM portfolio_holdings h
		JOIN assets a ON a.id = h.asset_id
		WHERE h.portfolio_id = ?
		ORDER BY a.symbol ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_holdings table: %w", err)
	}
	defer rows.Close()

	holdings := []model.HoldingWithAsset{}
	for rows.Next() {
		var h model.HoldingWithAsset
		var updatedAtStr string

		err := rows.Scan(
			&h.PortfolioID,
			&h.AssetID,
			&h.Quantity,
			&h.AverageBuyPrice,
			&updatedAtStr,
			&h.Asset.ID,
			&h.Asset.Symbol,
			&h.Asset.Name,
			&h.Asset.Type,
			&h.Asset.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_holdings results: %w", err)
		}
		if h.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
			return nil, err
		}

		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_holdings table: %w", err)
	}

	return holdings, nil
}
