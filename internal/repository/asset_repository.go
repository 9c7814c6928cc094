package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/google/uuid"
)

// AssetRepository provides data access methods for the assets table.
type AssetRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// WithTx returns a new AssetRepository scoped to the provided transaction.
func (r *AssetRepository) WithTx(tx *sql.Tx) *AssetRepository {
	return &AssetRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *AssetRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetAssetBySymbol retrieves an asset by its symbol.
// Returns ErrAssetNotFound if no asset with the symbol exists.
func (r *AssetRepository) GetAssetBySymbol(ctx context.Context, symbol string) (model.Asset, error) {
	query := `
		SELECT id, symbol, name, type, currency
		FROM assets
		WHERE symbol = ?
	`

	var a model.Asset
	err := r.getQuerier().QueryRowContext(ctx, query, symbol).Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset: %w", err)
	}
	return a, nil
}

// FindOrCreateAsset returns the asset with a.Symbol, inserting a when none exists.
// The fields of a are only used on creation; an existing asset is returned unchanged.
// Concurrent callers for the same symbol all observe the same row.
func (r *AssetRepository) FindOrCreateAsset(ctx context.Context, a model.Asset) (model.Asset, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO assets (id, symbol, name, type, currency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO NOTHING
	`
	if _, err := r.getQuerier().ExecContext(ctx, query, a.ID, a.Symbol, a.Name, a.Type, a.Currency); err != nil {
		return model.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}

	return r.GetAssetBySymbol(ctx, a.Symbol)
}
