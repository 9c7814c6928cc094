package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// SellPolicy decides what happens when a sell exceeds the held quantity.
type SellPolicy string

const (
	// SellReject fails the trade with ErrInsufficientShares.
	SellReject SellPolicy = "reject"
	// SellClamp executes the sell for the held quantity only.
	SellClamp SellPolicy = "clamp"
	// SellAllow applies the sell unchecked: the holding is removed once the
	// quantity reaches zero or below, and selling an absent holding does nothing.
	SellAllow SellPolicy = "allow"
)

// ParseSellPolicy validates a configured policy name.
func ParseSellPolicy(value string) (SellPolicy, error) {
	switch p := SellPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case SellReject, SellClamp, SellAllow:
		return p, nil
	case "":
		return SellReject, nil
	default:
		return "", fmt.Errorf("%w: unknown sell policy %q", apperrors.ErrInvalidInput, value)
	}
}

// Trade is one buy or sell applied to a holding.
type Trade struct {
	Kind     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// ApplyTrade computes the holding that results from applying trade to current.
//
// current is nil when the portfolio holds no position. A nil result means the
// holding must be removed. The returned quantity is the one actually executed,
// which differs from trade.Quantity only under SellClamp.
//
// Buys add quantity and move the average buy price to the quantity weighted mean.
// Sells reduce quantity and never change the average buy price.
func ApplyTrade(current *model.Holding, trade Trade, policy SellPolicy) (*model.Holding, decimal.Decimal, error) {
	if !trade.Quantity.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("%w: quantity must be positive", apperrors.ErrInvalidInput)
	}
	if !trade.Price.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("%w: price must be positive", apperrors.ErrInvalidInput)
	}

	switch trade.Kind {
	case model.TransactionBuy:
		if current == nil {
			return &model.Holding{Quantity: trade.Quantity, AverageBuyPrice: trade.Price}, trade.Quantity, nil
		}

		quantity := current.Quantity.Add(trade.Quantity)
		cost := current.Quantity.Mul(current.AverageBuyPrice).Add(trade.Quantity.Mul(trade.Price))
		next := *current
		next.Quantity = quantity
		next.AverageBuyPrice = cost.Div(quantity)
		return &next, trade.Quantity, nil

	case model.TransactionSell:
		if current == nil {
			if policy == SellAllow {
				return nil, trade.Quantity, nil
			}
			return nil, decimal.Zero, fmt.Errorf("%w: no position held", apperrors.ErrInsufficientShares)
		}

		executed := trade.Quantity
		if executed.GreaterThan(current.Quantity) {
			switch policy {
			case SellClamp:
				executed = current.Quantity
			case SellAllow:
			default:
				return nil, decimal.Zero, fmt.Errorf("%w: holding %s, selling %s",
					apperrors.ErrInsufficientShares, current.Quantity, trade.Quantity)
			}
		}

		remaining := current.Quantity.Sub(executed)
		if !remaining.IsPositive() {
			return nil, executed, nil
		}
		next := *current
		next.Quantity = remaining
		return &next, executed, nil

	default:
		return nil, decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrInvalidTradeKind, trade.Kind)
	}
}

// HoldingsLedger maintains portfolio_holdings incrementally from transactions.
//
// Each update is a read-modify-write of one holding row inside a database
// transaction. The SQLite connection opens transactions with BEGIN IMMEDIATE,
// so concurrent updates of the same holding are serialized by the store.
type HoldingsLedger struct {
	db              *sql.DB
	assetRepo       *repository.AssetRepository
	holdingRepo     *repository.HoldingRepository
	transactionRepo *repository.TransactionRepository
	policy          SellPolicy
	now             func() time.Time
}

// NewHoldingsLedger creates a new HoldingsLedger with the provided dependencies.
func NewHoldingsLedger(
	db *sql.DB,
	assetRepo *repository.AssetRepository,
	holdingRepo *repository.HoldingRepository,
	transactionRepo *repository.TransactionRepository,
	policy SellPolicy,
) *HoldingsLedger {
	return &HoldingsLedger{
		db:              db,
		assetRepo:       assetRepo,
		holdingRepo:     holdingRepo,
		transactionRepo: transactionRepo,
		policy:          policy,
		now:             time.Now,
	}
}

// ApplyTransaction applies a trade to the holding of assetID in portfolioID and
// returns the resulting holding, or nil when the holding was removed.
func (l *HoldingsLedger) ApplyTransaction(
	ctx context.Context,
	portfolioID, assetID, kind string,
	quantity, price decimal.Decimal,
) (*model.Holding, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	next, _, err := l.apply(ctx, tx, portfolioID, assetID, Trade{Kind: kind, Quantity: quantity, Price: price})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}

// RecordTrade appends t to the transaction log and applies it to the holding
// in one database transaction. Under SellClamp the stored transaction carries the
// executed quantity. TotalAmount is always recomputed as quantity times price.
func (l *HoldingsLedger) RecordTrade(ctx context.Context, t *model.Transaction) (*model.Holding, error) {
	return l.inTx(ctx, func(tx *sql.Tx) (*model.Holding, error) {
		return l.record(ctx, tx, t)
	})
}

// RecordAssetTrade is RecordTrade for a trade that names its asset by symbol.
// The asset is looked up or created in the same database transaction, so a
// rejected trade leaves no new asset row behind. t.AssetID and t.Symbol are
// set from the stored asset.
func (l *HoldingsLedger) RecordAssetTrade(ctx context.Context, asset model.Asset, t *model.Transaction) (*model.Holding, error) {
	return l.inTx(ctx, func(tx *sql.Tx) (*model.Holding, error) {
		stored, err := l.assetRepo.WithTx(tx).FindOrCreateAsset(ctx, asset)
		if err != nil {
			return nil, err
		}
		t.AssetID = stored.ID
		t.Symbol = stored.Symbol
		return l.record(ctx, tx, t)
	})
}

func (l *HoldingsLedger) inTx(ctx context.Context, fn func(tx *sql.Tx) (*model.Holding, error)) (*model.Holding, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	next, err := fn(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}

func (l *HoldingsLedger) record(ctx context.Context, tx *sql.Tx, t *model.Transaction) (*model.Holding, error) {
	next, executed, err := l.apply(ctx, tx, t.PortfolioID, t.AssetID, Trade{Kind: t.Type, Quantity: t.Quantity, Price: t.Price})
	if err != nil {
		return nil, err
	}

	t.Quantity = executed
	t.TotalAmount = executed.Mul(t.Price)
	if err := l.transactionRepo.WithTx(tx).InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	return next, nil
}

func (l *HoldingsLedger) apply(ctx context.Context, tx *sql.Tx, portfolioID, assetID string, trade Trade) (*model.Holding, decimal.Decimal, error) {
	holdings := l.holdingRepo.WithTx(tx)

	var current *model.Holding
	existing, err := holdings.GetHolding(ctx, portfolioID, assetID)
	switch {
	case err == nil:
		current = &existing
	case !errors.Is(err, apperrors.ErrHoldingNotFound):
		return nil, decimal.Zero, err
	}

	next, executed, err := ApplyTrade(current, trade, l.policy)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if next == nil {
		if current != nil {
			if err := holdings.DeleteHolding(ctx, portfolioID, assetID); err != nil {
				return nil, decimal.Zero, err
			}
		}
		return nil, executed, nil
	}

	next.PortfolioID = portfolioID
	next.AssetID = assetID
	next.UpdatedAt = l.now().UTC()
	if err := holdings.UpsertHolding(ctx, *next); err != nil {
		return nil, decimal.Zero, err
	}
	return next, executed, nil
}
